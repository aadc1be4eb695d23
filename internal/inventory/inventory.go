package inventory

import (
	"context"

	"github.com/core-coin/fortuna/internal/models"
	"github.com/core-coin/fortuna/internal/repository"
	"github.com/core-coin/fortuna/pkg/logger"
)

// Prize catalogue in priority order. The first tier with stock wins.
var (
	PrizeTier1 = models.Prize{Type: models.TierOne, Label: "🥇 Tier 1 (ultra rare): 100,000 KRW voucher"}
	PrizeTier2 = models.Prize{Type: models.TierTwo, Label: "🥈 Tier 2 (rare): 30,000 KRW voucher / 30% off"}
	PrizeTier3 = models.Prize{Type: models.TierThree, Label: "🥉 Tier 3: 10,000 KRW voucher / 10% off"}
	// Consolation is handed out once every tier is exhausted.
	Consolation = models.Prize{Type: models.TierNone, Label: "🎁 Participation gift: styling checklist (PDF) + early notice for the next event"}
)

// Allocator owns the inventory record in the shared store.
type Allocator struct {
	logger *logger.Logger
	store  models.Store
	seed   models.Inventory
}

func NewAllocator(store models.Store, seed models.Inventory, logger *logger.Logger) *Allocator {
	return &Allocator{store: store, seed: seed, logger: logger}
}

// Ensure returns the current inventory, writing the seed distribution if none exists.
// Seeding twice writes the same value, so concurrent first calls are harmless.
func (a *Allocator) Ensure(ctx context.Context) (models.Inventory, error) {
	var inv models.Inventory
	found, err := repository.GetJSON(ctx, a.store, models.InventoryKey, &inv)
	if err != nil {
		return models.Inventory{}, err
	}
	if found {
		return inv, nil
	}
	if err := repository.SetJSON(ctx, a.store, models.InventoryKey, a.seed); err != nil {
		return models.Inventory{}, err
	}
	a.logger.Info("Inventory seeded", "p1", a.seed.Tier1, "p2", a.seed.Tier2, "p3", a.seed.Tier3)
	return a.seed, nil
}

// Take picks a prize from the current inventory, decrements its tier and rewrites
// the record. Callers must hold the allocation lock.
func (a *Allocator) Take(ctx context.Context) (models.Prize, models.Inventory, error) {
	inv, err := a.Ensure(ctx)
	if err != nil {
		return models.Prize{}, models.Inventory{}, err
	}
	prize := PickPrize(inv)
	inv = Decrement(inv, prize.Type)
	if err := repository.SetJSON(ctx, a.store, models.InventoryKey, inv); err != nil {
		return models.Prize{}, models.Inventory{}, err
	}
	return prize, inv, nil
}

// PickPrize returns the scarcest tier with stock left, or Consolation.
func PickPrize(inv models.Inventory) models.Prize {
	switch {
	case inv.Tier1 > 0:
		return PrizeTier1
	case inv.Tier2 > 0:
		return PrizeTier2
	case inv.Tier3 > 0:
		return PrizeTier3
	}
	return Consolation
}

// Decrement lowers tier by one, never below zero. TierNone leaves inv unchanged.
func Decrement(inv models.Inventory, tier models.Tier) models.Inventory {
	switch tier {
	case models.TierOne:
		inv.Tier1 = max(0, inv.Tier1-1)
	case models.TierTwo:
		inv.Tier2 = max(0, inv.Tier2-1)
	case models.TierThree:
		inv.Tier3 = max(0, inv.Tier3-1)
	}
	return inv
}
