package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/core-coin/fortuna/internal/models"
	"github.com/core-coin/fortuna/internal/repository"
	"github.com/core-coin/fortuna/pkg/logger"
)

var eventSeed = models.Inventory{Tier1: 1, Tier2: 3, Tier3: 10}

func TestPickPrize_Priority(t *testing.T) {
	tests := []struct {
		name string
		inv  models.Inventory
		want models.Tier
	}{
		{name: "tier1 first", inv: models.Inventory{Tier1: 1, Tier2: 3, Tier3: 10}, want: models.TierOne},
		{name: "tier2 once tier1 empty", inv: models.Inventory{Tier1: 0, Tier2: 3, Tier3: 10}, want: models.TierTwo},
		{name: "tier3 once tier1 and tier2 empty", inv: models.Inventory{Tier3: 1}, want: models.TierThree},
		{name: "skips empty middle tier", inv: models.Inventory{Tier1: 0, Tier2: 0, Tier3: 4}, want: models.TierThree},
		{name: "consolation when exhausted", inv: models.Inventory{}, want: models.TierNone},
		{name: "negative counts treated as empty", inv: models.Inventory{Tier1: -2, Tier2: -1, Tier3: 0}, want: models.TierNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PickPrize(tt.inv).Type)
		})
	}
}

func TestDecrement_SaturatesAtZero(t *testing.T) {
	assert.Equal(t, models.Inventory{Tier1: 0, Tier2: 3, Tier3: 10}, Decrement(eventSeed, models.TierOne))
	assert.Equal(t, models.Inventory{}, Decrement(models.Inventory{}, models.TierTwo))
	assert.Equal(t, eventSeed, Decrement(eventSeed, models.TierNone))
}

func TestEnsure_SeedsOnceAndKeepsExisting(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	a := NewAllocator(store, eventSeed, logger.NewNop())

	inv, err := a.Ensure(ctx)
	require.NoError(t, err)
	assert.Equal(t, eventSeed, inv)

	require.NoError(t, repository.SetJSON(ctx, store, models.InventoryKey, models.Inventory{Tier3: 2}))
	inv, err = a.Ensure(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Inventory{Tier3: 2}, inv, "existing inventory must not be reseeded")
}

func TestTake_FollowsTierOrderUntilConsolation(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	a := NewAllocator(store, eventSeed, logger.NewNop())

	var got []models.Tier
	for i := 0; i < 16; i++ {
		prize, _, err := a.Take(ctx)
		require.NoError(t, err)
		got = append(got, prize.Type)
	}

	want := []models.Tier{models.TierOne, models.TierTwo, models.TierTwo, models.TierTwo}
	for i := 0; i < 10; i++ {
		want = append(want, models.TierThree)
	}
	want = append(want, models.TierNone, models.TierNone)
	assert.Equal(t, want, got)

	inv, err := a.Ensure(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Inventory{}, inv)
}

func genInventory(t *rapid.T) models.Inventory {
	return models.Inventory{
		Tier1: rapid.IntRange(0, 5).Draw(t, "tier1"),
		Tier2: rapid.IntRange(0, 10).Draw(t, "tier2"),
		Tier3: rapid.IntRange(0, 30).Draw(t, "tier3"),
	}
}

func TestProperty_CountsNeverNegativeAndIssuedWithinSeed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := genInventory(t)
		draws := rapid.IntRange(0, 60).Draw(t, "draws")

		inv := seed
		issued := map[models.Tier]int{}
		for i := 0; i < draws; i++ {
			prize := PickPrize(inv)
			issued[prize.Type]++
			inv = Decrement(inv, prize.Type)

			if inv.Tier1 < 0 || inv.Tier2 < 0 || inv.Tier3 < 0 {
				t.Fatalf("negative inventory %+v", inv)
			}
		}

		for _, tier := range []models.Tier{models.TierOne, models.TierTwo, models.TierThree} {
			if issued[tier] > seed.Count(tier) {
				t.Fatalf("tier %s issued %d, seeded %d", tier, issued[tier], seed.Count(tier))
			}
		}
		if issued[models.TierNone] != max(0, draws-seed.Total()) {
			t.Fatalf("consolation issued %d, want %d", issued[models.TierNone], max(0, draws-seed.Total()))
		}
	})
}

func TestProperty_PickNeverSkipsAStockedHigherTier(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		inv := genInventory(t)
		prize := PickPrize(inv)

		order := []models.Tier{models.TierOne, models.TierTwo, models.TierThree}
		for _, tier := range order {
			if tier == prize.Type {
				return
			}
			if inv.Count(tier) > 0 {
				t.Fatalf("picked %s while %s has %d left", prize.Type, tier, inv.Count(tier))
			}
		}
		if prize.Type != models.TierNone {
			t.Fatalf("unexpected tier %s", prize.Type)
		}
		if inv.Total() != 0 {
			t.Fatalf("consolation with stock left: %+v", inv)
		}
	})
}
