package fortuna

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/core-coin/fortuna/internal/config"
	"github.com/core-coin/fortuna/internal/fingerprint"
	"github.com/core-coin/fortuna/internal/inventory"
	"github.com/core-coin/fortuna/internal/ledger"
	"github.com/core-coin/fortuna/internal/lock"
	"github.com/core-coin/fortuna/internal/models"
	"github.com/core-coin/fortuna/internal/window"
	"github.com/core-coin/fortuna/pkg/logger"
	"github.com/core-coin/fortuna/pkg/validation"
)

// Fortuna is the claim coordinator.
// It keeps no state between requests: every call rehydrates from the shared store,
// so any number of instances can serve the same event.
type Fortuna struct {
	logger *logger.Logger
	config *config.Config

	locks       *lock.Manager
	allocator   *inventory.Allocator
	ledger      *ledger.Ledger
	notificator models.NotificationService

	clock func() time.Time
}

// NewFortuna creates a new Fortuna instance. notificator may be nil.
func NewFortuna(
	store models.Store,
	notificator models.NotificationService,
	logger *logger.Logger,
	config *config.Config,
) models.FortunaI {
	return newFortuna(store, notificator, logger, config)
}

func newFortuna(
	store models.Store,
	notificator models.NotificationService,
	logger *logger.Logger,
	config *config.Config,
) *Fortuna {
	locks := lock.NewManager(store, lock.Options{
		TTL:           config.LockTTL,
		MaxAttempts:   config.LockMaxAttempts,
		BackoffMin:    config.LockBackoffMin,
		BackoffJitter: config.LockBackoffJitter,
		Atomic:        config.LockAtomic,
	}, logger)

	return &Fortuna{
		logger:      logger,
		config:      config,
		locks:       locks,
		allocator:   inventory.NewAllocator(store, config.Seed(), logger),
		ledger:      ledger.NewLedger(store, logger),
		notificator: notificator,
		clock:       time.Now,
	}
}

// Claim allocates a prize to the participant behind req.
//
// Terminal errors: models.ErrWindowClosed, models.ErrValidation, models.ErrLockTimeout
// and storage failures matching models.ErrStorage. A participant who already claimed
// gets the stored record back without the lock being taken.
func (f *Fortuna) Claim(ctx context.Context, req *models.ClaimRequest) (*models.ClaimRecord, error) {
	if !window.IsOpen(f.clock(), f.config.Window()) {
		f.logger.Debug("Claim outside event window")
		return nil, models.ErrWindowClosed
	}

	nickname, err := validation.ValidateAndNormalizeNickname(req.Nickname, f.config.NicknameMax)
	if err != nil {
		f.logger.Debug("Invalid nickname", "error", err)
		return nil, fmt.Errorf("%w: %s", models.ErrValidation, err)
	}

	fp := fingerprint.Derive(req.ClientIP, req.UserAgent, f.config.Salt)
	log := f.logger.With("fingerprint", fingerprint.Short(fp))

	existing, err := f.ledger.Get(ctx, fp)
	if err != nil {
		log.Error("Failed to look up existing claim", "error", err)
		return nil, err
	}
	if existing != nil {
		log.Info("Participant already claimed", "claimCode", existing.ClaimCode)
		return existing, nil
	}

	var (
		claim    *models.ClaimRecord
		repeated bool
	)
	err = f.locks.WithLock(ctx, func(ctx context.Context) error {
		// A concurrent request from the same participant may have won the lock first.
		existing, err := f.ledger.Get(ctx, fp)
		if err != nil {
			return err
		}
		if existing != nil {
			claim, repeated = existing, true
			return nil
		}

		prize, remaining, err := f.allocator.Take(ctx)
		if err != nil {
			return err
		}

		code, err := ledger.NewClaimCode()
		if err != nil {
			return err
		}
		claim = &models.ClaimRecord{
			OK:          true,
			Nickname:    nickname,
			Prize:       prize,
			ClaimCode:   code,
			At:          ledger.FormatIssuedAt(f.clock()),
			Fingerprint: fp,
		}
		if err := f.ledger.Record(ctx, claim); err != nil {
			return err
		}
		log.Info("Prize allocated", "tier", prize.Type, "claimCode", code, "remaining", remaining.Total())
		return nil
	})
	switch {
	case errors.Is(err, models.ErrLockTimeout):
		log.Warn("Allocation lock busy, asking participant to retry")
		return nil, err
	case err != nil:
		log.Error("Failed to allocate prize", "error", err)
		return nil, err
	}

	if repeated {
		log.Info("Participant claimed concurrently, returning stored claim", "claimCode", claim.ClaimCode)
		return claim, nil
	}

	if f.notificator != nil && claim.Prize.Type != models.TierNone {
		go f.notificator.SendNotification(claim)
	}
	return claim, nil
}

// Status returns whether the event is open and what is left.
// Its only write is the one-time inventory seeding.
func (f *Fortuna) Status(ctx context.Context) (*models.Status, error) {
	inv, err := f.allocator.Ensure(ctx)
	if err != nil {
		f.logger.Error("Failed to read inventory", "error", err)
		return nil, err
	}
	w := f.config.Window()
	return &models.Status{
		IsOpen: window.IsOpen(f.clock(), w),
		Remaining: models.RemainingPrizes{
			Tier1: inv.Tier1,
			Tier2: inv.Tier2,
			Tier3: inv.Tier3,
			Total: inv.Total(),
		},
		Window: window.Local(w, f.config.Location()),
	}, nil
}

// Claims returns the audit trail oldest first
func (f *Fortuna) Claims(ctx context.Context) ([]*models.ClaimRecord, error) {
	return f.ledger.List(ctx)
}
