// Package lock implements best-effort mutual exclusion on top of the shared store.
//
// The store has no atomic check-and-set, so acquisition is read, write, then re-read
// to confirm the write survived. Two callers that both observe an absent or expired
// lock before either writes can still both believe they won; the confirm read and the
// jittered retry only narrow that window. The short TTL bounds how long a crashed
// holder blocks everyone else.
//
// Stores implementing models.CompareAndSwapStore can close the window entirely:
// with Options.Atomic set, the write-and-confirm step becomes a single conditional
// write and release becomes delete-if-equal.
package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/core-coin/fortuna/internal/models"
	"github.com/core-coin/fortuna/internal/repository"
	"github.com/core-coin/fortuna/pkg/logger"
)

type Options struct {
	// TTL is how long an acquired lock stays valid without release.
	TTL time.Duration
	// MaxAttempts bounds the acquisition loop.
	MaxAttempts int
	// BackoffMin and BackoffJitter shape the sleep between attempts:
	// BackoffMin plus a uniform random duration in [0, BackoffJitter).
	BackoffMin    time.Duration
	BackoffJitter time.Duration
	// Atomic switches to the conditional-write protocol when the store supports it.
	Atomic bool
}

type Manager struct {
	logger *logger.Logger
	store  models.Store
	cas    models.CompareAndSwapStore
	opts   Options

	clock  func() time.Time
	jitter func(n int64) int64
}

func NewManager(store models.Store, opts Options, logger *logger.Logger) *Manager {
	m := &Manager{
		logger: logger,
		store:  store,
		opts:   opts,
		clock:  time.Now,
		jitter: rand.Int63n,
	}
	if opts.Atomic {
		if cas, ok := store.(models.CompareAndSwapStore); ok {
			m.cas = cas
		} else {
			logger.Warn("Store has no compare-and-swap, falling back to best-effort locking")
		}
	}
	if m.opts.MaxAttempts <= 0 {
		m.opts.MaxAttempts = 1
	}
	return m
}

// NewToken returns a holder token unique to one allocation attempt
func NewToken() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString())
}

// Atomic reports whether the manager uses the conditional-write protocol
func (m *Manager) Atomic() bool {
	return m.cas != nil
}

// Acquire tries up to MaxAttempts times to take the lock for token.
// It returns false without error when every attempt found the lock held.
// Errors are storage failures on the initial read or write, or ctx being done.
func (m *Manager) Acquire(ctx context.Context, token string) (bool, error) {
	for attempt := 1; attempt <= m.opts.MaxAttempts; attempt++ {
		owned, err := m.tryAcquire(ctx, token)
		if err != nil {
			return false, err
		}
		if owned {
			m.logger.Debug("Lock acquired", "attempt", attempt)
			return true, nil
		}
		if attempt == m.opts.MaxAttempts {
			break
		}
		if err := m.sleep(ctx); err != nil {
			return false, err
		}
	}
	m.logger.Debug("Lock attempts exhausted", "attempts", m.opts.MaxAttempts)
	return false, nil
}

func (m *Manager) tryAcquire(ctx context.Context, token string) (bool, error) {
	current, raw, err := m.read(ctx)
	if err != nil {
		return false, err
	}
	now := m.clock().UnixMilli()
	if current != nil && !current.Expired(now) {
		return false, nil
	}

	next, err := json.Marshal(&models.Lock{Token: token, ExpiresAt: now + m.opts.TTL.Milliseconds()})
	if err != nil {
		return false, fmt.Errorf("failed to encode lock: %w", err)
	}

	if m.cas != nil {
		swapped, err := m.cas.CompareAndSwap(ctx, models.LockKey, raw, next)
		if err != nil {
			return false, err
		}
		return swapped, nil
	}

	if err := m.store.Set(ctx, models.LockKey, next); err != nil {
		return false, models.NewStorageError("set", models.LockKey, err)
	}

	// A failed confirm read counts as a lost race; the next attempt reconciles.
	confirm, _, err := m.read(ctx)
	if err != nil {
		m.logger.Warn("Failed to confirm lock ownership", "error", err)
		return false, nil
	}
	return confirm != nil && confirm.Token == token, nil
}

// Release deletes the lock only if token still holds it. A lock taken over after
// expiry belongs to someone else and is left alone.
func (m *Manager) Release(ctx context.Context, token string) error {
	current, raw, err := m.read(ctx)
	if err != nil {
		return err
	}
	if current == nil || current.Token != token {
		m.logger.Debug("Lock not owned at release, skipping")
		return nil
	}
	if m.cas != nil {
		if _, err := m.cas.CompareAndSwap(ctx, models.LockKey, raw, nil); err != nil {
			return err
		}
		return nil
	}
	return repository.Delete(ctx, m.store, models.LockKey)
}

// WithLock runs fn while holding the lock and releases it on every exit path.
// It returns models.ErrLockTimeout when the lock could not be taken.
// Release uses a context detached from ctx's cancellation so an aborted request
// does not leave the lock to expire on its own.
func (m *Manager) WithLock(ctx context.Context, fn func(ctx context.Context) error) error {
	token := NewToken()
	owned, err := m.Acquire(ctx, token)
	if err != nil {
		return err
	}
	if !owned {
		return models.ErrLockTimeout
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opts.TTL)
		defer cancel()
		if err := m.Release(releaseCtx, token); err != nil {
			m.logger.Error("Failed to release lock, it will expire on its own", "error", err, "ttl", m.opts.TTL)
		}
	}()

	return fn(ctx)
}

// read returns the decoded lock and its raw bytes. A missing key yields a nil lock.
// An undecodable record is treated as no lock; its raw bytes are still returned so
// a compare-and-swap can replace it.
func (m *Manager) read(ctx context.Context) (*models.Lock, []byte, error) {
	raw, err := m.store.Get(ctx, models.LockKey)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		var storageErr *models.StorageError
		if errors.As(err, &storageErr) {
			return nil, nil, err
		}
		return nil, nil, models.NewStorageError("get", models.LockKey, err)
	}
	var current models.Lock
	if err := json.Unmarshal(raw, &current); err != nil {
		m.logger.Warn("Discarding malformed lock record", "error", err)
		return nil, raw, nil
	}
	return &current, raw, nil
}

func (m *Manager) sleep(ctx context.Context) error {
	d := m.opts.BackoffMin
	if m.opts.BackoffJitter > 0 {
		d += time.Duration(m.jitter(int64(m.opts.BackoffJitter)))
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
