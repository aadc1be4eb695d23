package lock

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/core-coin/fortuna/internal/models"
	"github.com/core-coin/fortuna/internal/repository"
	"github.com/core-coin/fortuna/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{
		TTL:           4 * time.Second,
		MaxAttempts:   3,
		BackoffMin:    time.Millisecond,
		BackoffJitter: time.Millisecond,
	}
}

func newTestManager(store models.Store, opts Options) *Manager {
	m := NewManager(store, opts, logger.NewNop())
	m.clock = func() time.Time { return epoch }
	return m
}

func readLock(t *testing.T, store models.Store) *models.Lock {
	t.Helper()
	var l models.Lock
	found, err := repository.GetJSON(context.Background(), store, models.LockKey, &l)
	require.NoError(t, err)
	if !found {
		return nil
	}
	return &l
}

func putLock(t *testing.T, store models.Store, l models.Lock) {
	t.Helper()
	require.NoError(t, repository.SetJSON(context.Background(), store, models.LockKey, l))
}

// racingStore lets a competitor overwrite the lock right after our write.
type racingStore struct {
	*repository.MemoryStore
	afterSet func()
}

func (r *racingStore) Set(ctx context.Context, key string, value []byte) error {
	if err := r.MemoryStore.Set(ctx, key, value); err != nil {
		return err
	}
	if r.afterSet != nil && key == models.LockKey {
		r.afterSet()
	}
	return nil
}

// brokenStore fails every read.
type brokenStore struct {
	*repository.MemoryStore
}

func (brokenStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("connection reset")
}

func bothModes(t *testing.T, fn func(t *testing.T, atomic bool)) {
	for _, atomic := range []bool{false, true} {
		t.Run("atomic="+strconv.FormatBool(atomic), func(t *testing.T) { fn(t, atomic) })
	}
}

func TestAcquire_EmptyStore(t *testing.T) {
	bothModes(t, func(t *testing.T, atomic bool) {
		store := repository.NewMemoryStore()
		opts := testOptions()
		opts.Atomic = atomic
		m := newTestManager(store, opts)
		assert.Equal(t, atomic, m.Atomic())

		owned, err := m.Acquire(context.Background(), "tok-a")
		require.NoError(t, err)
		assert.True(t, owned)

		l := readLock(t, store)
		require.NotNil(t, l)
		assert.Equal(t, "tok-a", l.Token)
		assert.Equal(t, epoch.Add(4*time.Second).UnixMilli(), l.ExpiresAt)
	})
}

func TestAcquire_HeldLockExhaustsAttempts(t *testing.T) {
	bothModes(t, func(t *testing.T, atomic bool) {
		store := repository.NewMemoryStore()
		held := models.Lock{Token: "other", ExpiresAt: epoch.Add(time.Second).UnixMilli()}
		putLock(t, store, held)

		opts := testOptions()
		opts.Atomic = atomic
		m := newTestManager(store, opts)

		owned, err := m.Acquire(context.Background(), "tok-a")
		require.NoError(t, err)
		assert.False(t, owned)
		assert.Equal(t, &held, readLock(t, store), "held lock must be untouched")
	})
}

func TestAcquire_ExpiredLockIsReclaimed(t *testing.T) {
	bothModes(t, func(t *testing.T, atomic bool) {
		store := repository.NewMemoryStore()
		putLock(t, store, models.Lock{Token: "crashed", ExpiresAt: epoch.Add(-time.Millisecond).UnixMilli()})

		opts := testOptions()
		opts.Atomic = atomic
		m := newTestManager(store, opts)

		owned, err := m.Acquire(context.Background(), "tok-a")
		require.NoError(t, err)
		assert.True(t, owned)
		assert.Equal(t, "tok-a", readLock(t, store).Token)
	})
}

func TestAcquire_LockExpiringExactlyNowIsStillHeld(t *testing.T) {
	store := repository.NewMemoryStore()
	putLock(t, store, models.Lock{Token: "other", ExpiresAt: epoch.UnixMilli()})
	m := newTestManager(store, testOptions())

	owned, err := m.Acquire(context.Background(), "tok-a")
	require.NoError(t, err)
	assert.False(t, owned)
}

func TestAcquire_MalformedRecordCountsAsAbsent(t *testing.T) {
	bothModes(t, func(t *testing.T, atomic bool) {
		store := repository.NewMemoryStore()
		require.NoError(t, store.Set(context.Background(), models.LockKey, []byte("garbage")))

		opts := testOptions()
		opts.Atomic = atomic
		m := newTestManager(store, opts)

		owned, err := m.Acquire(context.Background(), "tok-a")
		require.NoError(t, err)
		assert.True(t, owned)
	})
}

func TestAcquire_LostWriteRaceIsDetectedByConfirmRead(t *testing.T) {
	store := &racingStore{MemoryStore: repository.NewMemoryStore()}
	competitor, _ := json.Marshal(models.Lock{Token: "competitor", ExpiresAt: epoch.Add(4 * time.Second).UnixMilli()})
	store.afterSet = func() {
		_ = store.MemoryStore.Set(context.Background(), models.LockKey, competitor)
	}

	opts := testOptions()
	opts.MaxAttempts = 1
	m := newTestManager(store, opts)

	owned, err := m.Acquire(context.Background(), "tok-a")
	require.NoError(t, err)
	assert.False(t, owned)
	assert.Equal(t, "competitor", readLock(t, store).Token)
}

func TestAcquire_ReadFailureIsStorageError(t *testing.T) {
	m := newTestManager(brokenStore{repository.NewMemoryStore()}, testOptions())

	_, err := m.Acquire(context.Background(), "tok-a")
	assert.ErrorIs(t, err, models.ErrStorage)
}

func TestAcquire_CancelledDuringBackoff(t *testing.T) {
	store := repository.NewMemoryStore()
	putLock(t, store, models.Lock{Token: "other", ExpiresAt: epoch.Add(time.Hour).UnixMilli()})

	opts := testOptions()
	opts.MaxAttempts = 1000
	opts.BackoffMin = time.Hour
	m := newTestManager(store, opts)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.Acquire(ctx, "tok-a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRelease(t *testing.T) {
	bothModes(t, func(t *testing.T, atomic bool) {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		opts := testOptions()
		opts.Atomic = atomic
		m := newTestManager(store, opts)

		owned, err := m.Acquire(ctx, "tok-a")
		require.NoError(t, err)
		require.True(t, owned)

		require.NoError(t, m.Release(ctx, "tok-b"))
		assert.NotNil(t, readLock(t, store), "non-holder must not release")

		require.NoError(t, m.Release(ctx, "tok-a"))
		assert.Nil(t, readLock(t, store))

		require.NoError(t, m.Release(ctx, "tok-a"), "releasing an absent lock is a no-op")
	})
}

func TestRelease_AfterTakeoverLeavesNewHolder(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	m := newTestManager(store, testOptions())

	owned, err := m.Acquire(ctx, "slow")
	require.NoError(t, err)
	require.True(t, owned)

	m.clock = func() time.Time { return epoch.Add(5 * time.Second) }
	owned, err = m.Acquire(ctx, "fast")
	require.NoError(t, err)
	require.True(t, owned)

	require.NoError(t, m.Release(ctx, "slow"))
	assert.Equal(t, "fast", readLock(t, store).Token)
}

func TestWithLock_ReleasesOnSuccessAndError(t *testing.T) {
	store := repository.NewMemoryStore()
	m := newTestManager(store, testOptions())

	var sawToken string
	err := m.WithLock(context.Background(), func(ctx context.Context) error {
		sawToken = readLock(t, store).Token
		return nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sawToken)
	assert.Nil(t, readLock(t, store))

	boom := errors.New("boom")
	err = m.WithLock(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, readLock(t, store))
}

func TestWithLock_ReleasesWhenRequestIsCancelled(t *testing.T) {
	store := repository.NewMemoryStore()
	m := newTestManager(store, testOptions())

	ctx, cancel := context.WithCancel(context.Background())
	err := m.WithLock(ctx, func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, readLock(t, store))
}

func TestWithLock_TimeoutSkipsCallback(t *testing.T) {
	store := repository.NewMemoryStore()
	putLock(t, store, models.Lock{Token: "other", ExpiresAt: epoch.Add(time.Hour).UnixMilli()})
	m := newTestManager(store, testOptions())

	called := false
	err := m.WithLock(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, models.ErrLockTimeout)
	assert.False(t, called)
	assert.Equal(t, "other", readLock(t, store).Token)
}

func TestWithLock_AtomicModeSerializesCriticalSection(t *testing.T) {
	store := repository.NewMemoryStore()
	opts := Options{TTL: time.Minute, MaxAttempts: 10000, BackoffMin: 0, BackoffJitter: time.Millisecond, Atomic: true}
	m := NewManager(store, opts, logger.NewNop())

	const workers = 16
	var (
		wg      sync.WaitGroup
		inside  int
		maxSeen int
		mu      sync.Mutex
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithLock(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Nil(t, readLock(t, store))
}

func TestNewToken_Unique(t *testing.T) {
	assert.NotEqual(t, NewToken(), NewToken())
}
