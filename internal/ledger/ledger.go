package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/core-coin/fortuna/internal/models"
	"github.com/core-coin/fortuna/internal/repository"
	"github.com/core-coin/fortuna/pkg/logger"
)

// IssuedAtLayout sorts lexicographically in time order for UTC instants.
const IssuedAtLayout = "2006-01-02T15:04:05.000Z"

// Ledger stores claim records by fingerprint plus a time-ordered audit copy.
type Ledger struct {
	logger *logger.Logger
	store  models.Store
}

func NewLedger(store models.Store, logger *logger.Logger) *Ledger {
	return &Ledger{store: store, logger: logger}
}

// Get returns the claim recorded for fingerprint, or nil.
func (l *Ledger) Get(ctx context.Context, fingerprint string) (*models.ClaimRecord, error) {
	var claim models.ClaimRecord
	found, err := repository.GetJSON(ctx, l.store, models.ClaimKey(fingerprint), &claim)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	claim.Fingerprint = fingerprint
	return &claim, nil
}

// Record writes the claim under its fingerprint key and its audit key.
// The two writes are independent and run concurrently.
func (l *Ledger) Record(ctx context.Context, claim *models.ClaimRecord) error {
	if claim.Fingerprint == "" {
		return fmt.Errorf("failed to record claim: empty fingerprint")
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return repository.SetJSON(gctx, l.store, models.ClaimKey(claim.Fingerprint), claim)
	})
	g.Go(func() error {
		return repository.SetJSON(gctx, l.store, models.ClaimAuditKey(claim), claim)
	})
	return g.Wait()
}

// List returns the audit trail oldest first.
func (l *Ledger) List(ctx context.Context) ([]*models.ClaimRecord, error) {
	keys, err := l.store.List(ctx, models.ClaimAuditKeyPrefix)
	if err != nil {
		return nil, err
	}
	claims := make([]*models.ClaimRecord, 0, len(keys))
	for _, key := range keys {
		var claim models.ClaimRecord
		found, err := repository.GetJSON(ctx, l.store, key, &claim)
		if err != nil {
			return nil, err
		}
		if !found {
			l.logger.Debug("Audit record vanished while listing", "key", key)
			continue
		}
		claims = append(claims, &claim)
	}
	return claims, nil
}

// NewClaimCode returns 12 upper-case hex characters. Codes are for humans and may collide.
func NewClaimCode() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate claim code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// FormatIssuedAt renders t for ClaimRecord.At.
func FormatIssuedAt(t time.Time) string {
	return t.UTC().Format(IssuedAtLayout)
}
