package models

import "context"

type FortunaI interface {
	// Claim runs the allocation protocol for one participant.
	// A returning participant gets the stored record back unchanged.
	Claim(ctx context.Context, req *ClaimRequest) (*ClaimRecord, error)

	// Status returns the read-only snapshot of the event.
	Status(ctx context.Context) (*Status, error)

	// Claims lists the audit trail in chronological order.
	Claims(ctx context.Context) ([]*ClaimRecord, error)
}

type APIServer interface {
	Start()
	Shutdown() error
}
