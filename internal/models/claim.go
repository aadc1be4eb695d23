package models

import "fmt"

const (
	// ClaimKeyPrefix prefixes the dedupe record of a fingerprint.
	ClaimKeyPrefix = "claims/"
	// ClaimAuditKeyPrefix prefixes the time-ordered audit copies.
	ClaimAuditKeyPrefix = "claims_by_time/"
)

// ClaimRecord is a participant's realized allocation. It is written once and never updated.
// The JSON form is also the success payload of the allocation endpoint.
type ClaimRecord struct {
	// OK is always true for stored records.
	OK bool `json:"ok"`
	// Nickname is the participant's display name.
	Nickname string `json:"nickname"`
	// Prize is the allocated tier and its label.
	Prize Prize `json:"prize"`
	// ClaimCode is a random human reference. Not unique by construction.
	ClaimCode string `json:"claimCode"`
	// At is the issue time, UTC ISO-8601 with milliseconds.
	At string `json:"at"`

	// Fingerprint is the primary key. It is carried in the key, not in the payload.
	Fingerprint string `json:"-"`
}

// ClaimKey returns the dedupe key of a fingerprint.
func ClaimKey(fingerprint string) string {
	return ClaimKeyPrefix + fingerprint
}

// ClaimAuditKey returns the lexicographically time-ordered audit key of a record.
func ClaimAuditKey(claim *ClaimRecord) string {
	return fmt.Sprintf("%s%s_%s", ClaimAuditKeyPrefix, claim.At, claim.ClaimCode)
}

// ClaimRequest carries what the coordinator needs from an incoming request.
type ClaimRequest struct {
	Nickname  string
	ClientIP  string
	UserAgent string
}
