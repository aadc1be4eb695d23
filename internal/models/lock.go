package models

// LockKey is the well-known key under which the single allocation lock lives.
const LockKey = "lock"

// Lock represents the best-effort mutual exclusion record in the shared store.
// Used for serializing inventory mutation between stateless request handlers.
type Lock struct {
	// Token identifies the holder. Only the holder may release the lock.
	Token string `json:"token"`
	// ExpiresAt is the Unix time in milliseconds after which the lock is abandoned.
	ExpiresAt int64 `json:"expiresAt"`
}

// Expired reports whether the lock is abandoned at nowMillis.
func (l *Lock) Expired(nowMillis int64) bool {
	return l.ExpiresAt < nowMillis
}
