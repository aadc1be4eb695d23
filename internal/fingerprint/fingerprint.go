// Package fingerprint derives the pseudo-identity of a participant.
//
// The identity is a heuristic: participants behind the same network egress with the
// same browser collapse into one fingerprint.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// DefaultClientIP is used when the request carries no usable address.
const DefaultClientIP = "0.0.0.0"

// Derive returns the hex SHA-256 of "ip|userAgent|salt".
func Derive(clientIP, userAgent, salt string) string {
	if clientIP == "" {
		clientIP = DefaultClientIP
	}
	sum := sha256.Sum256([]byte(clientIP + "|" + userAgent + "|" + salt))
	return hex.EncodeToString(sum[:])
}

// Short returns a prefix suitable for logs.
func Short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
