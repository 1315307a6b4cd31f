// Package hashutil provides the deterministic hash primitive the ledger
// chains on: SHA-256 over a byte string, hex-encoded.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
)

// H hashes b with SHA-256 and returns the 64-character lowercase hex digest.
// Synchronous and deterministic: byte-identical input always yields the
// same digest, regardless of platform.
func H(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HString is a convenience wrapper for hashing a string payload.
func HString(s string) string {
	return H([]byte(s))
}
