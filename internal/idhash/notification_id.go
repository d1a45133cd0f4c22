package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeNotificationID computes a deterministic notification id using SHA256.
// Formula: SHA256(token_address|exchange|created_at_unix_nano)
// Returns hex-encoded hash (64 characters).
func ComputeNotificationID(tokenAddress, exchange string, createdAtUnixNano int64) string {
	data := fmt.Sprintf("%s|%s|%d", tokenAddress, exchange, createdAtUnixNano)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeEndpointID computes a deterministic endpoint id from its URL.
// The URL is unique per endpoint, so the id is stable across re-registration
// attempts.
func ComputeEndpointID(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:])
}
