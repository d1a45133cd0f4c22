// Package solana provides address-level helpers for validating
// producer-claimed token addresses before they are sent to external
// lookup services.
package solana

import (
	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// AddressLength is the byte length of a Solana public key.
const AddressLength = 32

// IsValidAddress reports whether s decodes as a 32-byte base58 value.
// Producer payloads sometimes carry symbols or ticker strings in the
// address field; those fail this check and should be resolved by symbol.
func IsValidAddress(s string) bool {
	if s == "" {
		return false
	}
	data, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(data) == AddressLength
}

// IsOnCurve reports whether the address is a valid ed25519 curve point.
// Program-derived addresses are intentionally off-curve; keypair-owned
// accounts (including most mints) are on-curve.
func IsOnCurve(s string) bool {
	data, err := base58.Decode(s)
	if err != nil || len(data) != AddressLength {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(data)
	return err == nil
}
