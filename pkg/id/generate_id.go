package id

import (
	"crypto/rand"
	"encoding/hex"
)

// NewHex returns 2n lowercase hex characters built from n random bytes.
func NewHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string { return NewHex(16) }

// NewReceipt returns a payment receipt reference, e.g. "receipt_9f2c01ab34de".
func NewReceipt() string { return "receipt_" + NewHex(6) }
