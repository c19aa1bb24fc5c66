package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// MakeRandHexString reads size bytes from crypto/rand and hex encodes them,
// so the result is 2*size characters long.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// WipeByteArray zeroes b. Used on the client secret once it has been copied
// into the config.
func WipeByteArray(b []byte) {
	clear(b)
}

// NewStateNonce returns a fresh OAuth state value of NonceSize random bytes.
func NewStateNonce() (string, error) {
	return MakeRandHexString(NonceSize)
}
