package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateToken returns n cryptographically random bytes hex encoded,
// yielding a 2n-character opaque token.
func GenerateToken(n int) string {
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		panic(fmt.Errorf("failed to generate random bytes: %w", err))
	}
	return hex.EncodeToString(raw)
}
