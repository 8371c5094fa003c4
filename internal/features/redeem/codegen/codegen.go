package codegen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Codes are three hyphen-separated 4-character segments drawn from an
// uppercase alphanumeric alphabet, e.g. AB12-CD34-EF56. The 36^12
// namespace makes codes practically unguessable without any
// cryptographic uniqueness guarantee.
const (
	alphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	segments   = 3
	segmentLen = 4

	maxAttempts = 100
)

// Generate produces one redeem code. Uniqueness against the ledger is the
// caller's concern; use Unique for a collision-checked code.
func Generate() (string, error) {
	parts := make([]string, 0, segments)
	var b strings.Builder
	for i := 0; i < segments; i++ {
		b.Reset()
		for j := 0; j < segmentLen; j++ {
			idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
			if err != nil {
				return "", fmt.Errorf("failed to generate random index: %w", err)
			}
			b.WriteByte(alphabet[idx.Int64()])
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "-"), nil
}

// Unique generates codes until exists reports a free one. A code must
// never be reused while a previous issue of it is still live, so callers
// pass an existence check over all known codes.
func Unique(exists func(code string) bool) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		code, err := Generate()
		if err != nil {
			return "", err
		}
		if !exists(code) {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not find a free code after %d attempts", maxAttempts)
}
