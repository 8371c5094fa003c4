package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Shuffle performs a cryptographically secure shuffle of the slice.
func Shuffle[T any](slice []T) error {
	n := len(slice)
	for i := n - 1; i > 0; i-- {
		jBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("failed to generate random number: %w", err)
		}
		j := int(jBig.Int64())
		slice[i], slice[j] = slice[j], slice[i]
	}
	return nil
}

// Sample draws k distinct elements from slice uniformly at random without
// replacement. When k exceeds the slice length every element is returned.
// The input slice is not modified.
func Sample[T any](slice []T, k int) ([]T, error) {
	if k > len(slice) {
		k = len(slice)
	}
	if k <= 0 {
		return nil, nil
	}
	pool := make([]T, len(slice))
	copy(pool, slice)
	if err := Shuffle(pool); err != nil {
		return nil, err
	}
	return pool[:k], nil
}

// Intn returns a uniform random int in [0, n).
func Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid upper bound %d", n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
