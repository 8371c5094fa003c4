package service

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestIsEligibleSubstringMatch(t *testing.T) {
	profile := &fakeProfile{bios: map[int64]string{
		1: "crypto trader, @TrustlyEscrow verified",
		2: "@trustlyescrow",
		3: "",
	}}
	c := NewEligibilityChecker(profile, zerolog.Nop())

	assert.True(t, c.IsEligible(1, "@TrustlyEscrow"))
	assert.False(t, c.IsEligible(2, "@TrustlyEscrow"), "match is case-sensitive")
	assert.False(t, c.IsEligible(3, "@TrustlyEscrow"))
	assert.False(t, c.IsEligible(99, "@TrustlyEscrow"), "unknown user has no bio")
}

func TestIsEligibleFailsClosed(t *testing.T) {
	c := NewEligibilityChecker(&fakeProfile{err: errors.New("rate limited")}, zerolog.Nop())
	assert.False(t, c.IsEligible(1, "@TrustlyEscrow"))
}
