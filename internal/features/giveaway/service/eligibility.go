package service

import (
	"strings"

	"github.com/rs/zerolog"
)

// EligibilityChecker verifies the participation precondition: the required
// keyword must appear in the candidate's profile bio as a literal,
// case-sensitive substring.
type EligibilityChecker struct {
	profile ProfileLookup
	log     zerolog.Logger
}

func NewEligibilityChecker(profile ProfileLookup, log zerolog.Logger) *EligibilityChecker {
	return &EligibilityChecker{profile: profile, log: log}
}

// IsEligible reports whether the user's bio contains keyword. A failed
// lookup counts as an empty bio: ineligible, never an error.
func (c *EligibilityChecker) IsEligible(userID int64, keyword string) bool {
	bio, err := c.profile.Bio(userID)
	if err != nil {
		c.log.Debug().Err(err).Int64("user_id", userID).Msg("bio lookup failed, treating as empty")
		return false
	}
	if bio == "" {
		return false
	}
	return strings.Contains(bio, keyword)
}
