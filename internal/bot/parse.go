package bot

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "escrow-giveaway-bot/internal/common/errors"
	"escrow-giveaway-bot/internal/ledger"
)

var (
	argPattern      = regexp.MustCompile(`"([^"]+)"|(\S+)`)
	relativePattern = regexp.MustCompile(`(?i)^\+(\d+)([mhd])$`)
)

// splitArgs tokenizes a command tail, honoring double-quoted phrases so a
// prize like "5$ Amazon card" stays one argument.
func splitArgs(raw string) []string {
	matches := argPattern.FindAllString(strings.TrimSpace(raw), -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.Trim(m, `"`))
	}
	return out
}

var absoluteLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
}

// parseEndTime accepts a relative offset like +60m, +2h or +1d, or an
// absolute date where an underscore stands in for the space between date
// and time (2025-08-15_18:00).
func parseEndTime(raw string, now time.Time) (time.Time, error) {
	if m := relativePattern.FindStringSubmatch(raw); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, apperrors.NewValidationError("end", "bad relative offset")
		}
		switch strings.ToLower(m[2]) {
		case "m":
			return now.Add(time.Duration(n) * time.Minute), nil
		case "h":
			return now.Add(time.Duration(n) * time.Hour), nil
		default:
			return now.Add(time.Duration(n) * 24 * time.Hour), nil
		}
	}

	normalized := strings.ReplaceAll(raw, "_", " ")
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, normalized, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.NewValidationError("end", "unrecognized end time")
}

// clampWinners parses a winner count, defaulting to 1 and clamping to the
// allowed range.
func clampWinners(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < ledger.MinWinners {
		n = ledger.MinWinners
	}
	if n > ledger.MaxWinners {
		n = ledger.MaxWinners
	}
	return n
}
