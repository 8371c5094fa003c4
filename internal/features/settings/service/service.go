package service

import (
	"strings"

	"github.com/rs/zerolog"

	apperrors "escrow-giveaway-bot/internal/common/errors"
	"escrow-giveaway-bot/internal/ledger"
)

// Service owns the process-wide settings: the bio keyword gate, the claim
// instructions, the prize photo and the group whitelist. All mutations are
// owner-only.
type Service struct {
	store   *ledger.Store
	ownerID int64
	log     zerolog.Logger
}

func NewService(store *ledger.Store, ownerID int64, log zerolog.Logger) *Service {
	return &Service{store: store, ownerID: ownerID, log: log}
}

// Snapshot returns a copy of the current settings.
func (s *Service) Snapshot() ledger.Settings {
	var out ledger.Settings
	s.store.View(func(l *ledger.Ledger) {
		out = *l.Settings
	})
	return out
}

// SetKeyword replaces the required bio keyword.
func (s *Service) SetKeyword(userID int64, keyword string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return apperrors.NewValidationError("keyword", "must not be empty")
	}
	return s.update(userID, func(set *ledger.Settings) {
		set.RequiredBioKeyword = keyword
	})
}

// SetClaimInstructions replaces the text appended to winner DMs.
func (s *Service) SetClaimInstructions(userID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return apperrors.NewValidationError("instructions", "must not be empty")
	}
	return s.update(userID, func(set *ledger.Settings) {
		set.ClaimInstructions = text
	})
}

// SetPrizePhoto stores the Telegram file id attached to winner
// announcements. An empty id clears the photo.
func (s *Service) SetPrizePhoto(userID int64, fileID string) error {
	return s.update(userID, func(set *ledger.Settings) {
		set.PrizePhotoFileID = strings.TrimSpace(fileID)
	})
}

// AddGroup whitelists a group chat for giveaway posts.
func (s *Service) AddGroup(userID, chatID int64) error {
	if userID != s.ownerID {
		return apperrors.NewUnauthorizedError("owner only")
	}
	return s.store.Update(func(l *ledger.Ledger) error {
		for _, g := range l.Settings.WhitelistGroups {
			if g == chatID {
				return apperrors.NewValidationError("group", "already whitelisted")
			}
		}
		l.Settings.WhitelistGroups = append(l.Settings.WhitelistGroups, chatID)
		return nil
	})
}

// RemoveGroup drops a group chat from the whitelist.
func (s *Service) RemoveGroup(userID, chatID int64) error {
	return s.update(userID, func(set *ledger.Settings) {
		kept := set.WhitelistGroups[:0]
		for _, g := range set.WhitelistGroups {
			if g != chatID {
				kept = append(kept, g)
			}
		}
		set.WhitelistGroups = kept
	})
}

// Groups lists the whitelisted group chat ids.
func (s *Service) Groups() []int64 {
	var out []int64
	s.store.View(func(l *ledger.Ledger) {
		out = append(out, l.Settings.WhitelistGroups...)
	})
	return out
}

func (s *Service) update(userID int64, apply func(*ledger.Settings)) error {
	if userID != s.ownerID {
		return apperrors.NewUnauthorizedError("owner only")
	}
	return s.store.Update(func(l *ledger.Ledger) error {
		apply(l.Settings)
		return nil
	})
}
