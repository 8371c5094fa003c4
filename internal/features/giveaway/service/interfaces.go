package service

import "escrow-giveaway-bot/internal/ledger"

// ProfileLookup fetches a user's profile biography. Implementations may
// fail; callers treat any failure as an empty bio.
type ProfileLookup interface {
	Bio(userID int64) (string, error)
}

// Notifier is the outbound-messaging collaborator of the lifecycle
// engine. Except where a method returns an error for the engine to react
// to, implementations deliver best-effort and swallow per-target
// failures.
type Notifier interface {
	// PostAnnouncement publishes the giveaway announcement to every
	// whitelisted group, or to fallbackChatID when none are configured,
	// attempting to pin each post. Returns the successfully posted
	// message references.
	PostAnnouncement(g ledger.Giveaway, fallbackChatID int64) []ledger.PostedMessage

	// RefreshParticipantCount updates the participant-count button on
	// every posted announcement.
	RefreshParticipantCount(g ledger.Giveaway)

	AnnounceNoParticipants(g ledger.Giveaway)
	AnnounceWinners(g ledger.Giveaway, mentions []string, reason string)
	AnnounceManualPending(g ledger.Giveaway)
	AnnounceManualSelected(g ledger.Giveaway)

	// ResolveDisplayName returns a mentionable label for a user.
	ResolveDisplayName(userID int64) (string, error)

	// SendWinnerCode DMs a winner their redeem code.
	SendWinnerCode(userID int64, g ledger.Giveaway, code string) error

	// NotifyOwner sends a direct message to the bot owner.
	NotifyOwner(text string)
}
