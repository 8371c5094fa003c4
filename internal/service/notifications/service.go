package notifications

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"escrow-giveaway-bot/internal/ledger"
	"escrow-giveaway-bot/internal/platform/telegram"
)

const timeLayout = "02 Jan 2006 15:04 MST"

// Service fans giveaway and withdraw events out to Telegram chats. Every
// delivery is best-effort: a failed send to one target never prevents the
// remaining targets, and failures are logged, not returned, unless a
// caller explicitly needs to react (winner DMs).
type Service struct {
	tg      *telegram.Client
	store   *ledger.Store
	ownerID int64
	log     zerolog.Logger
}

func NewService(tg *telegram.Client, store *ledger.Store, ownerID int64, log zerolog.Logger) *Service {
	return &Service{tg: tg, store: store, ownerID: ownerID, log: log}
}

// settings returns a snapshot of the current settings.
func (s *Service) settings() ledger.Settings {
	var out ledger.Settings
	s.store.View(func(l *ledger.Ledger) {
		out = *l.Settings
	})
	return out
}

// broadcast sends text to every whitelisted group, optionally pinning each
// sent message, and returns the references of the messages that went out.
func (s *Service) broadcast(text string, markup *tgbotapi.InlineKeyboardMarkup, pin bool) []ledger.PostedMessage {
	var posted []ledger.PostedMessage
	for _, gid := range s.settings().WhitelistGroups {
		msgID, err := s.tg.Send(gid, text, markup)
		if err != nil {
			s.log.Warn().Err(err).Int64("chat_id", gid).Msg("broadcast send failed")
			continue
		}
		posted = append(posted, ledger.PostedMessage{ChatID: gid, MessageID: msgID})
		if pin {
			if err := s.tg.Pin(gid, msgID); err != nil {
				s.log.Debug().Err(err).Int64("chat_id", gid).Msg("pin failed")
			}
		}
	}
	return posted
}

// PostAnnouncement publishes the new-giveaway announcement with its
// participate keyboard to every whitelisted group, falling back to
// fallbackChatID when no groups are configured. Each post is pinned when
// the bot has the rights for it.
func (s *Service) PostAnnouncement(g ledger.Giveaway, fallbackChatID int64) []ledger.PostedMessage {
	set := s.settings()
	mode := "Manual"
	if g.Mode == ledger.ModeAuto {
		mode = "Automatic"
	}
	text := fmt.Sprintf(
		"🎁 New Giveaway Started! 🎁\n\n📌 Giveaway ID: %s\n💵 Prize: %s\n📋 Rules: Must have %s in your bio\n⏳ Ends: %s\n🧾 Winner selection: %s\n👥 Number of winners: %d\n\n👇 Click below to participate",
		g.ID, g.Prize, set.RequiredBioKeyword, g.EndsAt.Format(timeLayout), mode, g.WinnersCount,
	)
	markup := AnnouncementKeyboard(g.ID, len(g.Participants))

	if len(set.WhitelistGroups) == 0 {
		msgID, err := s.tg.Send(fallbackChatID, text, &markup)
		if err != nil {
			s.log.Warn().Err(err).Int64("chat_id", fallbackChatID).Msg("announcement fallback send failed")
			return nil
		}
		if err := s.tg.Pin(fallbackChatID, msgID); err != nil {
			s.log.Debug().Err(err).Int64("chat_id", fallbackChatID).Msg("pin failed")
		}
		return []ledger.PostedMessage{{ChatID: fallbackChatID, MessageID: msgID}}
	}
	return s.broadcast(text, &markup, true)
}

// RefreshParticipantCount rewrites the participants button on every posted
// announcement of the giveaway.
func (s *Service) RefreshParticipantCount(g ledger.Giveaway) {
	markup := AnnouncementKeyboard(g.ID, len(g.Participants))
	for _, p := range g.Posted {
		if err := s.tg.EditReplyMarkup(p.ChatID, p.MessageID, markup); err != nil {
			s.log.Debug().Err(err).Int64("chat_id", p.ChatID).Int("message_id", p.MessageID).Msg("markup refresh failed")
		}
	}
}

// AnnounceNoParticipants tells the groups a giveaway closed without entries.
func (s *Service) AnnounceNoParticipants(g ledger.Giveaway) {
	s.broadcast(fmt.Sprintf(
		"🏁 Giveaway Ended\n\n📌 Giveaway ID: %s\n💵 Prize: %s\nNo participants — no winners selected.",
		g.ID, g.Prize,
	), nil, false)
}

// AnnounceWinners publishes the winner list, then the prize photo when one
// is configured.
func (s *Service) AnnounceWinners(g ledger.Giveaway, mentions []string, reason string) {
	endedBy := "Owner/Manual"
	if reason == "auto" {
		endedBy = "Auto scheduler"
	}
	s.broadcast(fmt.Sprintf(
		"🏆 Giveaway Ended 🏆\n\n📌 Giveaway ID: %s\n💵 Prize: %s\n🎯 Winners (%d): %s\n\n🎉 Congratulations!\n(Ended by: %s)",
		g.ID, g.Prize, len(g.Winners), strings.Join(mentions, ", "), endedBy,
	), nil, false)

	set := s.settings()
	if set.PrizePhotoFileID == "" {
		return
	}
	for _, gid := range set.WhitelistGroups {
		if err := s.tg.SendPhoto(gid, set.PrizePhotoFileID, "(Prize image)"); err != nil {
			s.log.Debug().Err(err).Int64("chat_id", gid).Msg("prize photo send failed")
		}
	}
}

// AnnounceManualPending tells the groups the owner still has to pick winners.
func (s *Service) AnnounceManualPending(g ledger.Giveaway) {
	s.broadcast(fmt.Sprintf(
		"🏁 Giveaway Ended (Manual Selection)\n\n📌 Giveaway ID: %s\n💵 Prize: %s\nOwner will pick winner(s) soon.",
		g.ID, g.Prize,
	), nil, false)
}

// AnnounceManualSelected publishes the owner's hand-picked winner list.
func (s *Service) AnnounceManualSelected(g ledger.Giveaway) {
	ids := make([]string, 0, len(g.Winners))
	for _, uid := range g.Winners {
		ids = append(ids, fmt.Sprintf("ID:%d", uid))
	}
	s.broadcast(fmt.Sprintf(
		"🏆 Winners Selected 🏆\n\n📌 Giveaway ID: %s\n💵 Prize: %s\n🎯 Winners (%d): %s\n\n🎉 Congratulations!",
		g.ID, g.Prize, len(g.Winners), strings.Join(ids, ", "),
	), nil, false)
}

// ResolveDisplayName returns a mentionable label for a user.
func (s *Service) ResolveDisplayName(userID int64) (string, error) {
	return s.tg.DisplayName(userID)
}

// SendWinnerCode DMs a winner their redeem code with claim instructions and
// a withdraw shortcut. The error is returned so the caller can fall back to
// alerting the owner.
func (s *Service) SendWinnerCode(userID int64, g ledger.Giveaway, code string) error {
	set := s.settings()
	text := fmt.Sprintf(
		"🎉 CONGRATS! You won Giveaway %s 🎉\n\nPrize: %s\nRedeem Code: %s\n\n%s\nUse /withdraw %s to withdraw or click the withdraw button below.",
		g.ID, g.Prize, code, set.ClaimInstructions, code,
	)
	markup := WithdrawKeyboard(code)
	_, err := s.tg.Send(userID, text, &markup)
	return err
}

// NotifyOwner sends a direct message to the bot owner.
func (s *Service) NotifyOwner(text string) {
	if _, err := s.tg.Send(s.ownerID, text, nil); err != nil {
		s.log.Warn().Err(err).Msg("owner notification failed")
	}
}

// NotifyOwnerWithdrawRequest sends the owner a withdraw request with
// approve, reject and message-user affordances.
func (s *Service) NotifyOwnerWithdrawRequest(wr ledger.WithdrawRequest) {
	label, err := s.tg.DisplayName(wr.UserID)
	if err != nil {
		label = fmt.Sprintf("ID:%d", wr.UserID)
	}
	text := fmt.Sprintf(
		"🔔 New Withdraw Request\nUser: %s\nAmount: %s\nMethod: %s\nAddress/UPI: %s\nRedeem Code: %s\nRequest ID: %s",
		label, wr.Amount, wr.Method, wr.Address, wr.Code, wr.ID,
	)
	markup := ReviewKeyboard(wr.ID)
	if _, err := s.tg.Send(s.ownerID, text, &markup); err != nil {
		s.log.Warn().Err(err).Str("request_id", wr.ID).Msg("owner withdraw notification failed")
	}
}

// SendClaimedCode DMs a user their freshly claimed code.
func (s *Service) SendClaimedCode(userID int64, code string) {
	text := fmt.Sprintf("Your code: %s\nUse /withdraw %s to withdraw", code, code)
	markup := WithdrawKeyboard(code)
	if _, err := s.tg.Send(userID, text, &markup); err != nil {
		s.log.Debug().Err(err).Int64("user_id", userID).Msg("claimed code DM failed")
	}
}

// NotifyUser sends a plain direct message, best-effort.
func (s *Service) NotifyUser(userID int64, text string) {
	if _, err := s.tg.Send(userID, text, nil); err != nil {
		s.log.Debug().Err(err).Int64("user_id", userID).Msg("user notification failed")
	}
}
