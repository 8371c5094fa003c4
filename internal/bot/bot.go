package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	gwservice "escrow-giveaway-bot/internal/features/giveaway/service"
	rdservice "escrow-giveaway-bot/internal/features/redeem/service"
	setservice "escrow-giveaway-bot/internal/features/settings/service"
	"escrow-giveaway-bot/internal/platform/telegram"
)

// pending owner prompts issued from the panel, resolved by the owner's
// next text message.
const (
	pendingNone        = ""
	pendingEditKeyword = "edit_keyword"
	pendingEditClaim   = "edit_claim"
)

// Bot receives Telegram updates and routes them to the feature services.
// It holds no domain state of its own beyond the owner's pending panel
// prompt.
type Bot struct {
	tg        *telegram.Client
	giveaways *gwservice.Service
	redeems   *rdservice.Service
	settings  *setservice.Service
	ownerID   int64
	log       zerolog.Logger

	mu      sync.Mutex
	pending string
}

func New(
	tg *telegram.Client,
	giveaways *gwservice.Service,
	redeems *rdservice.Service,
	settings *setservice.Service,
	ownerID int64,
	log zerolog.Logger,
) *Bot {
	return &Bot{
		tg:        tg,
		giveaways: giveaways,
		redeems:   redeems,
		settings:  settings,
		ownerID:   ownerID,
		log:       log,
	}
}

// Run consumes the long-poll update stream until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.tg.API().GetUpdatesChan(cfg)
	b.log.Info().Msg("update loop started")

	for {
		select {
		case <-ctx.Done():
			b.tg.API().StopReceivingUpdates()
			b.log.Info().Msg("update loop stopped")
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(upd)
		}
	}
}

func (b *Bot) handleUpdate(upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("panic", r).Msg("update handler panicked")
		}
	}()

	switch {
	case upd.CallbackQuery != nil:
		b.handleCallback(upd.CallbackQuery)
	case upd.Message == nil:
		return
	case upd.Message.IsCommand():
		b.handleCommand(upd.Message)
	case len(upd.Message.Photo) > 0:
		b.handlePhoto(upd.Message)
	case upd.Message.Text != "":
		b.handleText(upd.Message)
	}
}

func (b *Bot) isOwner(userID int64) bool {
	return userID == b.ownerID
}

// reply sends plain text back to the chat, best-effort.
func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.tg.Send(chatID, text, nil); err != nil {
		b.log.Debug().Err(err).Int64("chat_id", chatID).Msg("reply failed")
	}
}

func (b *Bot) replyWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	if _, err := b.tg.Send(chatID, text, &markup); err != nil {
		b.log.Debug().Err(err).Int64("chat_id", chatID).Msg("reply failed")
	}
}

func (b *Bot) setPending(action string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = action
}

func (b *Bot) takePending() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.pending
	b.pending = pendingNone
	return p
}
