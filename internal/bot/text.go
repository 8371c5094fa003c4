package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apperrors "escrow-giveaway-bot/internal/common/errors"
)

// handleText routes free-form messages: an open withdraw session takes the
// text as the payout address, the owner's pending panel edit takes it as
// the new setting, and #msg relays a note to a withdraw requester.
func (b *Bot) handleText(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	if b.redeems.HasSession(userID) {
		b.submitAddress(chatID, userID, text)
		return
	}

	if !b.isOwner(userID) {
		return
	}

	switch b.takePending() {
	case pendingEditKeyword:
		if err := b.settings.SetKeyword(userID, text); err != nil {
			b.replyError(chatID, err)
			return
		}
		b.reply(chatID, fmt.Sprintf("Required bio keyword updated to: %s", text))
		return
	case pendingEditClaim:
		if err := b.settings.SetClaimInstructions(userID, text); err != nil {
			b.replyError(chatID, err)
			return
		}
		b.reply(chatID, "Claim instructions updated.")
		return
	}

	if strings.HasPrefix(text, "#msg ") {
		b.relayOwnerMessage(chatID, text)
	}
}

func (b *Bot) submitAddress(chatID, userID int64, address string) {
	wr, err := b.redeems.SubmitAddress(userID, address)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeValidation {
			// session stays open so the user can resend a valid address
			b.reply(chatID, appErr.Message+" Please send it again.")
			return
		}
		b.replyError(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Withdraw request created: %s. Owner will review and process it.", wr.ID))
}

// relayOwnerMessage handles "#msg <WRID> <text>", forwarding the text to
// the user behind the withdraw request.
func (b *Bot) relayOwnerMessage(chatID int64, text string) {
	parts := strings.SplitN(text, " ", 3)
	if len(parts) < 3 {
		b.reply(chatID, "Usage: #msg <WRID> Your message here")
		return
	}
	requestID, body := parts[1], parts[2]

	wr, err := b.redeems.GetWithdraw(requestID)
	if err != nil {
		b.reply(chatID, "Invalid request id")
		return
	}
	if _, err := b.tg.Send(wr.UserID, fmt.Sprintf("Message from Owner regarding withdraw %s:\n\n%s", wr.ID, body), nil); err != nil {
		b.reply(chatID, "Failed to send message to user.")
		return
	}
	b.reply(chatID, "Message sent to user.")
}

// handlePhoto lets the owner set the prize photo by sending an image with
// the caption "prize".
func (b *Bot) handlePhoto(msg *tgbotapi.Message) {
	if !b.isOwner(msg.From.ID) {
		return
	}
	if !strings.EqualFold(strings.TrimSpace(msg.Caption), "prize") {
		return
	}
	// last entry is the largest rendition
	fileID := msg.Photo[len(msg.Photo)-1].FileID
	if err := b.settings.SetPrizePhoto(msg.From.ID, fileID); err != nil {
		b.replyError(msg.Chat.ID, err)
		return
	}
	b.reply(msg.Chat.ID, "Prize photo saved. It will be attached to winner announcements.")
}
