package notifications

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"escrow-giveaway-bot/internal/ledger"
)

// Callback data prefixes shared between outgoing keyboards and the update
// dispatcher.
const (
	CallbackJoin           = "gw_join:"
	CallbackInfo           = "gw_info:"
	CallbackMyCodes        = "mycodes"
	CallbackWithdrawInit   = "withdraw_init:"
	CallbackWithdrawMethod = "withdraw_method:"
	CallbackApprove        = "wr_approve:"
	CallbackReject         = "wr_reject:"
	CallbackMessageUser    = "wr_msg:"
	CallbackCreateMode     = "create_mode:"
)

// AnnouncementKeyboard is the participate/participants keyboard attached to
// every posted giveaway announcement.
func AnnouncementKeyboard(giveawayID string, participants int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎉 Participate", CallbackJoin+giveawayID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("📜 Participants: %d", participants), CallbackInfo+giveawayID),
		),
	)
}

// WithdrawKeyboard offers the withdraw and my-codes shortcuts on a DM that
// delivers a code.
func WithdrawKeyboard(code string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💸 Withdraw", CallbackWithdrawInit+code),
			tgbotapi.NewInlineKeyboardButtonData("📜 My Codes", CallbackMyCodes),
		),
	)
}

// MethodKeyboard lists the payout method choices for a code.
func MethodKeyboard(code string) tgbotapi.InlineKeyboardMarkup {
	row := func(label string, method ledger.PayoutMethod) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(label, CallbackWithdrawMethod+code+":"+string(method))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			row("USDT BEP20", ledger.MethodUSDTBEP20),
			row("USDT TRC20", ledger.MethodUSDTTRC20),
		),
		tgbotapi.NewInlineKeyboardRow(
			row("USDT POLYGON", ledger.MethodUSDTPolygon),
			row("USDT TON", ledger.MethodUSDTTON),
		),
		tgbotapi.NewInlineKeyboardRow(
			row("UPI (INR)", ledger.MethodUPI),
		),
	)
}

// ReviewKeyboard is the owner's approve/reject/message keyboard for a
// withdraw request.
func ReviewKeyboard(requestID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve & Mark Paid", CallbackApprove+requestID),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", CallbackReject+requestID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Message User", CallbackMessageUser+requestID),
		),
	)
}

// ModeKeyboard asks the owner to pick the winner selection mode for a draft.
func ModeKeyboard(giveawayID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Auto (bot selects winners)", CallbackCreateMode+giveawayID+":auto"),
			tgbotapi.NewInlineKeyboardButtonData("Manual (owner picks winners)", CallbackCreateMode+giveawayID+":manual"),
		),
	)
}
