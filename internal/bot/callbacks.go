package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apperrors "escrow-giveaway-bot/internal/common/errors"
	"escrow-giveaway-bot/internal/ledger"
	"escrow-giveaway-bot/internal/service/notifications"
)

func (b *Bot) handleCallback(cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		b.tg.AnswerCallback(cq.ID, "", false)
		return
	}
	data := cq.Data
	chatID := cq.Message.Chat.ID
	userID := cq.From.ID

	switch {
	case strings.HasPrefix(data, notifications.CallbackCreateMode):
		b.cbCreateMode(cq, strings.TrimPrefix(data, notifications.CallbackCreateMode))
	case strings.HasPrefix(data, notifications.CallbackJoin):
		b.cbJoin(cq, strings.TrimPrefix(data, notifications.CallbackJoin))
	case strings.HasPrefix(data, notifications.CallbackInfo):
		b.cbInfo(cq, strings.TrimPrefix(data, notifications.CallbackInfo))
	case strings.HasPrefix(data, notifications.CallbackWithdrawInit):
		b.cbWithdrawInit(cq, strings.TrimPrefix(data, notifications.CallbackWithdrawInit))
	case strings.HasPrefix(data, notifications.CallbackWithdrawMethod):
		b.cbWithdrawMethod(cq, strings.TrimPrefix(data, notifications.CallbackWithdrawMethod))
	case strings.HasPrefix(data, notifications.CallbackApprove):
		b.cbResolve(cq, strings.TrimPrefix(data, notifications.CallbackApprove), true)
	case strings.HasPrefix(data, notifications.CallbackReject):
		b.cbResolve(cq, strings.TrimPrefix(data, notifications.CallbackReject), false)
	case strings.HasPrefix(data, notifications.CallbackMessageUser):
		b.cbMessageUser(cq, strings.TrimPrefix(data, notifications.CallbackMessageUser))
	case data == notifications.CallbackMyCodes:
		b.cmdMyCodes(chatID, userID)
		b.tg.AnswerCallback(cq.ID, "", false)
	case strings.HasPrefix(data, "op_"):
		b.cbPanelAction(cq, data)
	default:
		b.tg.AnswerCallback(cq.ID, "", false)
	}
}

// answerError surfaces a rejection as a callback answer; popups and guard
// messages show as alerts so they are not missed.
func (b *Bot) answerError(cq *tgbotapi.CallbackQuery, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok && appErr.IsRejection() {
		b.tg.AnswerCallback(cq.ID, appErr.Message, true)
		return
	}
	b.log.Error().Err(err).Str("data", cq.Data).Msg("callback failed")
	b.tg.AnswerCallback(cq.ID, "Something went wrong, try again later.", false)
}

func (b *Bot) cbCreateMode(cq *tgbotapi.CallbackQuery, tail string) {
	if !b.isOwner(cq.From.ID) {
		b.tg.AnswerCallback(cq.ID, "Owner only.", false)
		return
	}
	parts := strings.SplitN(tail, ":", 2)
	if len(parts) != 2 {
		b.tg.AnswerCallback(cq.ID, "", false)
		return
	}
	gid, mode := parts[0], ledger.SelectionMode(parts[1])

	if err := b.giveaways.Activate(cq.From.ID, gid, mode, cq.Message.Chat.ID); err != nil {
		b.answerError(cq, err)
		return
	}
	if err := b.tg.EditText(cq.Message.Chat.ID, cq.Message.MessageID, fmt.Sprintf("Giveaway %s created & posted. Mode: %s", gid, mode)); err != nil {
		b.log.Debug().Err(err).Msg("draft message edit failed")
	}
	b.tg.AnswerCallback(cq.ID, "", false)
}

func (b *Bot) cbJoin(cq *tgbotapi.CallbackQuery, gid string) {
	if err := b.giveaways.Join(cq.From.ID, gid); err != nil {
		b.answerError(cq, err)
		return
	}
	b.tg.AnswerCallback(cq.ID, "You're in! Good luck 🎉", false)
}

func (b *Bot) cbInfo(cq *tgbotapi.CallbackQuery, gid string) {
	g, err := b.giveaways.Get(gid)
	if err != nil {
		b.tg.AnswerCallback(cq.ID, "Giveaway not found.", false)
		return
	}
	mode := string(g.Mode)
	if mode == "" {
		mode = "not set"
	}
	b.tg.AnswerCallback(cq.ID, fmt.Sprintf(
		"Giveaway %s\nPrize: %s\nParticipants: %d\nWinners: %d\nMode: %s\nEnds: %s",
		g.ID, g.Prize, len(g.Participants), g.WinnersCount, mode, g.EndsAt.Format(timeLayout),
	), true)
}

func (b *Bot) cbWithdrawInit(cq *tgbotapi.CallbackQuery, code string) {
	r, err := b.redeems.InitiateWithdraw(cq.From.ID, code)
	if err != nil {
		b.answerError(cq, err)
		return
	}
	b.replyWithMarkup(cq.Message.Chat.ID, fmt.Sprintf("Choose payout method for code %s (%s)", code, r.Amount), notifications.MethodKeyboard(code))
	b.tg.AnswerCallback(cq.ID, "", false)
}

func (b *Bot) cbWithdrawMethod(cq *tgbotapi.CallbackQuery, tail string) {
	parts := strings.SplitN(tail, ":", 2)
	if len(parts) != 2 {
		b.tg.AnswerCallback(cq.ID, "", false)
		return
	}
	code, method := parts[0], ledger.PayoutMethod(parts[1])

	if err := b.redeems.ChooseMethod(cq.From.ID, code, method); err != nil {
		b.answerError(cq, err)
		return
	}
	b.reply(cq.Message.Chat.ID, fmt.Sprintf("You chose %s. Please send your wallet address / UPI id now (as a message).", method))
	b.tg.AnswerCallback(cq.ID, "", false)
}

func (b *Bot) cbResolve(cq *tgbotapi.CallbackQuery, requestID string, approve bool) {
	if !b.isOwner(cq.From.ID) {
		b.tg.AnswerCallback(cq.ID, "Owner only.", false)
		return
	}
	var (
		wr  ledger.WithdrawRequest
		err error
	)
	if approve {
		wr, err = b.redeems.Approve(cq.From.ID, requestID)
	} else {
		wr, err = b.redeems.Reject(cq.From.ID, requestID)
	}
	if err != nil {
		b.answerError(cq, err)
		return
	}
	if approve {
		b.reply(cq.Message.Chat.ID, fmt.Sprintf("Request %s approved and marked paid.", wr.ID))
	} else {
		b.reply(cq.Message.Chat.ID, fmt.Sprintf("Request %s rejected. Code returned to unused.", wr.ID))
	}
	b.tg.AnswerCallback(cq.ID, "", false)
}

func (b *Bot) cbMessageUser(cq *tgbotapi.CallbackQuery, requestID string) {
	if !b.isOwner(cq.From.ID) {
		b.tg.AnswerCallback(cq.ID, "Owner only.", false)
		return
	}
	if _, err := b.redeems.GetWithdraw(requestID); err != nil {
		b.answerError(cq, err)
		return
	}
	b.reply(cq.Message.Chat.ID, fmt.Sprintf("Reply to me now with message to user for request %s. Start your reply with: #msg %s Your message here", requestID, requestID))
	b.tg.AnswerCallback(cq.ID, "", false)
}

func (b *Bot) cbPanelAction(cq *tgbotapi.CallbackQuery, action string) {
	if !b.isOwner(cq.From.ID) {
		b.tg.AnswerCallback(cq.ID, "Owner only.", false)
		return
	}
	chatID := cq.Message.Chat.ID

	switch action {
	case "op_edit_keyword":
		b.setPending(pendingEditKeyword)
		b.reply(chatID, "Send new required bio keyword (e.g., @TrustlyEscrow)")
	case "op_edit_claim":
		b.setPending(pendingEditClaim)
		b.reply(chatID, "Send new claim instructions message (plain text).")
	case "op_pick_winners":
		b.reply(chatID, "Use /pickwinners GIVEAWAY_ID user_id1 [user_id2 ...] to set winners.")
	case "op_create_redeem":
		b.reply(chatID, "Usage:\n/createredeem [amount] [count] [optional @username] [optional giveawayid]")
	case "op_list_redeems":
		rows := make([]string, 0, 30)
		for _, r := range b.redeems.ListCodes(30) {
			assigned := "-"
			if r.AssignedTo != 0 {
				assigned = fmt.Sprintf("%d", r.AssignedTo)
			}
			rows = append(rows, fmt.Sprintf("%s | %s | %s | assigned:%s", r.Code, r.Amount, r.Status, assigned))
		}
		b.reply(chatID, "Recent redeems:\n"+orPlaceholder(rows, "No redeems"))
	case "op_list_giveaways":
		var rows []string
		for _, g := range b.giveaways.List() {
			rows = append(rows, describeGiveaway(g))
		}
		b.reply(chatID, "Giveaways:\n"+orPlaceholder(rows, "No giveaways"))
	case "op_list_withdraws":
		var rows []string
		for _, w := range b.redeems.ListWithdraws(50) {
			rows = append(rows, fmt.Sprintf("%s | %d | %s | %s | %s", w.ID, w.UserID, w.Amount, w.Method, w.Status))
		}
		b.reply(chatID, "Withdraw requests:\n"+orPlaceholder(rows, "No withdraws"))
	}
	b.tg.AnswerCallback(cq.ID, "", false)
}

func orPlaceholder(rows []string, placeholder string) string {
	if len(rows) == 0 {
		return placeholder
	}
	return strings.Join(rows, "\n")
}
