package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apperrors "escrow-giveaway-bot/internal/common/errors"
	"escrow-giveaway-bot/internal/ledger"
	"escrow-giveaway-bot/internal/service/notifications"
)

const timeLayout = "02 Jan 2006 15:04 MST"

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	args := splitArgs(msg.CommandArguments())

	switch msg.Command() {
	case "new_giveaway":
		b.cmdNewGiveaway(chatID, userID, args)
	case "end_giveaway":
		b.cmdEndGiveaway(chatID, userID, args)
	case "pickwinners":
		b.cmdPickWinners(chatID, userID, args)
	case "participants":
		b.cmdParticipants(chatID, userID, args)
	case "addgroup":
		b.cmdAddGroup(chatID, userID, args)
	case "removegroup":
		b.cmdRemoveGroup(chatID, userID, args)
	case "listgroups":
		b.cmdListGroups(chatID, userID)
	case "createredeem":
		b.cmdCreateRedeem(chatID, userID, args)
	case "sendcode":
		b.cmdSendCode(chatID, userID, args)
	case "mycodes":
		b.cmdMyCodes(chatID, userID)
	case "redeem":
		b.cmdRedeem(chatID, userID, args)
	case "withdraw":
		b.cmdWithdraw(chatID, userID, args)
	case "panel":
		b.cmdPanel(chatID, userID)
	case "ping":
		b.reply(chatID, "pong")
	}
}

// replyError surfaces a rejection to the chat; anything else is logged as
// a failure and answered generically.
func (b *Bot) replyError(chatID int64, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok && appErr.IsRejection() {
		b.reply(chatID, appErr.Message)
		return
	}
	b.log.Error().Err(err).Msg("command failed")
	b.reply(chatID, "Something went wrong, try again later.")
}

func (b *Bot) cmdNewGiveaway(chatID, userID int64, args []string) {
	if !b.isOwner(userID) {
		b.reply(chatID, "Owner only.")
		return
	}
	if len(args) < 4 {
		b.reply(chatID, "Usage: /new_giveaway [amount] [endtime] [giveawayid] [no_of_winners]\nExample: /new_giveaway 5$ 2025-08-15 25 1\nAfter sending this, choose winner mode: Auto or Manual (inline).")
		return
	}
	prize, endRaw, gid := args[0], args[1], args[2]
	winners := clampWinners(args[3])

	endsAt, err := parseEndTime(endRaw, time.Now())
	if err != nil || !endsAt.After(time.Now()) {
		b.reply(chatID, "Invalid end time. Use future date like 2025-08-15 or relative +60m.")
		return
	}

	g, err := b.giveaways.Create(userID, gid, prize, endsAt, winners)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.replyWithMarkup(chatID, fmt.Sprintf(
		"Draft created for giveaway %s — Prize: %s\nEnds: %s\nWinners: %d\nChoose winner selection mode:",
		g.ID, g.Prize, g.EndsAt.Format(timeLayout), g.WinnersCount,
	), notifications.ModeKeyboard(g.ID))
}

func (b *Bot) cmdEndGiveaway(chatID, userID int64, args []string) {
	if !b.isOwner(userID) {
		b.reply(chatID, "Owner only.")
		return
	}
	if len(args) < 1 {
		b.reply(chatID, "Usage: /end_giveaway GIVEAWAYID")
		return
	}
	gid := args[0]
	g, err := b.giveaways.Get(gid)
	if err != nil {
		b.reply(chatID, "Giveaway not found")
		return
	}
	if g.Ended {
		b.reply(chatID, "Already ended")
		return
	}
	if err := b.giveaways.End(gid, "manual"); err != nil {
		b.replyError(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Giveaway %s ended by owner.", gid))
}

func (b *Bot) cmdPickWinners(chatID, userID int64, args []string) {
	if !b.isOwner(userID) {
		b.reply(chatID, "Owner only.")
		return
	}
	if len(args) < 2 {
		b.reply(chatID, "Usage: /pickwinners GID user_id1 user_id2 ...")
		return
	}
	gid := args[0]
	var ids []int64
	for _, raw := range args[1:] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			b.reply(chatID, fmt.Sprintf("Bad user id: %s", raw))
			return
		}
		ids = append(ids, id)
	}
	if err := b.giveaways.PickWinners(userID, gid, ids); err != nil {
		b.replyError(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Winners set for %s. Announced to winners.", gid))
}

func (b *Bot) cmdParticipants(chatID, userID int64, args []string) {
	if !b.isOwner(userID) {
		b.reply(chatID, "Owner only.")
		return
	}
	if len(args) < 1 {
		b.reply(chatID, "Usage: /participants GIVEAWAYID")
		return
	}
	g, err := b.giveaways.Get(args[0])
	if err != nil {
		b.reply(chatID, "Giveaway not found")
		return
	}
	if len(g.Participants) == 0 {
		b.reply(chatID, "Participants (0):\nNo participants")
		return
	}
	rows := make([]string, 0, len(g.Participants))
	for _, uid := range g.Participants {
		rows = append(rows, strconv.FormatInt(uid, 10))
	}
	b.reply(chatID, fmt.Sprintf("Participants (%d):\n%s", len(g.Participants), strings.Join(rows, "\n")))
}

func (b *Bot) cmdAddGroup(chatID, userID int64, args []string) {
	if !b.isOwner(userID) {
		b.reply(chatID, "Owner only.")
		return
	}
	if len(args) < 1 {
		b.reply(chatID, "Usage: /addgroup [group_id] (example: -1001234567890)")
		return
	}
	gid, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.reply(chatID, "Bad group id.")
		return
	}
	if err := b.settings.AddGroup(userID, gid); err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeValidation {
			b.reply(chatID, "Group already whitelisted.")
			return
		}
		b.replyError(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Added %d to whitelist. Giveaways will be posted there.", gid))
}

func (b *Bot) cmdRemoveGroup(chatID, userID int64, args []string) {
	if !b.isOwner(userID) {
		b.reply(chatID, "Owner only.")
		return
	}
	if len(args) < 1 {
		b.reply(chatID, "Usage: /removegroup [group_id]")
		return
	}
	gid, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.reply(chatID, "Bad group id.")
		return
	}
	if err := b.settings.RemoveGroup(userID, gid); err != nil {
		b.replyError(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Removed %d from whitelist.", gid))
}

func (b *Bot) cmdListGroups(chatID, userID int64) {
	if !b.isOwner(userID) {
		b.reply(chatID, "Owner only.")
		return
	}
	groups := b.settings.Groups()
	if len(groups) == 0 {
		b.reply(chatID, "No whitelisted groups.")
		return
	}
	rows := make([]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, strconv.FormatInt(g, 10))
	}
	b.reply(chatID, "Whitelisted groups:\n"+strings.Join(rows, "\n"))
}

func (b *Bot) cmdCreateRedeem(chatID, userID int64, args []string) {
	if !b.isOwner(userID) {
		b.reply(chatID, "Owner only.")
		return
	}
	if len(args) < 2 {
		b.reply(chatID, "Usage: /createredeem [amount] [count] [@username?] [giveawayid?]\nExample: /createredeem 100$ 5\n/createredeem 50₹ 1 @username G28")
		return
	}
	amount := args[0]
	count, err := strconv.Atoi(args[1])
	if err != nil {
		count = 1
	}

	var username, giveawayID string
	for _, extra := range args[2:] {
		if strings.HasPrefix(extra, "@") {
			username = extra
		} else {
			giveawayID = extra
		}
	}

	created, err := b.redeems.CreateCodes(userID, amount, count, giveawayID)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	sample := created
	if len(sample) > 10 {
		sample = sample[:10]
	}
	b.reply(chatID, fmt.Sprintf("Created %d redeem code(s). Example codes:\n%s", len(created), strings.Join(sample, "\n")))
	if username != "" {
		b.reply(chatID, "Codes created. To give manually to a user, use /sendcode @username <CODE>")
	}
}

func (b *Bot) cmdSendCode(chatID, userID int64, args []string) {
	if !b.isOwner(userID) {
		b.reply(chatID, "Owner only.")
		return
	}
	if len(args) < 2 {
		b.reply(chatID, "Usage: /sendcode @username CODE")
		return
	}
	username := strings.TrimPrefix(args[0], "@")
	code := strings.ToUpper(args[1])
	if !b.redeems.CodeExists(code) {
		b.reply(chatID, "Code not found")
		return
	}
	b.reply(chatID, fmt.Sprintf("To send code to @%s: ask them to DM the bot and use /redeem %s, or forward them this message manually.", username, code))
}

func (b *Bot) cmdMyCodes(chatID, userID int64) {
	mine := b.redeems.MyCodes(userID)
	if len(mine) == 0 {
		b.reply(chatID, "You have no redeem codes.")
		return
	}
	rows := make([]string, 0, len(mine))
	for _, r := range mine {
		rows = append(rows, fmt.Sprintf("%s | %s | %s", r.Code, r.Amount, r.Status))
	}
	b.reply(chatID, "Your codes:\n"+strings.Join(rows, "\n"))
}

func (b *Bot) cmdRedeem(chatID, userID int64, args []string) {
	if len(args) < 1 {
		b.reply(chatID, "Usage: /redeem <CODE>")
		return
	}
	code := strings.ToUpper(args[0])
	if err := b.redeems.Claim(userID, code); err != nil {
		b.replyError(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Code %s assigned to you. Use /withdraw %s to request payout or click Withdraw button.", code, code))
}

func (b *Bot) cmdWithdraw(chatID, userID int64, args []string) {
	if len(args) < 1 {
		b.reply(chatID, "Usage: /withdraw <CODE>")
		return
	}
	code := strings.ToUpper(args[0])
	r, err := b.redeems.InitiateWithdraw(userID, code)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.replyWithMarkup(chatID, fmt.Sprintf("Choose payout method for code %s (%s)", code, r.Amount), notifications.MethodKeyboard(code))
}

func (b *Bot) cmdPanel(chatID, userID int64) {
	if !b.isOwner(userID) {
		b.reply(chatID, "Owner only.")
		return
	}
	set := b.settings.Snapshot()
	text := fmt.Sprintf(
		"Owner Panel\nTotal Giveaways: %d\nTotal Redeems: %d\nRequired bio keyword: %s\nClaim instructions: %s",
		len(b.giveaways.List()), len(b.redeems.ListCodes(0)), set.RequiredBioKeyword, set.ClaimInstructions,
	)
	b.replyWithMarkup(chatID, text, panelKeyboard())
}

func panelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏ Edit Required Keyword", "op_edit_keyword"),
			tgbotapi.NewInlineKeyboardButtonData("✏ Edit Claim Instructions", "op_edit_claim"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Pick Winners (manual)", "op_pick_winners"),
			tgbotapi.NewInlineKeyboardButtonData("🧾 Create Redeem(s)", "op_create_redeem"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📦 List Redeems", "op_list_redeems"),
			tgbotapi.NewInlineKeyboardButtonData("📜 Show Giveaways", "op_list_giveaways"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Show Withdraws", "op_list_withdraws"),
		),
	)
}

// describeGiveaway renders the one-line panel row for a giveaway.
func describeGiveaway(g ledger.Giveaway) string {
	ended := "no"
	if g.Ended {
		ended = "yes"
	}
	return fmt.Sprintf("%s | %s | participants:%d | ended:%s", g.ID, g.Prize, len(g.Participants), ended)
}
