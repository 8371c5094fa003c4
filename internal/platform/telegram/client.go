package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Client wraps the Bot API with the handful of calls the bot needs:
// sends, pins, markup edits and profile lookups. Callers treat every
// method as failure-tolerant.
type Client struct {
	api *tgbotapi.BotAPI
	log zerolog.Logger
}

func NewClient(token string, debug bool, log zerolog.Logger) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = debug
	return &Client{api: api, log: log}, nil
}

// API exposes the underlying bot for the update loop.
func (c *Client) API() *tgbotapi.BotAPI {
	return c.api
}

// Send delivers text to a chat, optionally with an inline keyboard, and
// returns the sent message id.
func (c *Client) Send(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// SendPhoto sends a photo by file id with an optional caption.
func (c *Client) SendPhoto(chatID int64, fileID, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	_, err := c.api.Send(photo)
	return err
}

// Pin pins a message without notifying chat members.
func (c *Client) Pin(chatID int64, messageID int) error {
	_, err := c.api.Request(tgbotapi.PinChatMessageConfig{
		ChatID:              chatID,
		MessageID:           messageID,
		DisableNotification: true,
	})
	return err
}

// EditText replaces the text of a sent message, dropping its keyboard.
func (c *Client) EditText(chatID int64, messageID int, text string) error {
	_, err := c.api.Request(tgbotapi.NewEditMessageText(chatID, messageID, text))
	return err
}

// EditReplyMarkup replaces the inline keyboard of a sent message.
func (c *Client) EditReplyMarkup(chatID int64, messageID int, markup tgbotapi.InlineKeyboardMarkup) error {
	_, err := c.api.Request(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, markup))
	return err
}

// Bio returns the profile biography (or channel description) for a user.
func (c *Client) Bio(userID int64) (string, error) {
	chat, err := c.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: userID},
	})
	if err != nil {
		return "", err
	}
	if chat.Bio != "" {
		return chat.Bio, nil
	}
	return chat.Description, nil
}

// DisplayName resolves a mentionable label for a user: @username when set,
// first name otherwise, a bare id as last resort.
func (c *Client) DisplayName(userID int64) (string, error) {
	chat, err := c.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: userID},
	})
	if err != nil {
		return fmt.Sprintf("ID:%d", userID), err
	}
	if chat.UserName != "" {
		return "@" + chat.UserName, nil
	}
	if chat.FirstName != "" {
		return chat.FirstName, nil
	}
	return fmt.Sprintf("ID:%d", userID), nil
}

// AnswerCallback acknowledges a callback query, optionally as an alert popup.
func (c *Client) AnswerCallback(callbackID, text string, alert bool) {
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = alert
	if _, err := c.api.Request(cb); err != nil {
		c.log.Warn().Err(err).Msg("answerCallbackQuery failed")
	}
}
