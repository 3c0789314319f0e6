// Package telegram answers travel-vaccination questions sent to a Telegram bot.
package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/hyperjump/vaxguide/internal/cli"
	"github.com/hyperjump/vaxguide/pkg/utils"
)

const usage = `Hi! I answer travel vaccination questions using the guidance document I was given.

Just send me a question, for example:
  Is yellow fever vaccine required for Brazil?

Commands:
  /start  show this message
  /help   show this message`

// sender is the part of the Telegram API the bot uses.
type sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

// Bot relays chat messages to the question-answering pipeline.
type Bot struct {
	api    *bot.Bot
	send   sender
	asker  cli.Asker
	logger *zap.Logger
}

// NewBot creates a bot with the given token. Each text message is answered by asker.
func NewBot(token string, asker cli.Asker, logger *zap.Logger, opts ...bot.Option) (*Bot, error) {
	logger = utils.LoggerOrNop(logger)
	b := &Bot{asker: asker, logger: logger}
	opts = append([]bot.Option{bot.WithDefaultHandler(b.handleUpdate)}, opts...)
	api, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	b.api = api
	b.send = api
	return b, nil
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	b.logger.Info("Starting Telegram bot")
	b.api.Start(ctx)
}

func (b *Bot) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	b.respond(ctx, update.Message.Chat.ID, update.Message.Text)
}

func (b *Bot) respond(ctx context.Context, chatID int64, text string) {
	if !isCommand(text) && strings.TrimSpace(text) != "" {
		_, _ = b.send.SendChatAction(ctx, &bot.SendChatActionParams{
			ChatID: chatID,
			Action: models.ChatActionTyping,
		})
	}
	reply := b.Reply(ctx, text)
	if _, err := b.send.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: reply}); err != nil {
		b.logger.Warn("send message failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// Reply returns the bot's answer to a chat message.
func (b *Bot) Reply(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if isCommand(text) {
		switch command(text) {
		case "/start", "/help":
			return usage
		default:
			return "Unknown command. Send /help for usage."
		}
	}
	if text == "" {
		return "Please enter a question."
	}
	answer, err := b.asker.Answer(ctx, text)
	if err != nil {
		b.logger.Warn("answer failed", zap.Error(err))
		return cli.ErrorMessage(err)
	}
	return answer.Text
}

func isCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

// command returns the command word without arguments or a @botname suffix.
func command(text string) string {
	word := strings.Fields(text)[0]
	if i := strings.Index(word, "@"); i > 0 {
		word = word[:i]
	}
	return strings.ToLower(word)
}
