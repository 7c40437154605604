package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const registeredReply = "Registered!"

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Telegram sends notifications to one chat and answers /start so the
// operator can discover the chat id to configure.
type Telegram struct {
	bot    botAPI
	chatID int64
	logger *zap.Logger
}

// NewTelegram connects to the bot API with token. A chatID of 0 disables
// delivery; /start registration still works.
func NewTelegram(token string, chatID int64, logger *zap.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram: %w", err)
	}
	return newTelegram(bot, chatID, logger), nil
}

func newTelegram(bot botAPI, chatID int64, logger *zap.Logger) *Telegram {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Telegram{bot: bot, chatID: chatID, logger: logger}
}

func (t *Telegram) Notify(_ context.Context, text string) error {
	if t.chatID == 0 {
		t.logger.Debug("telegram chat id not configured, dropping notification")
		return nil
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// Listen answers /start messages until ctx is done.
func (t *Telegram) Listen(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.bot.GetUpdatesChan(u)
	defer t.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			msg := update.Message
			if msg == nil || msg.Chat == nil || !msg.IsCommand() || msg.Command() != "start" {
				continue
			}
			t.logger.Info("telegram chat registered", zap.Int64("chat_id", msg.Chat.ID))
			if _, err := t.bot.Send(tgbotapi.NewMessage(msg.Chat.ID, registeredReply)); err != nil {
				t.logger.Warn("reply to /start failed", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
			}
		}
	}
}
