// Package telegram runs the bot surface over the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	jsoniter "github.com/json-iterator/go"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/channels"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/config"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/gateway"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config carries the credentials from the "telegram" channel block.
type Config struct {
	// Token is the secret bot token issued by @BotFather.
	Token string `json:"token"`
}

// Channel long-polls Telegram and routes each chat to its own session.
type Channel struct {
	bot          *tgbotapi.BotAPI
	gw           *gateway.Gateway
	messageLimit int
}

func New(cfg Config, gw *gateway.Gateway, messageLimit int) (*Channel, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	slog.Info("telegram bot authorized", "username", bot.Self.UserName)

	return &Channel{
		bot:          bot,
		gw:           gw,
		messageLimit: messageLimit,
	}, nil
}

func (c *Channel) Name() string {
	return "telegram"
}

// Start consumes updates until the context is cancelled.
func (c *Channel) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := c.bot.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			c.handle(ctx, update.Message)
		}
	}
}

func (c *Channel) handle(ctx context.Context, msg *tgbotapi.Message) {
	session := gateway.SessionContext{
		Channel:    c.Name(),
		SessionKey: strconv.FormatInt(msg.Chat.ID, 10),
	}

	reply, err := c.gw.Dispatch(ctx, session, msg.Text)
	if err != nil {
		reply = "Sorry, something went wrong processing your message."
	}

	for _, chunk := range splitMessage(reply, c.messageLimit) {
		out := tgbotapi.NewMessage(msg.Chat.ID, chunk)
		if _, err := c.bot.Send(out); err != nil {
			slog.Error("failed to send telegram message", "chat", msg.Chat.ID, "error", err.Error())
			return
		}
	}
}

// splitMessage cuts text into chunks below Telegram's per-message limit,
// preferring newline boundaries.
func splitMessage(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, string(runes))
			break
		}
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	return chunks
}

func init() {
	channels.Register("telegram", func(raw jsoniter.RawMessage, gw *gateway.Gateway, sysCfg *config.SystemConfig) (channels.Channel, error) {
		var cfg Config
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("invalid telegram config: %w", err)
		}
		if cfg.Token == "" {
			return nil, fmt.Errorf("telegram channel requires a token")
		}
		return New(cfg, gw, sysCfg.TelegramMessageLimit)
	})
}
