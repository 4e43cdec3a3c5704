package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Config holds the Telegram bot token and the monitored chat, given either as
// a numeric chat id or as a public @channelname.
type Config struct {
	BotToken string
	ChatID   string
}

func (c Config) normalized() (Config, error) {
	c.BotToken = strings.TrimSpace(c.BotToken)
	c.ChatID = strings.TrimSpace(c.ChatID)
	if c.BotToken == "" {
		return Config{}, errors.New("telegram bot token is required")
	}
	if c.ChatID == "" {
		return Config{}, errors.New("telegram chat id is required")
	}
	if !strings.HasPrefix(c.ChatID, "@") {
		if _, err := strconv.ParseInt(c.ChatID, 10, 64); err != nil {
			return Config{}, fmt.Errorf("telegram chat id must be @username or a numeric id")
		}
	}
	return c, nil
}

func newTextMessage(target, text string) (tgbotapi.MessageConfig, error) {
	if strings.HasPrefix(target, "@") {
		return tgbotapi.NewMessageToChannel(target, text), nil
	}
	chatID, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("telegram target must be @username or chat_id")
	}
	return tgbotapi.NewMessage(chatID, text), nil
}
