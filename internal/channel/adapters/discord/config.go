package discord

import (
	"errors"
	"strings"
)

// Config is the Discord side of the bot configuration.
type Config struct {
	BotToken  string
	ChannelID string
	// GuildID scopes slash command registration; empty registers globally.
	GuildID          string
	RegisterCommands bool
}

func (c Config) normalized() (Config, error) {
	c.BotToken = strings.TrimSpace(c.BotToken)
	c.ChannelID = strings.TrimSpace(c.ChannelID)
	c.GuildID = strings.TrimSpace(c.GuildID)
	if c.BotToken == "" {
		return Config{}, errors.New("discord bot token is required")
	}
	if c.ChannelID == "" {
		return Config{}, errors.New("discord channel id is required")
	}
	return c, nil
}

// authToken adds the Bot prefix the REST and gateway APIs expect.
func authToken(token string) string {
	if strings.HasPrefix(token, "Bot ") {
		return token
	}
	return "Bot " + token
}
