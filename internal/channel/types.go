// Package channel defines the platform-neutral contracts between chat
// adapters and the recall bot.
package channel

import (
	"strings"
	"time"
)

// Type identifies a chat platform (e.g. discord, telegram, local).
type Type string

func (t Type) String() string {
	return string(t)
}

func normalizeType(raw string) Type {
	return Type(strings.ToLower(strings.TrimSpace(raw)))
}

// Message is one inbound chat message.
type Message struct {
	ID         string
	ChannelID  string
	AuthorID   string
	AuthorName string
	Text       string
	// FromSelf marks messages written by this bot; FromBot any bot account.
	FromSelf   bool
	FromBot    bool
	ReceivedAt time.Time
}

// Command names understood by the bot.
const (
	CommandStats    = "stats"
	CommandClear    = "clear"
	CommandBackfill = "backfill"
)

// Command is a user-issued bot command such as a slash command.
type Command struct {
	Name      string
	ChannelID string
	AuthorID  string
}
