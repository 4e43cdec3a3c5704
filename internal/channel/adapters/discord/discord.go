// Package discord implements the Discord channel adapter.
package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/memohai/recallbot/internal/channel"
)

// Type is the registered channel.Type identifier for Discord.
const Type channel.Type = "discord"

const (
	// messageLimit is the maximum message length Discord accepts.
	messageLimit = 2000
	// historyPageSize is the largest page the messages endpoint returns.
	historyPageSize = 100

	intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent
)

// restClient is the subset of *discordgo.Session used outside the gateway.
type restClient interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

type Adapter struct {
	logger  *slog.Logger
	cfg     Config
	session *discordgo.Session
	rest    restClient
}

func NewAdapter(log *slog.Logger, cfg Config) (*Adapter, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	session, err := discordgo.New(authToken(cfg.BotToken))
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = intents
	return newAdapter(log, cfg, session, session), nil
}

func newAdapter(log *slog.Logger, cfg Config, session *discordgo.Session, rest restClient) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		logger:  log.With(slog.String("adapter", "discord")),
		cfg:     cfg,
		session: session,
		rest:    rest,
	}
}

func (a *Adapter) Type() channel.Type {
	return Type
}

// Connect opens the gateway and dispatches message and interaction events to
// handler until the connection is stopped.
func (a *Adapter) Connect(ctx context.Context, handler channel.Handler) (channel.Connection, error) {
	if a.session == nil {
		return nil, fmt.Errorf("discord session not configured")
	}
	connCtx, cancel := context.WithCancel(ctx)

	removers := []func(){
		a.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
			a.onReady(s, r)
		}),
		a.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
			a.dispatchMessage(connCtx, handler, selfID(s), m.Message)
		}),
		a.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			a.onInteraction(connCtx, handler, s, i)
		}),
	}
	removeAll := func() {
		for _, remove := range removers {
			remove()
		}
	}

	a.logger.Info("start", slog.String("channel_id", a.cfg.ChannelID))
	if err := a.session.Open(); err != nil {
		removeAll()
		cancel()
		return nil, fmt.Errorf("open discord gateway: %w", err)
	}

	stop := func(context.Context) error {
		a.logger.Info("stop", slog.String("channel_id", a.cfg.ChannelID))
		cancel()
		removeAll()
		return a.session.Close()
	}
	return channel.NewConnection(Type, stop), nil
}

func (a *Adapter) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if r == nil || r.User == nil {
		return
	}
	a.logger.Info("logged in", slog.String("user", r.User.Username), slog.String("user_id", r.User.ID))
	if !a.cfg.RegisterCommands {
		return
	}
	appID := r.User.ID
	if r.Application != nil && r.Application.ID != "" {
		appID = r.Application.ID
	}
	if _, err := s.ApplicationCommandBulkOverwrite(appID, a.cfg.GuildID, slashCommands()); err != nil {
		a.logger.Error("register slash commands failed", slog.Any("error", err))
		return
	}
	a.logger.Info("slash commands registered", slog.String("guild_id", a.cfg.GuildID))
}

func (a *Adapter) dispatchMessage(ctx context.Context, handler channel.Handler, self string, m *discordgo.Message) {
	msg, ok := toMessage(self, m)
	if !ok {
		return
	}
	a.logger.Debug("inbound received",
		slog.String("message_id", msg.ID),
		slog.String("channel_id", msg.ChannelID),
		slog.String("user_id", msg.AuthorID),
		slog.String("text", channel.SummarizeText(msg.Text)),
	)
	if err := handler.HandleMessage(ctx, msg); err != nil {
		a.logger.Error("handle inbound failed", slog.String("message_id", msg.ID), slog.Any("error", err))
	}
}

// Publish sends text to the monitored channel.
func (a *Adapter) Publish(ctx context.Context, text string) error {
	if a.rest == nil {
		return fmt.Errorf("discord session not configured")
	}
	if text == "" {
		return fmt.Errorf("message is required")
	}
	_, err := a.rest.ChannelMessageSend(a.cfg.ChannelID, channel.Truncate(text, messageLimit), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}

// History pages backwards through channelID and returns up to limit messages,
// oldest first.
func (a *Adapter) History(ctx context.Context, channelID string, limit int) ([]channel.Message, error) {
	if a.rest == nil {
		return nil, fmt.Errorf("discord session not configured")
	}
	var (
		collected []*discordgo.Message
		before    string
	)
	for len(collected) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		size := min(historyPageSize, limit-len(collected))
		page, err := a.rest.ChannelMessages(channelID, size, before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("fetch discord history: %w", err)
		}
		if len(page) == 0 {
			break
		}
		collected = append(collected, page...)
		before = page[len(page)-1].ID
		if len(page) < size {
			break
		}
	}

	self := selfID(a.session)
	out := make([]channel.Message, 0, len(collected))
	for i := len(collected) - 1; i >= 0; i-- {
		if msg, ok := toMessage(self, collected[i]); ok {
			out = append(out, msg)
		}
	}
	return out, nil
}

func selfID(s *discordgo.Session) string {
	if s == nil || s.State == nil || s.State.User == nil {
		return ""
	}
	return s.State.User.ID
}

func toMessage(self string, m *discordgo.Message) (channel.Message, bool) {
	if m == nil || m.ID == "" {
		return channel.Message{}, false
	}
	msg := channel.Message{
		ID:         m.ID,
		ChannelID:  m.ChannelID,
		Text:       m.Content,
		ReceivedAt: m.Timestamp,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorName = m.Author.Username
		msg.FromBot = m.Author.Bot
		msg.FromSelf = self != "" && m.Author.ID == self
	}
	return msg, true
}
