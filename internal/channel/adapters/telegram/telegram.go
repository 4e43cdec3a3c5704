// Package telegram implements the Telegram channel adapter.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/memohai/recallbot/internal/channel"
)

// Type is the registered channel.Type identifier for Telegram.
const Type channel.Type = "telegram"

// messageLimit is the maximum text length Telegram accepts.
const messageLimit = 4096

// botAPI is the subset of *tgbotapi.BotAPI used for sending.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Adapter struct {
	logger *slog.Logger
	cfg    Config

	mu  sync.Mutex
	api botAPI
}

func NewAdapter(log *slog.Logger, cfg Config) (*Adapter, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		logger: log.With(slog.String("adapter", "telegram")),
		cfg:    cfg,
	}, nil
}

func (a *Adapter) Type() channel.Type {
	return Type
}

func (a *Adapter) Connect(ctx context.Context, handler channel.Handler) (channel.Connection, error) {
	a.logger.Info("start", slog.String("chat_id", a.cfg.ChatID))
	if err := tgbotapi.SetLogger(&slogBotLogger{log: a.logger}); err != nil {
		a.logger.Warn("set telegram logger failed", slog.Any("error", err))
	}
	bot, err := tgbotapi.NewBotAPI(a.cfg.BotToken)
	if err != nil {
		a.logger.Error("create bot failed", slog.Any("error", err))
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	a.mu.Lock()
	a.api = bot
	a.mu.Unlock()

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := bot.GetUpdatesChan(updateConfig)
	connCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-connCtx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					a.logger.Info("updates channel closed")
					return
				}
				a.dispatch(connCtx, handler, bot.Self.ID, update)
			}
		}
	}()

	var once sync.Once
	stop := func(stopCtx context.Context) error {
		once.Do(func() {
			a.logger.Info("stop", slog.String("chat_id", a.cfg.ChatID))
			cancel()
			bot.StopReceivingUpdates()
		})
		select {
		case <-done:
			return nil
		case <-stopCtx.Done():
			return stopCtx.Err()
		}
	}
	return channel.NewConnection(Type, stop), nil
}

func (a *Adapter) dispatch(ctx context.Context, handler channel.Handler, selfID int64, update tgbotapi.Update) {
	m := update.Message
	if m == nil {
		m = update.ChannelPost
	}
	if m == nil {
		return
	}
	if m.IsCommand() {
		a.dispatchCommand(ctx, handler, m)
		return
	}
	msg, ok := a.toMessage(selfID, m)
	if !ok {
		return
	}
	a.logger.Debug("inbound received",
		slog.String("message_id", msg.ID),
		slog.String("chat_id", msg.ChannelID),
		slog.String("user_id", msg.AuthorID),
		slog.String("text", channel.SummarizeText(msg.Text)),
	)
	if err := handler.HandleMessage(ctx, msg); err != nil {
		a.logger.Error("handle inbound failed", slog.String("message_id", msg.ID), slog.Any("error", err))
	}
}

func (a *Adapter) dispatchCommand(ctx context.Context, handler channel.Handler, m *tgbotapi.Message) {
	cmd := channel.Command{
		Name:      strings.ToLower(m.Command()),
		ChannelID: a.chatID(m.Chat),
	}
	if m.From != nil {
		cmd.AuthorID = strconv.FormatInt(m.From.ID, 10)
	}
	reply, err := handler.HandleCommand(ctx, cmd)
	if err != nil {
		reply = "Error: " + err.Error()
	}
	if strings.TrimSpace(reply) == "" || m.Chat == nil {
		return
	}
	if err := a.send(strconv.FormatInt(m.Chat.ID, 10), reply); err != nil {
		a.logger.Error("reply command failed", slog.String("command", cmd.Name), slog.Any("error", err))
	}
}

// toMessage prefixes message ids with the chat id since Telegram numbers
// messages per chat.
func (a *Adapter) toMessage(selfID int64, m *tgbotapi.Message) (channel.Message, bool) {
	if m == nil || m.Chat == nil {
		return channel.Message{}, false
	}
	text := m.Text
	if strings.TrimSpace(text) == "" {
		text = m.Caption
	}
	msg := channel.Message{
		ID:         strconv.FormatInt(m.Chat.ID, 10) + ":" + strconv.Itoa(m.MessageID),
		ChannelID:  a.chatID(m.Chat),
		Text:       text,
		ReceivedAt: time.Unix(int64(m.Date), 0).UTC(),
	}
	if m.From != nil {
		msg.AuthorID = strconv.FormatInt(m.From.ID, 10)
		msg.AuthorName = m.From.UserName
		msg.FromBot = m.From.IsBot
		msg.FromSelf = selfID != 0 && m.From.ID == selfID
	}
	return msg, true
}

// chatID reports the configured @channelname for the monitored public
// channel so inbound ids compare equal to the configured target.
func (a *Adapter) chatID(chat *tgbotapi.Chat) string {
	if chat == nil {
		return ""
	}
	if strings.HasPrefix(a.cfg.ChatID, "@") && chat.UserName != "" && strings.EqualFold("@"+chat.UserName, a.cfg.ChatID) {
		return a.cfg.ChatID
	}
	return strconv.FormatInt(chat.ID, 10)
}

// Publish sends text to the monitored chat.
func (a *Adapter) Publish(_ context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("message is required")
	}
	return a.send(a.cfg.ChatID, text)
}

func (a *Adapter) send(target, text string) error {
	api, err := a.client()
	if err != nil {
		return err
	}
	message, err := newTextMessage(target, channel.Truncate(text, messageLimit))
	if err != nil {
		return err
	}
	if _, err := api.Send(message); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func (a *Adapter) client() (botAPI, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.api != nil {
		return a.api, nil
	}
	bot, err := tgbotapi.NewBotAPI(a.cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	a.api = bot
	return bot, nil
}
