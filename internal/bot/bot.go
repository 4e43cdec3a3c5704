// Package bot connects a chat channel to the recall tracker: it filters
// inbound events, records recalls, publishes reports and answers commands.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/memohai/recallbot/internal/channel"
	"github.com/memohai/recallbot/internal/tracker"
)

// Outcomes recorded in addition to the tracker outcomes.
const (
	OutcomeError         = "error"
	OutcomePublishFailed = "publish_failed"
)

// OutcomeRecorder receives one outcome per processed message.
type OutcomeRecorder interface {
	RecordOutcome(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordOutcome(string) {}

// Options configures a Bot.
type Options struct {
	// TargetID is the monitored channel. Messages from other channels are dropped.
	TargetID string
	// BackfillLimit caps how many past messages the backfill command reads.
	BackfillLimit int
	Recorder      OutcomeRecorder
}

// Bot implements channel.Handler.
type Bot struct {
	logger   *slog.Logger
	tracker  *tracker.Tracker
	endpoint channel.Endpoint
	opts     Options

	mu   sync.Mutex
	conn channel.Connection
}

func New(log *slog.Logger, tr *tracker.Tracker, endpoint channel.Endpoint, opts Options) *Bot {
	if log == nil {
		log = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	return &Bot{
		logger:   log.With(slog.String("component", "bot"), slog.String("channel", endpoint.Type.String())),
		tracker:  tr,
		endpoint: endpoint,
		opts:     opts,
	}
}

// Start connects the receiver. ctx bounds the lifetime of the connection.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		return nil
	}
	if b.endpoint.Receiver == nil {
		return errors.New("channel receiver not configured")
	}
	conn, err := b.endpoint.Receiver.Connect(ctx, b)
	if err != nil {
		return fmt.Errorf("connect %s: %w", b.endpoint.Type, err)
	}
	b.conn = conn
	b.logger.Info("bot started", slog.String("target_id", b.opts.TargetID))
	return nil
}

// Stop disconnects the receiver.
func (b *Bot) Stop(ctx context.Context) error {
	b.mu.Lock()
	conn := b.conn
	b.conn = nil
	b.mu.Unlock()
	if conn == nil {
		return nil
	}
	if err := conn.Stop(ctx); err != nil && !errors.Is(err, channel.ErrStopNotSupported) {
		return fmt.Errorf("stop %s: %w", b.endpoint.Type, err)
	}
	b.logger.Info("bot stopped")
	return nil
}

func (b *Bot) accepts(msg channel.Message) bool {
	if msg.FromSelf || msg.FromBot || msg.ID == "" {
		return false
	}
	if b.opts.TargetID != "" && msg.ChannelID != b.opts.TargetID {
		return false
	}
	return true
}

// HandleMessage processes one inbound message. A publish failure is logged and
// does not undo the recorded recall.
func (b *Bot) HandleMessage(ctx context.Context, msg channel.Message) error {
	if !b.accepts(msg) {
		return nil
	}
	res, err := b.tracker.Process(ctx, tracker.Message{ID: msg.ID, Text: msg.Text})
	if err != nil {
		b.logger.Error("process message failed", slog.String("message_id", msg.ID), slog.Any("error", err))
		b.opts.Recorder.RecordOutcome(OutcomeError)
		return nil
	}
	b.opts.Recorder.RecordOutcome(string(res.Outcome))
	if res.Outcome != tracker.OutcomeRecorded {
		return nil
	}
	if err := b.publish(ctx, res.Report); err != nil {
		b.logger.Error("publish stats failed", slog.String("message_id", msg.ID), slog.Any("error", err))
	}
	return nil
}

// HandleCommand answers stats, clear and backfill.
func (b *Bot) HandleCommand(ctx context.Context, cmd channel.Command) (string, error) {
	if b.opts.TargetID != "" && cmd.ChannelID != "" && cmd.ChannelID != b.opts.TargetID {
		return "This channel is not monitored for recalls.", nil
	}
	b.logger.Info("command", slog.String("name", cmd.Name), slog.String("user_id", cmd.AuthorID))
	switch strings.ToLower(strings.TrimSpace(cmd.Name)) {
	case channel.CommandStats:
		return b.tracker.Report(), nil
	case channel.CommandClear:
		if err := b.tracker.Clear(ctx); err != nil {
			return "", fmt.Errorf("clear stats: %w", err)
		}
		return "Recall statistics cleared.", nil
	case channel.CommandBackfill:
		return b.backfill(ctx)
	default:
		return "", nil
	}
}

func (b *Bot) backfill(ctx context.Context) (string, error) {
	if b.endpoint.History == nil {
		return "Backfill is not supported on this channel.", nil
	}
	if b.opts.BackfillLimit <= 0 {
		return "Backfill is disabled.", nil
	}
	history, err := b.endpoint.History.History(ctx, b.opts.TargetID, b.opts.BackfillLimit)
	if err != nil {
		return "", fmt.Errorf("read history: %w", err)
	}
	msgs := make([]tracker.Message, 0, len(history))
	for _, msg := range history {
		if msg.FromSelf || msg.FromBot || msg.ID == "" {
			continue
		}
		msgs = append(msgs, tracker.Message{ID: msg.ID, Text: msg.Text})
	}
	res, err := b.tracker.Backfill(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("backfill: %w", err)
	}
	return fmt.Sprintf("Scanned %d messages: %d new, %d already counted, %d without a reason.\n\n%s",
		res.Scanned, res.Recorded, res.Duplicate, res.Invalid, res.Report), nil
}

// PublishReport posts the current ranking to the monitored channel.
func (b *Bot) PublishReport(ctx context.Context) error {
	return b.publish(ctx, b.tracker.Report())
}

func (b *Bot) publish(ctx context.Context, text string) error {
	if b.endpoint.Publisher == nil {
		return errors.New("channel publisher not configured")
	}
	if err := b.endpoint.Publisher.Publish(ctx, text); err != nil {
		b.opts.Recorder.RecordOutcome(OutcomePublishFailed)
		return err
	}
	return nil
}
