// Package local implements a line-based console channel for development:
// every input line is a message, lines starting with "/" are commands.
package local

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/memohai/recallbot/internal/channel"
)

// Type is the registered channel.Type identifier for the console channel.
const Type channel.Type = "local"

// ChannelID is the fixed id of the single console channel.
const ChannelID = "local"

type Adapter struct {
	logger *slog.Logger
	in     io.Reader
	out    io.Writer
	mu     sync.Mutex
	newID  func() string
}

func NewAdapter(log *slog.Logger, in io.Reader, out io.Writer) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		logger: log.With(slog.String("adapter", "local")),
		in:     in,
		out:    out,
		newID:  uuid.NewString,
	}
}

func (a *Adapter) Type() channel.Type {
	return Type
}

// Connect reads lines until EOF or until the connection is stopped. A read
// blocked on the underlying reader only returns once the reader does.
func (a *Adapter) Connect(ctx context.Context, handler channel.Handler) (channel.Connection, error) {
	connCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		scanner := bufio.NewScanner(a.in)
		for scanner.Scan() {
			if connCtx.Err() != nil {
				return
			}
			a.dispatch(connCtx, handler, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			a.logger.Error("read input failed", slog.Any("error", err))
		}
	}()

	stop := func(context.Context) error {
		cancel()
		return nil
	}
	return &connection{BaseConnection: channel.NewConnection(Type, stop), done: done}, nil
}

// connection exposes Done so callers can wait for input to be drained.
type connection struct {
	*channel.BaseConnection
	done chan struct{}
}

func (c *connection) Done() <-chan struct{} {
	return c.done
}

func (a *Adapter) dispatch(ctx context.Context, handler channel.Handler, line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	if name, ok := strings.CutPrefix(strings.TrimSpace(line), "/"); ok {
		reply, err := handler.HandleCommand(ctx, channel.Command{Name: strings.ToLower(name), ChannelID: ChannelID})
		if err != nil {
			reply = "Error: " + err.Error()
		}
		if reply != "" {
			if err := a.Publish(ctx, reply); err != nil {
				a.logger.Error("reply command failed", slog.Any("error", err))
			}
		}
		return
	}
	msg := channel.Message{
		ID:         a.newID(),
		ChannelID:  ChannelID,
		AuthorID:   "console",
		AuthorName: "console",
		Text:       line,
		ReceivedAt: time.Now().UTC(),
	}
	if err := handler.HandleMessage(ctx, msg); err != nil {
		a.logger.Error("handle inbound failed", slog.String("message_id", msg.ID), slog.Any("error", err))
	}
}

// Publish writes text followed by a newline.
func (a *Adapter) Publish(_ context.Context, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := fmt.Fprintln(a.out, text); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
