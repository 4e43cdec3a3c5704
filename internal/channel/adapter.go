package channel

import (
	"context"
	"errors"
	"sync/atomic"
)

var (
	ErrStopNotSupported = errors.New("channel connection stop not supported")
	ErrUnknownType      = errors.New("unsupported channel type")
)

// Handler consumes inbound events from a Receiver.
type Handler interface {
	HandleMessage(ctx context.Context, msg Message) error
	// HandleCommand returns the reply text the adapter sends back.
	HandleCommand(ctx context.Context, cmd Command) (string, error)
}

type Adapter interface {
	Type() Type
}

// Publisher posts text into the monitored channel.
type Publisher interface {
	Publish(ctx context.Context, text string) error
}

// Receiver connects to the platform and feeds events to handler until the
// returned connection is stopped.
type Receiver interface {
	Connect(ctx context.Context, handler Handler) (Connection, error)
}

// HistoryReader returns up to limit past messages of channelID, oldest first.
type HistoryReader interface {
	History(ctx context.Context, channelID string, limit int) ([]Message, error)
}

type Connection interface {
	ChannelType() Type
	Stop(ctx context.Context) error
	Running() bool
}

type BaseConnection struct {
	channelType Type
	stop        func(ctx context.Context) error
	running     atomic.Bool
}

func NewConnection(channelType Type, stop func(ctx context.Context) error) *BaseConnection {
	conn := &BaseConnection{
		channelType: channelType,
		stop:        stop,
	}
	conn.running.Store(true)
	return conn
}

func (c *BaseConnection) ChannelType() Type {
	return c.channelType
}

func (c *BaseConnection) Stop(ctx context.Context) error {
	if c.stop == nil {
		return ErrStopNotSupported
	}
	if !c.running.Load() {
		return nil
	}
	err := c.stop(ctx)
	if err == nil {
		c.running.Store(false)
	}
	return err
}

func (c *BaseConnection) Running() bool {
	return c.running.Load()
}
