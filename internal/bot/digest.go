package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// digestTimeout bounds a single scheduled publish.
const digestTimeout = 30 * time.Second

// Digest periodically publishes the current ranking on a cron schedule.
type Digest struct {
	logger *slog.Logger
	cron   *cron.Cron
}

// NewDigest parses pattern (five fields, optional seconds, or descriptors such
// as @daily). An empty pattern returns nil, nil.
func NewDigest(log *slog.Logger, pattern string, b *Bot) (*Digest, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, nil
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "digest"))
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser))
	_, err := c.AddFunc(pattern, func() {
		ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
		defer cancel()
		if err := b.PublishReport(ctx); err != nil {
			log.Error("publish digest failed", slog.Any("error", err))
			return
		}
		log.Info("digest published")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cron pattern: %w", err)
	}
	return &Digest{logger: log, cron: c}, nil
}

func (d *Digest) Start() {
	if d == nil {
		return
	}
	d.cron.Start()
	d.logger.Info("digest scheduled")
}

// Stop halts the scheduler and waits for a running publish or ctx.
func (d *Digest) Stop(ctx context.Context) error {
	if d == nil {
		return nil
	}
	select {
	case <-d.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
