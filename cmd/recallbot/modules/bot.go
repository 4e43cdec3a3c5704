package modules

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/memohai/recallbot/internal/bot"
	"github.com/memohai/recallbot/internal/channel"
	"github.com/memohai/recallbot/internal/channel/adapters/local"
	"github.com/memohai/recallbot/internal/config"
	"github.com/memohai/recallbot/internal/metrics"
	"github.com/memohai/recallbot/internal/tracker"
)

var BotModule = fx.Module(
	"bot",
	fx.Provide(
		provideBot,
		provideDigest,
	),
	fx.Invoke(startBot),
)

// ---------------------------------------------------------------------------
// bot runtime
// ---------------------------------------------------------------------------

func provideBot(log *slog.Logger, cfg config.Config, tr *tracker.Tracker, endpoint channel.Endpoint, m *metrics.Metrics) *bot.Bot {
	target := cfg.Channel.TargetID
	if endpoint.Type == local.Type && target == "" {
		target = local.ChannelID
	}
	return bot.New(log, tr, endpoint, bot.Options{
		TargetID:      target,
		BackfillLimit: cfg.Discord.BackfillLimit,
		Recorder:      m,
	})
}

func provideDigest(log *slog.Logger, cfg config.Config, b *bot.Bot) (*bot.Digest, error) {
	return bot.NewDigest(log, cfg.Report.Schedule, b)
}

func startBot(lc fx.Lifecycle, log *slog.Logger, b *bot.Bot, digest *bot.Digest) {
	// The start context expires once fx finishes starting, so the
	// connection gets its own.
	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := b.Start(runCtx); err != nil {
				return err
			}
			digest.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			defer cancel()
			if err := digest.Stop(ctx); err != nil {
				log.Warn("digest stop failed", slog.Any("error", err))
			}
			return b.Stop(ctx)
		},
	})
}
