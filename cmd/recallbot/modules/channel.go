package modules

import (
	"fmt"
	"log/slog"
	"os"

	"go.uber.org/fx"

	"github.com/memohai/recallbot/internal/channel"
	"github.com/memohai/recallbot/internal/channel/adapters/discord"
	"github.com/memohai/recallbot/internal/channel/adapters/local"
	"github.com/memohai/recallbot/internal/channel/adapters/telegram"
	"github.com/memohai/recallbot/internal/config"
)

var ChannelModule = fx.Module(
	"channel",
	fx.Provide(
		provideChannelRegistry,
		provideEndpoint,
	),
)

// ---------------------------------------------------------------------------
// channel providers
// ---------------------------------------------------------------------------

// provideChannelRegistry registers the adapter for the configured platform
// only, since the chat adapters need credentials to be constructed.
func provideChannelRegistry(log *slog.Logger, cfg config.Config) (*channel.Registry, error) {
	registry := channel.NewRegistry()
	switch cfg.Channel.Type {
	case discord.Type.String():
		adapter, err := discord.NewAdapter(log, discord.Config{
			BotToken:         cfg.Discord.Token,
			ChannelID:        cfg.Channel.TargetID,
			GuildID:          cfg.Discord.GuildID,
			RegisterCommands: cfg.Discord.RegisterCommands,
		})
		if err != nil {
			return nil, err
		}
		registry.MustRegister(adapter)
	case telegram.Type.String():
		adapter, err := telegram.NewAdapter(log, telegram.Config{
			BotToken: cfg.Telegram.Token,
			ChatID:   cfg.Channel.TargetID,
		})
		if err != nil {
			return nil, err
		}
		registry.MustRegister(adapter)
	case local.Type.String():
		registry.MustRegister(local.NewAdapter(log, os.Stdin, os.Stdout))
	default:
		return nil, fmt.Errorf("%w: %s", channel.ErrUnknownType, cfg.Channel.Type)
	}
	return registry, nil
}

func provideEndpoint(registry *channel.Registry, cfg config.Config) (channel.Endpoint, error) {
	return registry.Endpoint(cfg.Channel.Type)
}
