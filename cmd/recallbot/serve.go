package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/memohai/recallbot/cmd/recallbot/modules"
	"github.com/memohai/recallbot/internal/config"
	"github.com/memohai/recallbot/internal/version"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to the chat channel and start tallying recalls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Starting Recallbot %s\n", version.GetInfo())
			app := newApp(cfg)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func newApp(cfg config.Config) *fx.App {
	return fx.New(appOptions(cfg)...)
}

func appOptions(cfg config.Config) []fx.Option {
	return []fx.Option{
		fx.Supply(cfg),
		modules.InfraModule,
		modules.ChannelModule,
		modules.BotModule,
		modules.ServerModule,
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	}
}
