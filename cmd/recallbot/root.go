package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memohai/recallbot/internal/config"
	"github.com/memohai/recallbot/internal/version"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "recallbot",
		Short: "Recallbot - tallies product recall reasons announced in a chat channel",
		Long: `Recallbot watches one Discord or Telegram channel for recall announcements
("... recalled due to <reason>"), counts each reason once per message and
replies with a ranking of the most frequent reasons.`,
		Version: version.GetInfo(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("CONFIG_PATH"),
		"path to config file (.toml or .yaml); env CONFIG_PATH")

	root.AddCommand(
		newServeCmd(opts),
		newStatsCmd(opts),
		newClearCmd(opts),
		newMigrateCmd(opts),
		newVersionCmd(),
	)
	return root
}

func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Recallbot %s\n", version.GetInfo())
		},
	}
}
