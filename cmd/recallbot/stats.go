package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/memohai/recallbot/internal/config"
	"github.com/memohai/recallbot/internal/logger"
	"github.com/memohai/recallbot/internal/storage"
	"github.com/memohai/recallbot/internal/tally"
	"github.com/memohai/recallbot/internal/tracker"
)

const commandTimeout = 30 * time.Second

// openTracker loads the configured store without connecting to chat.
func openTracker(ctx context.Context, cfg config.Config) (*tracker.Tracker, func(), error) {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	backend, err := storage.Open(ctx, logger.L, cfg)
	if err != nil {
		return nil, nil, err
	}
	store := tally.New(backend.Persister, tally.WithLogger(logger.L))
	if err := store.Load(ctx); err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("load tally: %w", err)
	}
	return tracker.New(logger.L, store), backend.Close, nil
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the current recall ranking from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			tr, closeFn, err := openTracker(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()
			fmt.Fprintln(cmd.OutOrStdout(), tr.Report())
			return nil
		},
	}
}

func newClearCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Reset all recall counts and processed message ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			tr, closeFn, err := openTracker(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()
			if err := tr.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Recall statistics cleared.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the reset")
	return cmd
}
