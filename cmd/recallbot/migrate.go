package main

import (
	"github.com/spf13/cobra"

	dbembed "github.com/memohai/recallbot/db"
	"github.com/memohai/recallbot/internal/db"
	"github.com/memohai/recallbot/internal/logger"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate <up|down|version|force N>",
		Short:     "Manage the PostgreSQL schema used by the postgres store driver",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"up", "down", "version", "force"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)
			return db.RunMigrate(logger.L, cfg.Postgres, dbembed.MigrationsFS, args[0], args[1:])
		},
	}
}
