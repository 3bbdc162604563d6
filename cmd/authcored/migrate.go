package main

import (
	"github.com/MrEthical07/authcore/internal/config"
	"github.com/MrEthical07/authcore/userstore"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply credential store migrations to DB_DSN",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			db, err := openDB(ctx, cfg.DBDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := userstore.RunMigrations(ctx, db); err != nil {
				return err
			}
			logger.Info().Msg("migrations applied")
			return nil
		},
	}
}
