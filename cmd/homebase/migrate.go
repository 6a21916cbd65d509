package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/homebase/internal/database"
	"github.com/dukerupert/homebase/internal/push"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(opts)
			if err != nil {
				return err
			}
			// Open migrates.
			db, err := database.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			logger.Info("database up to date", "path", cfg.DBPath)
			return nil
		},
	}
}

func newVAPIDKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid-keys",
		Short: "Generate a VAPID key pair for Web Push",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := push.GenerateVAPIDKeys()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "HOMEBASE_VAPID_PUBLIC_KEY=%s\nHOMEBASE_VAPID_PRIVATE_KEY=%s\n", pub, priv)
			return nil
		},
	}
}
