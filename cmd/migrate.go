package cmd

import (
	"github.com/roadrunner/api-go/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		db, err := config.ConnectDatabase(cfg)
		if err != nil {
			return err
		}
		if err := config.Migrate(db); err != nil {
			return err
		}
		log.Info("database migrated", zap.String("database", cfg.Database.Name))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
