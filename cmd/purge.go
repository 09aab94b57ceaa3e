package cmd

import (
	"github.com/roadrunner/api-go/config"
	"github.com/roadrunner/api-go/jobs"
	"github.com/roadrunner/api-go/services"
	"github.com/spf13/cobra"
)

var purgeTokensCmd = &cobra.Command{
	Use:   "purge-tokens",
	Short: "Delete expired refresh tokens once and exit",
	Long: `Delete expired refresh tokens once and exit.

The server runs the same purge on TOKEN_PURGE_SCHEDULE; this command is for
deployments that prefer an external scheduler.`,
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
		auth := &services.AuthService{DB: db}
		_, err = jobs.PurgeTokens(cmd.Context(), auth, log)
		return err
	},
}

func init() {
	rootCmd.AddCommand(purgeTokensCmd)
}
