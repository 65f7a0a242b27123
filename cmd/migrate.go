package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cppla/treebbs/config"
	"github.com/cppla/treebbs/utils"
)

func init() {
	RootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := utils.InitLogger(cfg); err != nil {
			return err
		}
		db, err := config.OpenDatabase(cfg, zap.NewStdLog(utils.Logger.Named("gorm")))
		if err != nil {
			return err
		}
		defer config.CloseDatabase(db) //nolint:errcheck

		if err := config.Migrate(db); err != nil {
			return err
		}
		utils.Sugar.Infow("schema migrated", "driver", cfg.DBDriver)
		return nil
	},
}
