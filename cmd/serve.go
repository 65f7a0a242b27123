package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cppla/treebbs/config"
	"github.com/cppla/treebbs/routes"
	"github.com/cppla/treebbs/utils"
)

func init() {
	RootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the schema and start the HTTP server",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer utils.Logger.Sync() //nolint:errcheck

	db, err := config.OpenDatabase(cfg, zap.NewStdLog(utils.Logger.Named("gorm")))
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		_ = config.CloseDatabase(db)
		return err
	}

	rc := utils.NewRedis(utils.RedisOptions{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	})

	r := routes.SetupRouter(cfg, db, rc)

	srv := utils.NewServer(":"+cfg.AppPort, r, utils.DefaultReadTimeout, utils.DefaultWriteTimeout)
	srv.OnShutdown(func() {
		if rc != nil {
			_ = rc.Close()
		}
		if err := config.CloseDatabase(db); err != nil {
			utils.Sugar.Warnw("close database", "error", err)
		}
	})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := srv.ListenAndServe(); err != nil {
		utils.Sugar.Errorw("server stopped with error", "error", err)
		return err
	}
	return nil
}
