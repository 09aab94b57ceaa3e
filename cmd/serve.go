package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roadrunner/api-go/jobs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		a, err := newApp(cfg, log)
		if err != nil {
			return err
		}

		scheduler := jobs.NewScheduler(log)
		if err := scheduler.AddTokenPurge(cfg.TokenPurgeSchedule, a.services.Auth); err != nil {
			return err
		}
		scheduler.Start()

		srv := &http.Server{
			Addr:              cfg.Addr(),
			Handler:           a.router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		var runErr error
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case runErr = <-serveErr:
			if runErr != nil {
				log.Error("server error", zap.Error(runErr))
			}
		}

		log.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Warn("forced shutdown", zap.Error(err))
		}
		if err := scheduler.Stop(ctx); err != nil {
			log.Warn("scheduled jobs still running", zap.Error(err))
		}
		a.close(ctx)
		log.Info("server exited")
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
