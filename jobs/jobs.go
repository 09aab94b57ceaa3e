// Package jobs runs scheduled maintenance work next to the HTTP server.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TokenPurger deletes expired refresh tokens and reports how many it removed.
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

const purgeTimeout = time.Minute

type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cronLogger{log}))),
		log:  log.Named("cron"),
	}
}

// AddTokenPurge schedules PurgeExpired on spec, a standard cron expression or
// a descriptor such as "@hourly".
func (s *Scheduler) AddTokenPurge(spec string, purger TokenPurger) error {
	_, err := s.cron.AddFunc(spec, func() {
		_, _ = PurgeTokens(context.Background(), purger, s.log)
	})
	if err != nil {
		return fmt.Errorf("schedule token purge %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PurgeTokens runs one purge with a bounded timeout.
func PurgeTokens(ctx context.Context, purger TokenPurger, log *zap.Logger) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()

	n, err := purger.PurgeExpired(ctx)
	if err != nil {
		log.Warn("refresh token purge failed", zap.Error(err))
		return 0, err
	}
	log.Info("refresh tokens purged", zap.Int64("deleted", n))
	return n, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
