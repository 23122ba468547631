// Package expiry runs the scheduled sweep that expires previews past
// their retention window.
package expiry

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"storybook/internal/domain"
	"storybook/internal/infra"
)

// Sweeper periodically marks stale previews as expired so their assets
// can no longer be purchased or downloaded.
type Sweeper struct {
	previews domain.PreviewRepository
	cron     *cron.Cron
	logger   infra.Logger
}

func NewSweeper(previews domain.PreviewRepository, logger infra.Logger) *Sweeper {
	return &Sweeper{
		previews: previews,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start schedules the sweep. Errors are logged, never fatal; a missed
// sweep is retried on the next tick.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc("@hourly", s.sweep)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info().Msg("expiry: sweeper started")
	return nil
}

func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.previews.MarkExpired(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error().Err(err).Msg("expiry: sweep failed")
		return
	}
	if n > 0 {
		s.logger.Info().Int64("expired", n).Msg("expiry: previews expired")
	}
}
