// Package scheduler runs the periodic expiry sweeps for magic links
// and sessions.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/ultracivic/backend/internal/clock"
	"github.com/ultracivic/backend/internal/config"
	magiclinkdomain "github.com/ultracivic/backend/internal/magiclink/domain"
	obsmetrics "github.com/ultracivic/backend/internal/observability/metrics"
	sessiondomain "github.com/ultracivic/backend/internal/session/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const jobTimeout = 30 * time.Second

type Params struct {
	fx.In

	Log          *zap.Logger
	Cfg          config.Config
	MagicLinkSvc magiclinkdomain.Service
	SessionSvc   sessiondomain.Service
	Clock        clock.Clock
	Metrics      *obsmetrics.Metrics `optional:"true"`
}

type Scheduler struct {
	log          *zap.Logger
	interval     time.Duration
	magicLinkSvc magiclinkdomain.Service
	sessionSvc   sessiondomain.Service
	clock        clock.Clock
	metrics      *obsmetrics.Metrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.MagicLinkSvc == nil || p.SessionSvc == nil || p.Clock == nil {
		return nil, errors.New("scheduler: missing dependencies")
	}
	interval := p.Cfg.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		log:          p.Log.Named("scheduler"),
		interval:     interval,
		magicLinkSvc: p.MagicLinkSvc,
		sessionSvc:   p.SessionSvc,
		clock:        p.Clock,
		metrics:      p.Metrics,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) (int64, error)) error {
	ctx, cancel := context.WithTimeout(parent, jobTimeout)
	defer cancel()

	swept, err := fn(ctx)
	if err != nil {
		s.metrics.IncSweepError(name)
		s.log.Warn("sweep job failed", zap.String("job", name), zap.Error(err))
		return err
	}

	s.metrics.AddSweptRows(name, swept)
	if swept > 0 {
		s.log.Info("sweep job finished",
			zap.String("job", name),
			zap.Int64("rows", swept),
		)
	}
	return nil
}

func (s *Scheduler) RunOnce(ctx context.Context) error {
	var err error
	err = errors.Join(err, s.runJob(ctx, "sweep_magic_links", s.magicLinkSvc.SweepExpired))
	err = errors.Join(err, s.runJob(ctx, "sweep_sessions", s.sessionSvc.SweepExpired))
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
