package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TokenFlusher deletes outstanding and blacklisted tokens that expired before now.
type TokenFlusher interface {
	FlushExpired(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	cron    *cron.Cron
	flusher TokenFlusher
	log     *zap.SugaredLogger
}

// New registers the token flush job on a seconds-aware cron schedule.
func New(schedule string, flusher TokenFlusher, log *zap.SugaredLogger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		flusher: flusher,
		log:     log,
	}

	if _, err := s.cron.AddFunc(schedule, s.FlushExpiredTokens); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infow("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) FlushExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.flusher.FlushExpired(ctx, time.Now())
	if err != nil {
		s.log.Errorw("flush expired tokens", "error", err)
		return
	}
	s.log.Infow("flushed expired tokens", "deleted", n)
}
