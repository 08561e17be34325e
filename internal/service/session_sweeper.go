package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/jobs"
)

// JobCloseSession is the job type handled by SessionSweeper.HandleJob.
const JobCloseSession = "close_session"

const sweepBatchSize = 100

type overdueLister interface {
	ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]models.ClassSession, error)
}

type sessionCloser interface {
	AutoClose(ctx context.Context, sessionID string) (bool, error)
}

// SessionSweeper periodically closes sessions whose grace period elapsed
// without a write to trigger the close.
type SessionSweeper struct {
	sessions overdueLister
	closer   sessionCloser
	queue    jobEnqueuer
	grace    time.Duration
	interval time.Duration
	clock    func() time.Time
	logger   *zap.Logger
}

// NewSessionSweeper constructs a sweeper. With a nil queue, sessions are
// closed inline during Sweep.
func NewSessionSweeper(sessions overdueLister, closer sessionCloser, queue jobEnqueuer, grace, interval time.Duration, logger *zap.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionSweeper{
		sessions: sessions,
		closer:   closer,
		queue:    queue,
		grace:    grace,
		interval: interval,
		clock:    time.Now,
		logger:   logger,
	}
}

// Run sweeps on every tick until ctx is done.
func (s *SessionSweeper) Run(ctx context.Context) {
	if s.grace <= 0 {
		s.logger.Info("session sweeper disabled: grace period not set")
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("session sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep schedules a close for every overdue session and returns how many
// were scheduled or closed.
func (s *SessionSweeper) Sweep(ctx context.Context) (int, error) {
	if s.grace <= 0 {
		return 0, nil
	}
	cutoff := s.clock().Add(-s.grace)
	overdue, err := s.sessions.ListOverdue(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, session := range overdue {
		if s.queue == nil {
			closed, err := s.closer.AutoClose(ctx, session.ID)
			if err != nil {
				s.logger.Warn("auto close failed", zap.String("session_id", session.ID), zap.Error(err))
				continue
			}
			if closed {
				count++
			}
			continue
		}
		err := s.queue.TryEnqueue(jobs.Job{
			Type:    JobCloseSession,
			Key:     JobCloseSession + ":" + session.ID,
			Payload: session.ID,
		})
		if err != nil {
			s.logger.Warn("auto close not scheduled", zap.String("session_id", session.ID), zap.Error(err))
			continue
		}
		count++
	}
	if count > 0 {
		s.logger.Info("overdue sessions swept", zap.Int("count", count))
	}
	return count, nil
}

// HandleJob closes one overdue session.
func (s *SessionSweeper) HandleJob(ctx context.Context, job jobs.Job) error {
	id, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
	}
	_, err := s.closer.AutoClose(ctx, id)
	return err
}
