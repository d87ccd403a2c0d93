// Package scheduler persists timed jobs and fires a typed handler when each
// job expires. Jobs survive restarts; on start the queue is replayed and
// anything already past due fires immediately.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"modwarden/internal/storage"

	"go.uber.org/zap"
)

var ErrPastExpiry = errors.New("job expiry must be after its creation time")

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

type realTimer struct{ t *time.Timer }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{t: time.AfterFunc(d, f)}
}

func (t realTimer) Stop() bool { return t.t.Stop() }

// Handler reacts to one completed job. The job row is deleted after the
// handler returns, error or not; a job fires at most once.
type Handler func(ctx context.Context, job storage.TimedJob)

type Scheduler struct {
	store  *storage.Store
	logger *zap.Logger
	clock  Clock

	mu       sync.Mutex
	handlers map[string]Handler
	timer    Timer
	started  bool
}

func New(store *storage.Store, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		store:    store,
		logger:   logger,
		clock:    realClock{},
		handlers: make(map[string]Handler),
	}
}

func (s *Scheduler) WithClock(clock Clock) {
	s.clock = clock
}

// Handle registers the handler for a job type. Must be called before Start.
func (s *Scheduler) Handle(jobType string, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[jobType] = handler
}

// Schedule persists a job that fires at expiresAt. The payload is serialized
// as JSON and handed back to the handler unchanged.
func (s *Scheduler) Schedule(ctx context.Context, jobType string, createdAt, expiresAt time.Time, payload any) (int64, error) {
	if !expiresAt.After(createdAt) {
		return 0, ErrPastExpiry
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode job payload: %w", err)
	}
	id, err := s.store.AddJob(ctx, storage.TimedJob{
		JobType:   jobType,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
		Payload:   string(encoded),
	})
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	if s.started {
		s.rearmLocked(ctx)
	}
	s.mu.Unlock()
	return id, nil
}

// Start replays the persisted queue and arms the expiry timer.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	return s.dispatch(ctx)
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// dispatch fires every due job, then arms a timer for the next pending one.
func (s *Scheduler) dispatch(ctx context.Context) error {
	due, err := s.store.DueJobs(ctx, s.clock.Now())
	if err != nil {
		return err
	}
	for _, job := range due {
		s.fire(ctx, job)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.rearmLocked(ctx)
	return nil
}

func (s *Scheduler) rearmLocked(ctx context.Context) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	next, ok, err := s.store.NextJob(ctx)
	if err != nil {
		s.logger.Error("next job lookup failed", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	wait := next.ExpiresAt.Sub(s.clock.Now())
	if wait < 0 {
		wait = 0
	}
	s.timer = s.clock.AfterFunc(wait, func() {
		if err := s.dispatch(ctx); err != nil {
			s.logger.Error("job dispatch failed", zap.Error(err))
		}
	})
}

func (s *Scheduler) fire(ctx context.Context, job storage.TimedJob) {
	s.mu.Lock()
	handler := s.handlers[job.JobType]
	s.mu.Unlock()

	if handler == nil {
		s.logger.Warn("no handler for job type", zap.String("job_type", job.JobType), zap.Int64("job_id", job.ID))
	} else {
		handler(ctx, job)
	}
	if err := s.store.DeleteJob(ctx, job.ID); err != nil {
		s.logger.Error("job delete failed", zap.Int64("job_id", job.ID), zap.Error(err))
	}
}
