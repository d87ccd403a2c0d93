package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"modwarden/internal/storage"

	"go.uber.org/zap"
)

type fakeTimer struct {
	deadline time.Time
	fire     func()
	stopped  bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &fakeTimer{deadline: c.now.Add(d), fire: f}
	c.timers = append(c.timers, timer)
	return timer
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	var rest []*fakeTimer
	for _, timer := range c.timers {
		if !timer.stopped && !timer.deadline.After(c.now) {
			due = append(due, timer)
		} else {
			rest = append(rest, timer)
		}
	}
	c.timers = rest
	c.mu.Unlock()

	for _, timer := range due {
		timer.fire()
	}
}

func newTestScheduler(t *testing.T) (*Scheduler, *storage.Store, *fakeClock) {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	sched := New(store, zap.NewNop())
	sched.WithClock(clock)
	t.Cleanup(sched.Stop)
	return sched, store, clock
}

func TestScheduleRejectsPastExpiry(t *testing.T) {
	sched, _, clock := newTestScheduler(t)
	now := clock.Now()

	_, err := sched.Schedule(context.Background(), storage.JobTimeBan, now, now, TimeBanPayload{GuildID: "g1", UserID: "u1"})
	if !errors.Is(err, ErrPastExpiry) {
		t.Fatalf("expected ErrPastExpiry, got %v", err)
	}
	_, err = sched.Schedule(context.Background(), storage.JobTimeBan, now, now.Add(-time.Minute), TimeBanPayload{GuildID: "g1", UserID: "u1"})
	if !errors.Is(err, ErrPastExpiry) {
		t.Fatalf("expected ErrPastExpiry, got %v", err)
	}
}

func TestJobsFireOnceInExpiryOrder(t *testing.T) {
	sched, store, clock := newTestScheduler(t)
	ctx := context.Background()
	now := clock.Now()

	var mu sync.Mutex
	var fired []string
	sched.Handle(storage.JobTimeBan, func(_ context.Context, job storage.TimedJob) {
		payload, err := DecodeTimeBan(job.Payload)
		if err != nil {
			t.Errorf("decode payload: %v", err)
			return
		}
		mu.Lock()
		fired = append(fired, payload.UserID)
		mu.Unlock()
	})

	if _, err := sched.Schedule(ctx, storage.JobTimeBan, now, now.Add(2*time.Hour), TimeBanPayload{GuildID: "g1", UserID: "late"}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := sched.Schedule(ctx, storage.JobTimeBan, now, now.Add(time.Hour), TimeBanPayload{GuildID: "g1", UserID: "early"}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := sched.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.Advance(time.Hour)
	clock.Advance(time.Hour)

	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 2 || fired[0] != "early" || fired[1] != "late" {
		t.Fatalf("unexpected firing order: %v", fired)
	}

	due, err := store.DueJobs(ctx, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("due jobs: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("fired jobs should be deleted, %d remain", len(due))
	}
}

func TestStartReplaysOverdueJobs(t *testing.T) {
	sched, store, clock := newTestScheduler(t)
	ctx := context.Background()
	past := clock.Now().Add(-2 * time.Hour)

	if _, err := store.AddJob(ctx, storage.TimedJob{
		JobType:   storage.JobTimedRestriction,
		CreatedAt: past,
		ExpiresAt: past.Add(time.Hour),
		Payload:   `{"guild_id":"g1","user_id":"u1","role_id":"r1"}`,
	}); err != nil {
		t.Fatalf("add job: %v", err)
	}

	var mu sync.Mutex
	fired := 0
	sched.Handle(storage.JobTimedRestriction, func(context.Context, storage.TimedJob) {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	if err := sched.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if fired != 1 {
		t.Fatalf("expected overdue job to fire on start, fired %d times", fired)
	}
}

func TestUnknownJobTypeIsConsumed(t *testing.T) {
	sched, store, clock := newTestScheduler(t)
	ctx := context.Background()
	now := clock.Now()

	if _, err := store.AddJob(ctx, storage.TimedJob{
		JobType:   "mystery",
		CreatedAt: now.Add(-time.Hour),
		ExpiresAt: now.Add(-time.Minute),
		Payload:   `{}`,
	}); err != nil {
		t.Fatalf("add job: %v", err)
	}

	if err := sched.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, ok, err := store.NextJob(ctx)
	if err != nil {
		t.Fatalf("next job: %v", err)
	}
	if ok {
		t.Fatal("unhandled job should still be deleted")
	}
}
