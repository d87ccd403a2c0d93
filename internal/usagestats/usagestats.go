// Package usagestats counts command invocations in memory and flushes the
// buffer to storage periodically, so a burst of commands does not turn into
// a burst of writes.
package usagestats

import (
	"context"
	"sync"
	"time"

	"modwarden/internal/storage"

	"go.uber.org/zap"
)

type key struct {
	guildID string
	userID  string
	command string
}

type Recorder struct {
	store  *storage.Store
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	buffer map[key]int

	stop chan struct{}
	done chan struct{}
}

func New(store *storage.Store, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger,
		now:    time.Now,
		buffer: make(map[key]int),
	}
}

func (r *Recorder) WithNow(now func() time.Time) {
	r.now = now
}

// Record buffers one invocation. Safe for concurrent use.
func (r *Recorder) Record(guildID, userID, command string) {
	r.mu.Lock()
	r.buffer[key{guildID: guildID, userID: userID, command: command}]++
	r.mu.Unlock()
}

// Flush drains the buffer into storage. Entries that fail to write are
// logged and dropped rather than retried.
func (r *Recorder) Flush(ctx context.Context) {
	r.mu.Lock()
	drained := r.buffer
	r.buffer = make(map[key]int)
	r.mu.Unlock()

	now := r.now()
	for k, count := range drained {
		if err := r.store.AddCommandUses(ctx, k.guildID, k.userID, k.command, now, count); err != nil {
			r.logger.Warn("usage flush failed",
				zap.String("guild_id", k.guildID), zap.String("command", k.command), zap.Error(err))
		}
	}
}

// Start flushes on the given interval until Stop is called.
func (r *Recorder) Start(ctx context.Context, interval time.Duration) {
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Flush(ctx)
			case <-r.stop:
				r.Flush(ctx)
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the flush loop after one final flush.
func (r *Recorder) Stop() {
	if r.stop == nil {
		return
	}
	close(r.stop)
	<-r.done
}
