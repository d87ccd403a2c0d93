package usagestats

import (
	"context"
	"testing"
	"time"

	"modwarden/internal/storage"

	"go.uber.org/zap"
)

func TestRecordAndFlush(t *testing.T) {
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	recorder := New(store, zap.NewNop())
	recorder.WithNow(func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	})

	recorder.Record("g1", "u1", "warn")
	recorder.Record("g1", "u1", "warn")
	recorder.Record("g1", "u2", "ban")
	recorder.Flush(context.Background())

	total, err := store.TotalCommandUses(context.Background(), "g1")
	if err != nil {
		t.Fatalf("total uses: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 uses, got %d", total)
	}

	// A second flush with an empty buffer writes nothing.
	recorder.Flush(context.Background())
	total, err = store.TotalCommandUses(context.Background(), "g1")
	if err != nil {
		t.Fatalf("total uses: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 uses after empty flush, got %d", total)
	}

	top, err := store.TopCommands(context.Background(), "g1", 1)
	if err != nil {
		t.Fatalf("top commands: %v", err)
	}
	if len(top) != 1 || top[0].Command != "warn" || top[0].Count != 2 {
		t.Fatalf("unexpected top command: %+v", top)
	}
}
