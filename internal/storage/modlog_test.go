package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func addWarn(t *testing.T, store *Store, userID, reason string) int {
	t.Helper()
	count, err := store.AddModLogEvent(context.Background(), ModLogEvent{
		GuildID:    "g1",
		UserID:     userID,
		EventType:  EventWarn,
		IssuerID:   "mod1",
		IssuerName: "mod",
		Reason:     reason,
		CreatedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("add warn: %v", err)
	}
	return count
}

func TestAddModLogEventCountsSameType(t *testing.T) {
	store := newTestStore(t)

	if got := addWarn(t, store, "u1", "first"); got != 1 {
		t.Fatalf("expected count 1, got %d", got)
	}
	if got := addWarn(t, store, "u1", "second"); got != 2 {
		t.Fatalf("expected count 2, got %d", got)
	}
	if got := addWarn(t, store, "u2", "other user"); got != 1 {
		t.Fatalf("expected separate count per user, got %d", got)
	}

	count, err := store.AddModLogEvent(context.Background(), ModLogEvent{
		GuildID: "g1", UserID: "u1", EventType: EventKick, IssuerID: "mod1",
	})
	if err != nil {
		t.Fatalf("add kick: %v", err)
	}
	if count != 1 {
		t.Fatalf("kick count should not include warns, got %d", count)
	}
}

func TestListModLogEventsInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	addWarn(t, store, "u1", "first")
	addWarn(t, store, "u1", "second")
	addWarn(t, store, "u1", "third")

	events, err := store.ListModLogEvents(context.Background(), "g1", "u1", EventWarn)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, want := range []string{"first", "second", "third"} {
		if events[i].Reason != want {
			t.Fatalf("event %d: expected reason %q, got %q", i, want, events[i].Reason)
		}
	}
}

func TestDeleteModLogEventByIndex(t *testing.T) {
	store := newTestStore(t)
	addWarn(t, store, "u1", "first")
	addWarn(t, store, "u1", "second")
	addWarn(t, store, "u1", "third")
	ctx := context.Background()

	removed, err := store.DeleteModLogEvent(ctx, "g1", "u1", EventWarn, 2)
	if err != nil {
		t.Fatalf("delete event: %v", err)
	}
	if removed.Reason != "second" {
		t.Fatalf("expected the second warn removed, got %q", removed.Reason)
	}

	events, err := store.ListModLogEvents(ctx, "g1", "u1", EventWarn)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 || events[0].Reason != "first" || events[1].Reason != "third" {
		t.Fatalf("unexpected remaining events: %+v", events)
	}

	if _, err := store.DeleteModLogEvent(ctx, "g1", "u1", EventWarn, 5); !errors.Is(err, ErrNoSuchEvent) {
		t.Fatalf("expected ErrNoSuchEvent for out-of-range index, got %v", err)
	}
	if _, err := store.DeleteModLogEvent(ctx, "g1", "u1", EventWarn, 0); !errors.Is(err, ErrNoSuchEvent) {
		t.Fatalf("expected ErrNoSuchEvent for index 0, got %v", err)
	}
}

func TestClearModLogEvents(t *testing.T) {
	store := newTestStore(t)
	addWarn(t, store, "u1", "first")
	addWarn(t, store, "u1", "second")
	ctx := context.Background()

	cleared, err := store.ClearModLogEvents(ctx, "g1", "u1", EventWarn)
	if err != nil {
		t.Fatalf("clear events: %v", err)
	}
	if cleared != 2 {
		t.Fatalf("expected 2 cleared, got %d", cleared)
	}

	count, err := store.CountModLogEvents(ctx, "g1", "u1", EventWarn)
	if err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty history, got %d", count)
	}
}
