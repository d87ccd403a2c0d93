package lockdown

import (
	"context"
	"errors"
	"testing"

	"modwarden/internal/modlog"
	"modwarden/internal/storage"

	"go.uber.org/zap"
)

type fakeChannels struct {
	overwrites map[Permission]Overwrite
	sets       int
}

func (f *fakeChannels) Overwrite(_ string, perm Permission) (Overwrite, error) {
	return f.overwrites[perm], nil
}

func (f *fakeChannels) SetOverwrite(_ string, perm Permission, state Overwrite) error {
	f.overwrites[perm] = state
	f.sets++
	return nil
}

func newToggle(t *testing.T) (*Toggle, *fakeChannels) {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	channels := &fakeChannels{overwrites: map[Permission]Overwrite{}}
	return New(channels, modlog.NewLogger(store, zap.NewNop()), zap.NewNop()), channels
}

func TestLockIsIdempotent(t *testing.T) {
	toggle, channels := newToggle(t)
	ctx := context.Background()

	if err := toggle.Lock(ctx, "g1", "c1", "mod", "mod#0001", false); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if channels.overwrites[PermSend] != OverwriteDeny || channels.overwrites[PermReact] != OverwriteDeny {
		t.Fatalf("unexpected overwrites after lock: %v", channels.overwrites)
	}

	setsAfterLock := channels.sets
	if err := toggle.Lock(ctx, "g1", "c1", "mod", "mod#0001", false); !errors.Is(err, ErrAlreadyLocked) {
		t.Fatalf("expected ErrAlreadyLocked, got %v", err)
	}
	if channels.sets != setsAfterLock {
		t.Fatal("second lock must not touch overwrites")
	}
}

func TestUnlockClearsToNeutral(t *testing.T) {
	toggle, channels := newToggle(t)
	ctx := context.Background()

	if err := toggle.Unlock(ctx, "g1", "c1", "mod", "mod#0001", false); !errors.Is(err, ErrAlreadyUnlocked) {
		t.Fatalf("expected ErrAlreadyUnlocked, got %v", err)
	}
	if channels.sets != 0 {
		t.Fatal("unlock of a neutral channel must not touch overwrites")
	}

	if err := toggle.Lock(ctx, "g1", "c1", "mod", "mod#0001", false); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := toggle.Unlock(ctx, "g1", "c1", "mod", "mod#0001", false); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if channels.overwrites[PermSend] != OverwriteNeutral {
		t.Fatalf("expected neutral overwrite, got %v", channels.overwrites[PermSend])
	}
}

func TestHardAndSoftLocksAreIndependent(t *testing.T) {
	toggle, channels := newToggle(t)
	ctx := context.Background()

	if err := toggle.Lock(ctx, "g1", "c1", "mod", "mod#0001", false); err != nil {
		t.Fatalf("soft lock: %v", err)
	}
	if err := toggle.Lock(ctx, "g1", "c1", "mod", "mod#0001", true); err != nil {
		t.Fatalf("hard lock after soft lock: %v", err)
	}
	if channels.overwrites[PermView] != OverwriteDeny {
		t.Fatal("hard lock should deny viewing")
	}

	if err := toggle.Unlock(ctx, "g1", "c1", "mod", "mod#0001", true); err != nil {
		t.Fatalf("hard unlock: %v", err)
	}
	if channels.overwrites[PermSend] != OverwriteDeny {
		t.Fatal("hard unlock must not clear the soft lock")
	}
}

func TestLockExplicitAllowStillLocks(t *testing.T) {
	toggle, channels := newToggle(t)
	channels.overwrites[PermSend] = OverwriteAllow

	if err := toggle.Lock(context.Background(), "g1", "c1", "mod", "mod#0001", false); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if channels.overwrites[PermSend] != OverwriteDeny {
		t.Fatal("explicit allow should flip to deny")
	}
}
