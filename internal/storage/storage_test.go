package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestUpsertGuildConfig(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	config := GuildConfig{
		GuildID:           "g1",
		ModLogChannel:     "c1",
		MuteRoleID:        "r1",
		WarnKickThreshold: 3,
		WarnBanThreshold:  5,
	}
	if err := store.UpsertGuildConfig(ctx, config); err != nil {
		t.Fatalf("upsert guild config: %v", err)
	}

	config.ModLogChannel = "c2"
	if err := store.UpsertGuildConfig(ctx, config); err != nil {
		t.Fatalf("update guild config: %v", err)
	}

	got, err := store.GetGuildConfig(ctx, "g1")
	if err != nil {
		t.Fatalf("get guild config: %v", err)
	}
	if got.ModLogChannel != "c2" {
		t.Fatalf("expected channel c2, got %q", got.ModLogChannel)
	}
	if got.WarnKickThreshold != 3 || got.WarnBanThreshold != 5 {
		t.Fatalf("unexpected thresholds: %d / %d", got.WarnKickThreshold, got.WarnBanThreshold)
	}
}

func TestGetGuildConfigUnknownGuild(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetGuildConfig(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get guild config: %v", err)
	}
	if got.GuildID != "missing" {
		t.Fatalf("expected guild id to be preserved, got %q", got.GuildID)
	}
	if got.ModLogChannel != "" || got.WarnKickThreshold != 0 {
		t.Fatalf("expected zero config, got %+v", got)
	}
}

func TestUpsertGuildConfigThresholdOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		kick    int
		ban     int
		wantErr bool
	}{
		{"kick below ban", 3, 5, false},
		{"kick equals ban", 5, 5, true},
		{"kick above ban", 6, 5, true},
		{"only kick", 3, 0, false},
		{"only ban", 0, 5, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.UpsertGuildConfig(ctx, GuildConfig{
				GuildID:           "g1",
				WarnKickThreshold: tc.kick,
				WarnBanThreshold:  tc.ban,
			})
			if tc.wantErr && !errors.Is(err, ErrThresholdOrder) {
				t.Fatalf("expected ErrThresholdOrder, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRestrictionUpsertIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	restriction := UserRestriction{GuildID: "g1", UserID: "u1", RoleID: "r1"}
	for i := 0; i < 3; i++ {
		if err := store.UpsertRestriction(ctx, restriction); err != nil {
			t.Fatalf("upsert restriction: %v", err)
		}
	}

	restrictions, err := store.ListRestrictions(ctx, "g1", "u1")
	if err != nil {
		t.Fatalf("list restrictions: %v", err)
	}
	if len(restrictions) != 1 {
		t.Fatalf("expected a single row, got %d", len(restrictions))
	}

	if err := store.RemoveRestriction(ctx, "g1", "u1", "r1"); err != nil {
		t.Fatalf("remove restriction: %v", err)
	}
	has, err := store.HasRestriction(ctx, "g1", "u1", "r1")
	if err != nil {
		t.Fatalf("has restriction: %v", err)
	}
	if has {
		t.Fatal("restriction should be gone after removal")
	}
}

func TestStaffRoles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SetStaffRole(ctx, StaffRole{GuildID: "g1", RoleID: "r1", Level: LevelHelper}); err != nil {
		t.Fatalf("set staff role: %v", err)
	}
	if err := store.SetStaffRole(ctx, StaffRole{GuildID: "g1", RoleID: "r1", Level: LevelAdmin}); err != nil {
		t.Fatalf("promote staff role: %v", err)
	}
	if err := store.SetStaffRole(ctx, StaffRole{GuildID: "g1", RoleID: "r2", Level: "owner"}); err == nil {
		t.Fatal("expected unknown level to be rejected")
	}

	roles, err := store.ListStaffRoles(ctx, "g1")
	if err != nil {
		t.Fatalf("list staff roles: %v", err)
	}
	if len(roles) != 1 || roles[0].Level != LevelAdmin {
		t.Fatalf("unexpected staff roles: %+v", roles)
	}

	if LevelRank(LevelAdmin) <= LevelRank(LevelModerator) || LevelRank(LevelModerator) <= LevelRank(LevelHelper) {
		t.Fatal("staff levels out of order")
	}
}

func TestPrefixCap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < MaxPrefixes; i++ {
		if err := store.AddPrefix(ctx, "g1", string(rune('a'+i))+"!"); err != nil {
			t.Fatalf("add prefix %d: %v", i, err)
		}
	}
	if err := store.AddPrefix(ctx, "g1", "z!"); !errors.Is(err, ErrTooManyPrefixes) {
		t.Fatalf("expected ErrTooManyPrefixes, got %v", err)
	}
	if err := store.AddPrefix(ctx, "g1", "a!"); !errors.Is(err, ErrPrefixExists) {
		t.Fatalf("expected ErrPrefixExists, got %v", err)
	}

	if err := store.RemovePrefix(ctx, "g1", "a!"); err != nil {
		t.Fatalf("remove prefix: %v", err)
	}
	if err := store.RemovePrefix(ctx, "g1", "a!"); !errors.Is(err, ErrNoSuchPrefix) {
		t.Fatalf("expected ErrNoSuchPrefix, got %v", err)
	}

	prefixes, err := store.ListPrefixes(ctx, "g1")
	if err != nil {
		t.Fatalf("list prefixes: %v", err)
	}
	if len(prefixes) != MaxPrefixes-1 {
		t.Fatalf("expected %d prefixes, got %d", MaxPrefixes-1, len(prefixes))
	}
}

func TestJobQueueOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	late, err := store.AddJob(ctx, TimedJob{
		JobType:   JobTimeBan,
		CreatedAt: base,
		ExpiresAt: base.Add(2 * time.Hour),
		Payload:   `{"guild_id":"g1","user_id":"u1"}`,
	})
	if err != nil {
		t.Fatalf("add job: %v", err)
	}
	early, err := store.AddJob(ctx, TimedJob{
		JobType:   JobTimedRestriction,
		CreatedAt: base,
		ExpiresAt: base.Add(time.Hour),
		Payload:   `{"guild_id":"g1","user_id":"u2","role_id":"r1"}`,
	})
	if err != nil {
		t.Fatalf("add job: %v", err)
	}

	next, ok, err := store.NextJob(ctx)
	if err != nil {
		t.Fatalf("next job: %v", err)
	}
	if !ok || next.ID != early {
		t.Fatalf("expected job %d first, got %+v ok=%v", early, next, ok)
	}
	if !next.ExpiresAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("expiry round-trip mismatch: %v", next.ExpiresAt)
	}

	due, err := store.DueJobs(ctx, base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("due jobs: %v", err)
	}
	if len(due) != 1 || due[0].ID != early {
		t.Fatalf("expected only the early job due, got %+v", due)
	}

	if err := store.DeleteJob(ctx, early); err != nil {
		t.Fatalf("delete job: %v", err)
	}
	due, err = store.DueJobs(ctx, base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("due jobs: %v", err)
	}
	if len(due) != 1 || due[0].ID != late {
		t.Fatalf("expected only the late job left, got %+v", due)
	}
}

func TestJobSubSecondExpiryOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	onTime, err := store.AddJob(ctx, TimedJob{
		JobType:   JobTimeBan,
		CreatedAt: base.Add(-time.Hour),
		ExpiresAt: base,
		Payload:   `{"guild_id":"g1","user_id":"u1"}`,
	})
	if err != nil {
		t.Fatalf("add job: %v", err)
	}
	if _, err := store.AddJob(ctx, TimedJob{
		JobType:   JobTimeBan,
		CreatedAt: base.Add(-time.Hour),
		ExpiresAt: base.Add(500 * time.Millisecond),
		Payload:   `{"guild_id":"g1","user_id":"u2"}`,
	}); err != nil {
		t.Fatalf("add job: %v", err)
	}

	due, err := store.DueJobs(ctx, base)
	if err != nil {
		t.Fatalf("due jobs: %v", err)
	}
	if len(due) != 1 || due[0].ID != onTime {
		t.Fatalf("expected only the whole-second job due, got %+v", due)
	}

	next, ok, err := store.NextJob(ctx)
	if err != nil {
		t.Fatalf("next job: %v", err)
	}
	if !ok || next.ID != onTime {
		t.Fatalf("expected job %d first, got %+v ok=%v", onTime, next, ok)
	}
	if !next.ExpiresAt.Equal(base) {
		t.Fatalf("expiry round-trip mismatch: %v", next.ExpiresAt)
	}
}

func TestCommandUsageAggregation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	for i := 0; i < 3; i++ {
		if err := store.RecordCommandUse(ctx, "g1", "u1", "warn", day1); err != nil {
			t.Fatalf("record use: %v", err)
		}
	}
	if err := store.RecordCommandUse(ctx, "g1", "u2", "ban", day1); err != nil {
		t.Fatalf("record use: %v", err)
	}
	if err := store.AddCommandUses(ctx, "g1", "u1", "warn", day2, 2); err != nil {
		t.Fatalf("add uses: %v", err)
	}

	top, err := store.TopCommands(ctx, "g1", 5)
	if err != nil {
		t.Fatalf("top commands: %v", err)
	}
	if len(top) != 2 || top[0].Command != "warn" || top[0].Count != 5 {
		t.Fatalf("unexpected top commands: %+v", top)
	}

	today, err := store.TopCommandsToday(ctx, "g1", day2, 5)
	if err != nil {
		t.Fatalf("top commands today: %v", err)
	}
	if len(today) != 1 || today[0].Command != "warn" || today[0].Count != 2 {
		t.Fatalf("unexpected today counts: %+v", today)
	}

	members, err := store.TopMembers(ctx, "g1", 5)
	if err != nil {
		t.Fatalf("top members: %v", err)
	}
	if len(members) != 2 || members[0].UserID != "u1" || members[0].Count != 5 {
		t.Fatalf("unexpected top members: %+v", members)
	}

	total, err := store.TotalCommandUses(ctx, "g1")
	if err != nil {
		t.Fatalf("total uses: %v", err)
	}
	if total != 6 {
		t.Fatalf("expected 6 total uses, got %d", total)
	}
}
