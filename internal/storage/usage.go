package storage

import (
	"context"
	"time"
)

// CommandCount is one aggregated usage row.
type CommandCount struct {
	Command string
	Count   int
}

// MemberCount is aggregated usage for one member.
type MemberCount struct {
	UserID string
	Count  int
}

func dayBucket(at time.Time) string {
	return at.UTC().Format("2006-01-02")
}

// RecordCommandUse bumps the usage counter for one command invocation.
func (s *Store) RecordCommandUse(ctx context.Context, guildID, userID, command string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO command_usage (guild_id, user_id, command, day, uses)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(guild_id, user_id, command, day) DO UPDATE SET uses = uses + 1
	`, guildID, userID, command, dayBucket(at))
	return err
}

// AddCommandUses bumps the usage counter by n, for batched flushes.
func (s *Store) AddCommandUses(ctx context.Context, guildID, userID, command string, at time.Time, n int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO command_usage (guild_id, user_id, command, day, uses)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(guild_id, user_id, command, day) DO UPDATE SET uses = uses + excluded.uses
	`, guildID, userID, command, dayBucket(at), n)
	return err
}

// TopCommands returns the most used commands in a guild, all time.
func (s *Store) TopCommands(ctx context.Context, guildID string, limit int) ([]CommandCount, error) {
	return s.queryCommandCounts(ctx, `
		SELECT command, SUM(uses) AS total FROM command_usage
		WHERE guild_id = ?
		GROUP BY command ORDER BY total DESC LIMIT ?
	`, guildID, limit)
}

// TopCommandsToday returns the most used commands in a guild for one day.
func (s *Store) TopCommandsToday(ctx context.Context, guildID string, at time.Time, limit int) ([]CommandCount, error) {
	return s.queryCommandCounts(ctx, `
		SELECT command, SUM(uses) AS total FROM command_usage
		WHERE guild_id = ? AND day = ?
		GROUP BY command ORDER BY total DESC LIMIT ?
	`, guildID, dayBucket(at), limit)
}

// TopMemberCommands returns one member's most used commands in a guild.
func (s *Store) TopMemberCommands(ctx context.Context, guildID, userID string, limit int) ([]CommandCount, error) {
	return s.queryCommandCounts(ctx, `
		SELECT command, SUM(uses) AS total FROM command_usage
		WHERE guild_id = ? AND user_id = ?
		GROUP BY command ORDER BY total DESC LIMIT ?
	`, guildID, userID, limit)
}

// TopMembers returns the heaviest command users in a guild.
func (s *Store) TopMembers(ctx context.Context, guildID string, limit int) ([]MemberCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, SUM(uses) AS total FROM command_usage
		WHERE guild_id = ?
		GROUP BY user_id ORDER BY total DESC LIMIT ?
	`, guildID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []MemberCount
	for rows.Next() {
		var member MemberCount
		if err := rows.Scan(&member.UserID, &member.Count); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// TotalCommandUses returns the total number of recorded invocations in a
// guild.
func (s *Store) TotalCommandUses(ctx context.Context, guildID string) (int, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(uses), 0) FROM command_usage WHERE guild_id = ?
	`, guildID)
	var total int
	if err := row.Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) queryCommandCounts(ctx context.Context, query string, args ...any) ([]CommandCount, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []CommandCount
	for rows.Next() {
		var count CommandCount
		if err := rows.Scan(&count.Command, &count.Count); err != nil {
			return nil, err
		}
		counts = append(counts, count)
	}
	return counts, rows.Err()
}
