package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Moderation event types. These are the only values stored in
// mod_log_events.event_type.
const (
	EventWarn = "warn"
	EventBan  = "ban"
	EventKick = "kick"
	EventMute = "mute"
)

// ErrNoSuchEvent is returned when a delete-by-index does not match a row.
var ErrNoSuchEvent = errors.New("no moderation event at that index")

// ModLogEvent is one entry in a user's per-guild moderation history.
// Insertion order defines the 1-based index used by DeleteModLogEvent.
type ModLogEvent struct {
	ID         int64
	GuildID    string
	UserID     string
	EventType  string
	IssuerID   string
	IssuerName string
	Reason     string
	CreatedAt  time.Time
}

// AddModLogEvent appends an event and returns the number of events of the
// same type recorded for that user in that guild, including the new one.
func (s *Store) AddModLogEvent(ctx context.Context, event ModLogEvent) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO mod_log_events (guild_id, user_id, event_type, issuer_id, issuer_name, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, event.GuildID, event.UserID, event.EventType, event.IssuerID, event.IssuerName, event.Reason, event.CreatedAt.Unix())
	if err != nil {
		return 0, err
	}

	var count int
	row := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM mod_log_events
		WHERE guild_id = ? AND user_id = ? AND event_type = ?
	`, event.GuildID, event.UserID, event.EventType)
	if err = row.Scan(&count); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) CountModLogEvents(ctx context.Context, guildID, userID, eventType string) (int, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM mod_log_events
		WHERE guild_id = ? AND user_id = ? AND event_type = ?
	`, guildID, userID, eventType)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListModLogEvents returns a user's events of one type in insertion order.
// An empty eventType returns every event type.
func (s *Store) ListModLogEvents(ctx context.Context, guildID, userID, eventType string) ([]ModLogEvent, error) {
	query := `
		SELECT id, guild_id, user_id, event_type, issuer_id, issuer_name, reason, created_at
		FROM mod_log_events
		WHERE guild_id = ? AND user_id = ?`
	args := []any{guildID, userID}
	if eventType != "" {
		query += ` AND event_type = ?`
		args = append(args, eventType)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []ModLogEvent
	for rows.Next() {
		var event ModLogEvent
		var created int64
		if err := rows.Scan(&event.ID, &event.GuildID, &event.UserID, &event.EventType,
			&event.IssuerID, &event.IssuerName, &event.Reason, &created); err != nil {
			return nil, err
		}
		event.CreatedAt = time.Unix(created, 0)
		events = append(events, event)
	}
	return events, rows.Err()
}

// DeleteModLogEvent removes entry #index (1-based, insertion order) of the
// given type and returns the removed event.
func (s *Store) DeleteModLogEvent(ctx context.Context, guildID, userID, eventType string, index int) (ModLogEvent, error) {
	if index < 1 {
		return ModLogEvent{}, fmt.Errorf("%w: index below 1", ErrNoSuchEvent)
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, guild_id, user_id, event_type, issuer_id, issuer_name, reason, created_at
		FROM mod_log_events
		WHERE guild_id = ? AND user_id = ? AND event_type = ?
		ORDER BY id LIMIT 1 OFFSET ?
	`, guildID, userID, eventType, index-1)

	var event ModLogEvent
	var created int64
	err := row.Scan(&event.ID, &event.GuildID, &event.UserID, &event.EventType,
		&event.IssuerID, &event.IssuerName, &event.Reason, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ModLogEvent{}, ErrNoSuchEvent
		}
		return ModLogEvent{}, err
	}
	event.CreatedAt = time.Unix(created, 0)

	if _, err := s.db.ExecContext(ctx, `DELETE FROM mod_log_events WHERE id = ?`, event.ID); err != nil {
		return ModLogEvent{}, err
	}
	return event, nil
}

// ClearModLogEvents removes all events of one type for a user and reports
// how many were deleted.
func (s *Store) ClearModLogEvents(ctx context.Context, guildID, userID, eventType string) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM mod_log_events
		WHERE guild_id = ? AND user_id = ? AND event_type = ?
	`, guildID, userID, eventType)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}
