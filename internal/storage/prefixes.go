package storage

import (
	"context"
	"errors"
)

// MaxPrefixes is the per-guild cap on custom command prefixes.
const MaxPrefixes = 10

var (
	ErrTooManyPrefixes = errors.New("guild already has the maximum number of prefixes")
	ErrPrefixExists    = errors.New("prefix is already registered")
	ErrNoSuchPrefix    = errors.New("prefix is not registered")
)

// AddPrefix registers a custom prefix for a guild, enforcing the per-guild
// cap and rejecting duplicates.
func (s *Store) AddPrefix(ctx context.Context, guildID, prefix string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Insert before checking the cap: re-adding an existing prefix has to
	// report the duplicate even when the guild is full.
	res, err := tx.ExecContext(ctx, `
		INSERT INTO guild_prefixes (guild_id, prefix)
		VALUES (?, ?)
		ON CONFLICT(guild_id, prefix) DO NOTHING
	`, guildID, prefix)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPrefixExists
	}

	var count int
	row := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM guild_prefixes WHERE guild_id = ?
	`, guildID)
	if err := row.Scan(&count); err != nil {
		return err
	}
	if count > MaxPrefixes {
		return ErrTooManyPrefixes
	}
	return tx.Commit()
}

func (s *Store) RemovePrefix(ctx context.Context, guildID, prefix string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM guild_prefixes WHERE guild_id = ? AND prefix = ?
	`, guildID, prefix)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNoSuchPrefix
	}
	return nil
}

func (s *Store) ListPrefixes(ctx context.Context, guildID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT prefix FROM guild_prefixes WHERE guild_id = ? ORDER BY prefix
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prefixes []string
	for rows.Next() {
		var prefix string
		if err := rows.Scan(&prefix); err != nil {
			return nil, err
		}
		prefixes = append(prefixes, prefix)
	}
	return prefixes, rows.Err()
}
