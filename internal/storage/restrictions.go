package storage

import "context"

// UserRestriction records an active role-based restriction applied by the
// bot so it can be reversed later.
type UserRestriction struct {
	GuildID string
	UserID  string
	RoleID  string
}

// UpsertRestriction records a restriction. Re-applying the same restriction
// is a no-op at the row level.
func (s *Store) UpsertRestriction(ctx context.Context, restriction UserRestriction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_restrictions (guild_id, user_id, role_id)
		VALUES (?, ?, ?)
		ON CONFLICT(guild_id, user_id, role_id) DO NOTHING
	`, restriction.GuildID, restriction.UserID, restriction.RoleID)
	return err
}

func (s *Store) RemoveRestriction(ctx context.Context, guildID, userID, roleID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM user_restrictions
		WHERE guild_id = ? AND user_id = ? AND role_id = ?
	`, guildID, userID, roleID)
	return err
}

func (s *Store) HasRestriction(ctx context.Context, guildID, userID, roleID string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM user_restrictions
		WHERE guild_id = ? AND user_id = ? AND role_id = ?
	`, guildID, userID, roleID)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) ListRestrictions(ctx context.Context, guildID, userID string) ([]UserRestriction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guild_id, user_id, role_id FROM user_restrictions
		WHERE guild_id = ? AND user_id = ?
	`, guildID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var restrictions []UserRestriction
	for rows.Next() {
		var restriction UserRestriction
		if err := rows.Scan(&restriction.GuildID, &restriction.UserID, &restriction.RoleID); err != nil {
			return nil, err
		}
		restrictions = append(restrictions, restriction)
	}
	return restrictions, rows.Err()
}
