package storage

import "context"

// AddAutoRole registers a role to be granted to new members of a guild.
func (s *Store) AddAutoRole(ctx context.Context, guildID, roleID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auto_roles (guild_id, role_id)
		VALUES (?, ?)
		ON CONFLICT(guild_id, role_id) DO NOTHING
	`, guildID, roleID)
	return err
}

func (s *Store) RemoveAutoRole(ctx context.Context, guildID, roleID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM auto_roles WHERE guild_id = ? AND role_id = ?
	`, guildID, roleID)
	return err
}

func (s *Store) ListAutoRoles(ctx context.Context, guildID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role_id FROM auto_roles WHERE guild_id = ?
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roleIDs []string
	for rows.Next() {
		var roleID string
		if err := rows.Scan(&roleID); err != nil {
			return nil, err
		}
		roleIDs = append(roleIDs, roleID)
	}
	return roleIDs, rows.Err()
}
