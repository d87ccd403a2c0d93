package storage

import (
	"context"
	"fmt"
)

// Staff levels, in ascending order of privilege.
const (
	LevelHelper    = "helper"
	LevelModerator = "moderator"
	LevelAdmin     = "admin"
)

// StaffRole maps a guild role onto a staff level.
type StaffRole struct {
	GuildID string
	RoleID  string
	Level   string
}

// LevelRank returns the ordering rank of a staff level, higher meaning more
// privileged. Unknown levels rank below helper.
func LevelRank(level string) int {
	switch level {
	case LevelHelper:
		return 1
	case LevelModerator:
		return 2
	case LevelAdmin:
		return 3
	default:
		return 0
	}
}

// ValidLevel reports whether level is one of the recognized staff levels.
func ValidLevel(level string) bool {
	return LevelRank(level) > 0
}

// SetStaffRole assigns a staff level to a role, replacing any previous level.
func (s *Store) SetStaffRole(ctx context.Context, role StaffRole) error {
	if !ValidLevel(role.Level) {
		return fmt.Errorf("unknown staff level %q", role.Level)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO staff_roles (guild_id, role_id, level)
		VALUES (?, ?, ?)
		ON CONFLICT(guild_id, role_id) DO UPDATE SET level = excluded.level
	`, role.GuildID, role.RoleID, role.Level)
	return err
}

func (s *Store) RemoveStaffRole(ctx context.Context, guildID, roleID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM staff_roles WHERE guild_id = ? AND role_id = ?
	`, guildID, roleID)
	return err
}

func (s *Store) ListStaffRoles(ctx context.Context, guildID string) ([]StaffRole, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guild_id, role_id, level FROM staff_roles WHERE guild_id = ?
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []StaffRole
	for rows.Next() {
		var role StaffRole
		if err := rows.Scan(&role.GuildID, &role.RoleID, &role.Level); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
