package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrThresholdOrder is returned when a warn-kick threshold would not be
// strictly below the warn-ban threshold.
var ErrThresholdOrder = errors.New("warn kick threshold must be below the warn ban threshold")

type Store struct {
	db *sql.DB
}

// GuildConfig holds the per-guild moderation configuration. Zero values mean
// "not configured": an empty channel id disables that log category and a zero
// warn threshold disables that punishment.
type GuildConfig struct {
	GuildID            string
	JoinLogChannel     string
	ModLogChannel      string
	MessageLogChannel  string
	EventLogChannel    string
	BanLogChannel      string
	InviteWatchChannel string
	MuteRoleID         string
	WarnKickThreshold  int
	WarnBanThreshold   int
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *Store) Migrate() error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return err
	}

	var files []string
	for _, entry := range entries {
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := migrations.ReadFile(path.Join("migrations", file))
		if err != nil {
			return err
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			if isIgnorableMigrationError(err) {
				continue
			}
			return fmt.Errorf("migration %s failed: %w", file, err)
		}
	}
	return nil
}

func (s *Store) GetGuildConfig(ctx context.Context, guildID string) (GuildConfig, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT join_log_channel, mod_log_channel, message_log_channel,
		event_log_channel, ban_log_channel, invite_watch_channel,
		mute_role_id, warn_kick_threshold, warn_ban_threshold
		FROM guild_config WHERE guild_id = ?`, guildID)

	config := GuildConfig{GuildID: guildID}
	err := row.Scan(
		&config.JoinLogChannel,
		&config.ModLogChannel,
		&config.MessageLogChannel,
		&config.EventLogChannel,
		&config.BanLogChannel,
		&config.InviteWatchChannel,
		&config.MuteRoleID,
		&config.WarnKickThreshold,
		&config.WarnBanThreshold,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return config, nil
		}
		return GuildConfig{}, err
	}
	return config, nil
}

func (s *Store) UpsertGuildConfig(ctx context.Context, config GuildConfig) error {
	if config.WarnKickThreshold > 0 && config.WarnBanThreshold > 0 &&
		config.WarnKickThreshold >= config.WarnBanThreshold {
		return ErrThresholdOrder
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guild_config (
			guild_id, join_log_channel, mod_log_channel, message_log_channel,
			event_log_channel, ban_log_channel, invite_watch_channel,
			mute_role_id, warn_kick_threshold, warn_ban_threshold
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			join_log_channel = excluded.join_log_channel,
			mod_log_channel = excluded.mod_log_channel,
			message_log_channel = excluded.message_log_channel,
			event_log_channel = excluded.event_log_channel,
			ban_log_channel = excluded.ban_log_channel,
			invite_watch_channel = excluded.invite_watch_channel,
			mute_role_id = excluded.mute_role_id,
			warn_kick_threshold = excluded.warn_kick_threshold,
			warn_ban_threshold = excluded.warn_ban_threshold
	`,
		config.GuildID,
		config.JoinLogChannel,
		config.ModLogChannel,
		config.MessageLogChannel,
		config.EventLogChannel,
		config.BanLogChannel,
		config.InviteWatchChannel,
		config.MuteRoleID,
		config.WarnKickThreshold,
		config.WarnBanThreshold,
	)
	return err
}

func isIgnorableMigrationError(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "duplicate column name") || strings.Contains(message, "already exists")
}
