// Package modlog delivers moderation audit messages to the log channels a
// guild has configured. Delivery is best effort: a missing channel or a
// failed send never fails the action that produced the message.
package modlog

import (
	"context"

	"modwarden/internal/storage"

	"go.uber.org/zap"
)

// Log categories, each mapped to its own optional channel in GuildConfig.
const (
	CategoryJoin        = "join"
	CategoryMod         = "mod"
	CategoryMessage     = "message"
	CategoryEvent       = "event"
	CategoryBan         = "ban"
	CategoryInviteWatch = "invite_watch"
)

type Logger struct {
	store  *storage.Store
	logger *zap.Logger
	notify func(ctx context.Context, channelID, message string)
}

func NewLogger(store *storage.Store, logger *zap.Logger) *Logger {
	return &Logger{store: store, logger: logger}
}

// SetNotifier installs the channel-send callback. Until one is set, messages
// are only logged.
func (l *Logger) SetNotifier(notify func(ctx context.Context, channelID, message string)) {
	l.notify = notify
}

// Send posts a message to the guild's channel for the given category. Guilds
// without a channel configured for the category are skipped.
func (l *Logger) Send(ctx context.Context, guildID, category, message string) {
	config, err := l.store.GetGuildConfig(ctx, guildID)
	if err != nil {
		l.logger.Warn("mod log config lookup failed", zap.String("guild_id", guildID), zap.Error(err))
		return
	}
	channelID := channelFor(config, category)
	if channelID == "" {
		return
	}
	if l.notify != nil {
		l.notify(ctx, channelID, message)
	}
	l.logger.Info("mod log", zap.String("guild_id", guildID), zap.String("category", category), zap.String("channel_id", channelID))
}

func channelFor(config storage.GuildConfig, category string) string {
	switch category {
	case CategoryJoin:
		return config.JoinLogChannel
	case CategoryMod:
		return config.ModLogChannel
	case CategoryMessage:
		return config.MessageLogChannel
	case CategoryEvent:
		return config.EventLogChannel
	case CategoryBan:
		return config.BanLogChannel
	case CategoryInviteWatch:
		return config.InviteWatchChannel
	default:
		return ""
	}
}
