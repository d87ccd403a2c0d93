// Package lockdown flips channel permission overwrites for the everyone
// role. A soft lock denies sending, a hard lock denies viewing; the two are
// tracked independently and both flips are idempotent.
package lockdown

import (
	"context"
	"errors"
	"fmt"

	"modwarden/internal/modlog"

	"go.uber.org/zap"
)

type Permission string

const (
	PermSend  Permission = "send_messages"
	PermReact Permission = "add_reactions"
	PermView  Permission = "view_channel"
)

// Overwrite is the three-valued state of one permission overwrite on the
// everyone role.
type Overwrite int

const (
	OverwriteNeutral Overwrite = iota
	OverwriteAllow
	OverwriteDeny
)

var (
	ErrAlreadyLocked   = errors.New("channel is already locked")
	ErrAlreadyUnlocked = errors.New("channel is already unlocked")
)

// Channels reads and writes everyone-role permission overwrites.
type Channels interface {
	Overwrite(channelID string, perm Permission) (Overwrite, error)
	SetOverwrite(channelID string, perm Permission, state Overwrite) error
}

type Toggle struct {
	channels Channels
	modLog   *modlog.Logger
	logger   *zap.Logger
}

func New(channels Channels, modLog *modlog.Logger, logger *zap.Logger) *Toggle {
	return &Toggle{channels: channels, modLog: modLog, logger: logger}
}

// Lock denies the gating permission for the channel. Hard locks hide the
// channel, soft locks deny sending and reacting.
func (t *Toggle) Lock(ctx context.Context, guildID, channelID, issuerID, issuerName string, hard bool) error {
	gate := PermSend
	if hard {
		gate = PermView
	}
	state, err := t.channels.Overwrite(channelID, gate)
	if err != nil {
		return err
	}
	if state == OverwriteDeny {
		return ErrAlreadyLocked
	}

	if err := t.channels.SetOverwrite(channelID, gate, OverwriteDeny); err != nil {
		return err
	}
	if !hard {
		if err := t.channels.SetOverwrite(channelID, PermReact, OverwriteDeny); err != nil {
			t.logger.Warn("reaction overwrite failed", zap.String("channel_id", channelID), zap.Error(err))
		}
	}

	label := "Lockdown"
	if hard {
		label = "Hard Lockdown"
	}
	message := fmt.Sprintf("🔒 **%s** in <#%s> by <@%s> | %s", label, channelID, issuerID, issuerName)
	t.modLog.Send(ctx, guildID, modlog.CategoryMod, message)
	return nil
}

// Unlock clears the gating permission back to neutral, never to an explicit
// allow.
func (t *Toggle) Unlock(ctx context.Context, guildID, channelID, issuerID, issuerName string, hard bool) error {
	gate := PermSend
	if hard {
		gate = PermView
	}
	state, err := t.channels.Overwrite(channelID, gate)
	if err != nil {
		return err
	}
	if state == OverwriteNeutral {
		return ErrAlreadyUnlocked
	}

	if err := t.channels.SetOverwrite(channelID, gate, OverwriteNeutral); err != nil {
		return err
	}
	if !hard {
		if err := t.channels.SetOverwrite(channelID, PermReact, OverwriteNeutral); err != nil {
			t.logger.Warn("reaction overwrite failed", zap.String("channel_id", channelID), zap.Error(err))
		}
	}

	label := "Unlock"
	if hard {
		label = "Hard Unlock"
	}
	message := fmt.Sprintf("🔓 **%s** in <#%s> by <@%s> | %s", label, channelID, issuerID, issuerName)
	t.modLog.Send(ctx, guildID, modlog.CategoryMod, message)
	return nil
}
