package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"modwarden/internal/storage"
)

func (b *Bot) handleLogChannel(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data.Options)
	category := optionString(opts, "category")

	channelID := ""
	if opt, ok := opts["channel"]; ok {
		channelID = opt.ChannelValue(nil).ID
	}

	cfg, err := b.store.GetGuildConfig(ctx, i.GuildID)
	if err != nil {
		b.respond(s, i, "Could not load the configuration: "+err.Error(), true)
		return
	}

	switch category {
	case "join":
		cfg.JoinLogChannel = channelID
	case "mod":
		cfg.ModLogChannel = channelID
	case "message":
		cfg.MessageLogChannel = channelID
	case "event":
		cfg.EventLogChannel = channelID
	case "ban":
		cfg.BanLogChannel = channelID
	case "invite_watch":
		cfg.InviteWatchChannel = channelID
	default:
		b.respond(s, i, "Unknown log category.", true)
		return
	}

	if err := b.store.UpsertGuildConfig(ctx, cfg); err != nil {
		b.respond(s, i, "Could not save the configuration: "+err.Error(), true)
		return
	}
	if channelID == "" {
		b.respond(s, i, fmt.Sprintf("Disabled the %s log.", category), false)
		return
	}
	b.respond(s, i, fmt.Sprintf("Routed the %s log to <#%s>.", category, channelID), false)
}

func (b *Bot) handleMuteRole(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data.Options)

	roleID := ""
	if opt, ok := opts["role"]; ok {
		roleID = opt.RoleValue(nil, "").ID
	}
	if roleID == i.GuildID {
		b.respond(s, i, "The everyone role cannot be the mute role.", true)
		return
	}

	cfg, err := b.store.GetGuildConfig(ctx, i.GuildID)
	if err != nil {
		b.respond(s, i, "Could not load the configuration: "+err.Error(), true)
		return
	}
	cfg.MuteRoleID = roleID
	if err := b.store.UpsertGuildConfig(ctx, cfg); err != nil {
		b.respond(s, i, "Could not save the configuration: "+err.Error(), true)
		return
	}
	if roleID == "" {
		b.respond(s, i, "Cleared the mute role.", false)
		return
	}
	b.respond(s, i, fmt.Sprintf("Mutes now apply <@&%s>.", roleID), false)
}

func (b *Bot) handleWarnPunish(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data.Options)

	cfg, err := b.store.GetGuildConfig(ctx, i.GuildID)
	if err != nil {
		b.respond(s, i, "Could not load the configuration: "+err.Error(), true)
		return
	}
	if opt, ok := opts["kick"]; ok {
		cfg.WarnKickThreshold = int(opt.IntValue())
	}
	if opt, ok := opts["ban"]; ok {
		cfg.WarnBanThreshold = int(opt.IntValue())
	}
	if cfg.WarnKickThreshold < 0 || cfg.WarnBanThreshold < 0 {
		b.respond(s, i, "Thresholds cannot be negative.", true)
		return
	}

	err = b.store.UpsertGuildConfig(ctx, cfg)
	if errors.Is(err, storage.ErrThresholdOrder) {
		b.respond(s, i, "The kick threshold must be below the ban threshold.", true)
		return
	}
	if err != nil {
		b.respond(s, i, "Could not save the configuration: "+err.Error(), true)
		return
	}

	var parts []string
	if cfg.WarnKickThreshold > 0 {
		parts = append(parts, fmt.Sprintf("kick at %d warns", cfg.WarnKickThreshold))
	}
	if cfg.WarnBanThreshold > 0 {
		parts = append(parts, fmt.Sprintf("ban at %d warns", cfg.WarnBanThreshold))
	}
	if len(parts) == 0 {
		b.respond(s, i, "Warn punishments are disabled.", false)
		return
	}
	b.respond(s, i, "Warn punishments set: "+strings.Join(parts, ", ")+".", false)
}

func (b *Bot) handleStaffRole(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	sub := data.Options[0]
	opts := optionMap(sub.Options)

	switch sub.Name {
	case "set":
		role := opts["role"].RoleValue(nil, "")
		level := optionString(opts, "level")
		if err := b.store.SetStaffRole(ctx, storage.StaffRole{GuildID: i.GuildID, RoleID: role.ID, Level: level}); err != nil {
			b.respond(s, i, "Could not set the staff role: "+err.Error(), true)
			return
		}
		b.respond(s, i, fmt.Sprintf("<@&%s> is now %s staff.", role.ID, level), false)
	case "remove":
		role := opts["role"].RoleValue(nil, "")
		if err := b.store.RemoveStaffRole(ctx, i.GuildID, role.ID); err != nil {
			b.respond(s, i, "Could not remove the staff role: "+err.Error(), true)
			return
		}
		b.respond(s, i, fmt.Sprintf("<@&%s> is no longer staff.", role.ID), false)
	case "list":
		roles, err := b.store.ListStaffRoles(ctx, i.GuildID)
		if err != nil {
			b.respond(s, i, "Could not list staff roles: "+err.Error(), true)
			return
		}
		if len(roles) == 0 {
			b.respond(s, i, "No staff roles are configured.", true)
			return
		}
		var sb strings.Builder
		sb.WriteString("Staff roles:\n")
		for _, role := range roles {
			fmt.Fprintf(&sb, "<@&%s>: %s\n", role.RoleID, role.Level)
		}
		b.respond(s, i, sb.String(), true)
	}
}

func (b *Bot) handleAutoRole(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	sub := data.Options[0]
	opts := optionMap(sub.Options)

	switch sub.Name {
	case "add":
		role := opts["role"].RoleValue(nil, "")
		if err := b.store.AddAutoRole(ctx, i.GuildID, role.ID); err != nil {
			b.respond(s, i, "Could not add the auto role: "+err.Error(), true)
			return
		}
		b.respond(s, i, fmt.Sprintf("New members now receive <@&%s>.", role.ID), false)
	case "remove":
		role := opts["role"].RoleValue(nil, "")
		if err := b.store.RemoveAutoRole(ctx, i.GuildID, role.ID); err != nil {
			b.respond(s, i, "Could not remove the auto role: "+err.Error(), true)
			return
		}
		b.respond(s, i, fmt.Sprintf("New members no longer receive <@&%s>.", role.ID), false)
	case "list":
		roles, err := b.store.ListAutoRoles(ctx, i.GuildID)
		if err != nil {
			b.respond(s, i, "Could not list auto roles: "+err.Error(), true)
			return
		}
		if len(roles) == 0 {
			b.respond(s, i, "No auto roles are configured.", true)
			return
		}
		mentions := make([]string, 0, len(roles))
		for _, roleID := range roles {
			mentions = append(mentions, "<@&"+roleID+">")
		}
		b.respond(s, i, "Auto roles: "+strings.Join(mentions, ", "), true)
	}
}

func (b *Bot) handlePrefix(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	sub := data.Options[0]
	opts := optionMap(sub.Options)

	switch sub.Name {
	case "add":
		prefix := strings.TrimSpace(optionString(opts, "prefix"))
		if prefix == "" || len(prefix) > 25 {
			b.respond(s, i, "Prefixes have to be 1 to 25 characters long.", true)
			return
		}
		if strings.Contains(prefix, "<@") {
			b.respond(s, i, "Mentions cannot be used as prefixes.", true)
			return
		}
		err := b.store.AddPrefix(ctx, i.GuildID, prefix)
		switch {
		case errors.Is(err, storage.ErrTooManyPrefixes):
			b.respond(s, i, fmt.Sprintf("A server can have at most %d prefixes.", storage.MaxPrefixes), true)
		case errors.Is(err, storage.ErrPrefixExists):
			b.respond(s, i, "That prefix is already set.", true)
		case err != nil:
			b.respond(s, i, "Could not add the prefix: "+err.Error(), true)
		default:
			b.respond(s, i, fmt.Sprintf("Added the prefix `%s`.", prefix), false)
		}
	case "remove":
		prefix := optionString(opts, "prefix")
		err := b.store.RemovePrefix(ctx, i.GuildID, prefix)
		switch {
		case errors.Is(err, storage.ErrNoSuchPrefix):
			b.respond(s, i, "That prefix is not set.", true)
		case err != nil:
			b.respond(s, i, "Could not remove the prefix: "+err.Error(), true)
		default:
			b.respond(s, i, fmt.Sprintf("Removed the prefix `%s`.", prefix), false)
		}
	case "list":
		prefixes, err := b.store.ListPrefixes(ctx, i.GuildID)
		if err != nil {
			b.respond(s, i, "Could not list prefixes: "+err.Error(), true)
			return
		}
		if len(prefixes) == 0 {
			b.respond(s, i, fmt.Sprintf("No custom prefixes. The default is `%s`.", b.cfg.DefaultPrefix), true)
			return
		}
		quoted := make([]string, 0, len(prefixes))
		for _, p := range prefixes {
			quoted = append(quoted, "`"+p+"`")
		}
		b.respond(s, i, "Prefixes: "+strings.Join(quoted, ", "), true)
	}
}
