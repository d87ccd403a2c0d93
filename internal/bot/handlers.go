package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"modwarden/internal/lockdown"
	"modwarden/internal/moderation"
	"modwarden/internal/storage"
)

// Staff level and fallback permission required per command. Commands
// absent here are open to everyone.
type commandGate struct {
	level      string
	permission int64
}

var commandGates = map[string]commandGate{
	"ban":        {storage.LevelModerator, discordgo.PermissionBanMembers},
	"banid":      {storage.LevelModerator, discordgo.PermissionBanMembers},
	"unban":      {storage.LevelModerator, discordgo.PermissionBanMembers},
	"kick":       {storage.LevelModerator, discordgo.PermissionKickMembers},
	"mute":       {storage.LevelModerator, discordgo.PermissionManageRoles},
	"unmute":     {storage.LevelModerator, discordgo.PermissionManageRoles},
	"warn":       {storage.LevelHelper, discordgo.PermissionManageMessages},
	"lock":       {storage.LevelModerator, discordgo.PermissionManageChannels},
	"unlock":     {storage.LevelModerator, discordgo.PermissionManageChannels},
	"nickname":   {storage.LevelModerator, discordgo.PermissionManageNicknames},
	"logchannel": {storage.LevelAdmin, discordgo.PermissionManageServer},
	"muterole":   {storage.LevelAdmin, discordgo.PermissionManageServer},
	"warnpunish": {storage.LevelAdmin, discordgo.PermissionManageServer},
	"staffrole":  {storage.LevelAdmin, discordgo.PermissionManageServer},
	"autorole":   {storage.LevelAdmin, discordgo.PermissionManageServer},
	"prefix":     {storage.LevelAdmin, discordgo.PermissionManageServer},
	"emoji":      {storage.LevelModerator, discordgo.PermissionManageEmojis},
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.GuildID == "" {
		b.respond(s, i, "This command only works inside a server.", true)
		return
	}

	ctx := context.Background()
	data := i.ApplicationCommandData()

	who := issuer(i)
	if who == nil {
		return
	}
	b.usage.Record(i.GuildID, who.ID, data.Name)

	if gate, ok := commandGates[data.Name]; ok {
		if !b.hasStaffOrPerms(ctx, i, gate.level, gate.permission) {
			b.respond(s, i, "You are not allowed to use this command.", true)
			return
		}
	}

	switch data.Name {
	case "ban":
		b.handleBan(ctx, s, i, data)
	case "banid":
		b.handleBanID(ctx, s, i, data)
	case "kick":
		b.handleKick(ctx, s, i, data)
	case "mute":
		b.handleMute(ctx, s, i, data)
	case "unmute":
		b.handleUnmute(ctx, s, i, data)
	case "unban":
		b.handleUnban(ctx, s, i, data)
	case "warn":
		b.handleWarn(ctx, s, i, data)
	case "warns":
		b.handleWarns(ctx, s, i, data)
	case "lock":
		b.handleLock(ctx, s, i, data, true)
	case "unlock":
		b.handleLock(ctx, s, i, data, false)
	case "nickname":
		b.handleNickname(s, i, data)
	case "logchannel":
		b.handleLogChannel(ctx, s, i, data)
	case "muterole":
		b.handleMuteRole(ctx, s, i, data)
	case "warnpunish":
		b.handleWarnPunish(ctx, s, i, data)
	case "staffrole":
		b.handleStaffRole(ctx, s, i, data)
	case "autorole":
		b.handleAutoRole(ctx, s, i, data)
	case "prefix":
		b.handlePrefix(ctx, s, i, data)
	case "userinfo":
		b.handleUserInfo(s, i, data)
	case "serverinfo":
		b.handleServerInfo(ctx, s, i)
	case "roleinfo":
		b.handleRoleInfo(s, i, data)
	case "avatar":
		b.handleAvatar(s, i, data)
	case "stats":
		b.handleStats(ctx, s, i, data)
	case "emoji":
		b.handleEmoji(s, i, data)
	}
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		out[opt.Name] = opt
	}
	return out
}

func optionString(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		return opt.StringValue()
	}
	return ""
}

// parseDuration accepts time.ParseDuration syntax plus a day suffix,
// such as 7d or 1d12h.
func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if idx := strings.IndexByte(raw, 'd'); idx > 0 {
		days, err := strconv.Atoi(raw[:idx])
		if err == nil && days > 0 {
			rest := time.Duration(0)
			if remainder := raw[idx+1:]; remainder != "" {
				rest, err = time.ParseDuration(remainder)
				if err != nil {
					return 0, fmt.Errorf("invalid duration %q", raw)
				}
			}
			return time.Duration(days)*24*time.Hour + rest, nil
		}
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return d, nil
}

func (b *Bot) actionRequest(i *discordgo.InteractionCreate, action moderation.Action, target *discordgo.User, reason string) moderation.ActionRequest {
	who := issuer(i)
	return moderation.ActionRequest{
		Action:     action,
		GuildID:    i.GuildID,
		TargetID:   target.ID,
		TargetName: displayName(target),
		IssuerID:   who.ID,
		IssuerName: displayName(who),
		Reason:     reason,
	}
}

// actionError maps engine errors to a user-facing message.
func actionError(err error) string {
	switch {
	case errors.Is(err, moderation.ErrSelfTarget):
		return "You cannot use this on yourself."
	case errors.Is(err, moderation.ErrBotTarget):
		return "I am not going to do that to myself."
	case errors.Is(err, moderation.ErrTargetStaff):
		return "That user is staff."
	case errors.Is(err, moderation.ErrNoMuteRole):
		return "No mute role is configured. Set one with /muterole first."
	case errors.Is(err, moderation.ErrNotMuted):
		return "That user is not muted."
	case errors.Is(err, moderation.ErrSchedulerUnavailable):
		return "Timed punishments are unavailable right now."
	case errors.Is(err, moderation.ErrReasonTooLong):
		return "That reason is too long."
	default:
		return "Something went wrong: " + err.Error()
	}
}

func (b *Bot) handleBan(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data.Options)
	target := opts["user"].UserValue(s)
	req := b.actionRequest(i, moderation.ActionBan, target, optionString(opts, "reason"))

	if raw := optionString(opts, "duration"); raw != "" {
		d, err := parseDuration(raw)
		if err != nil {
			b.respond(s, i, "Invalid duration. Use forms like 30m, 12h or 7d.", true)
			return
		}
		req.Duration = d
	}

	res, err := b.engine.Apply(ctx, req)
	if err != nil {
		b.respond(s, i, actionError(err), true)
		return
	}
	if req.Duration > 0 {
		b.respond(s, i, fmt.Sprintf("Banned %s for %s.", displayName(target), res.DurationText), false)
		return
	}
	b.respond(s, i, fmt.Sprintf("Banned %s.", displayName(target)), false)
}

func (b *Bot) handleBanID(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data.Options)
	targetID := strings.TrimSpace(optionString(opts, "user_id"))
	if _, err := strconv.ParseUint(targetID, 10, 64); err != nil {
		b.respond(s, i, "That does not look like a user id.", true)
		return
	}

	targetName := targetID
	if user, err := s.User(targetID); err == nil {
		targetName = displayName(user)
	}

	who := issuer(i)
	req := moderation.ActionRequest{
		Action:     moderation.ActionBan,
		GuildID:    i.GuildID,
		TargetID:   targetID,
		TargetName: targetName,
		IssuerID:   who.ID,
		IssuerName: displayName(who),
		Reason:     optionString(opts, "reason"),
	}
	if _, err := b.engine.Apply(ctx, req); err != nil {
		b.respond(s, i, actionError(err), true)
		return
	}
	b.respond(s, i, fmt.Sprintf("Banned %s.", targetName), false)
}

func (b *Bot) handleKick(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data.Options)
	target := opts["user"].UserValue(s)
	req := b.actionRequest(i, moderation.ActionKick, target, optionString(opts, "reason"))
	if _, err := b.engine.Apply(ctx, req); err != nil {
		b.respond(s, i, actionError(err), true)
		return
	}
	b.respond(s, i, fmt.Sprintf("Kicked %s.", displayName(target)), false)
}

func (b *Bot) handleMute(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data.Options)
	target := opts["user"].UserValue(s)
	req := b.actionRequest(i, moderation.ActionMute, target, optionString(opts, "reason"))

	if raw := optionString(opts, "duration"); raw != "" {
		d, err := parseDuration(raw)
		if err != nil {
			b.respond(s, i, "Invalid duration. Use forms like 30m, 12h or 7d.", true)
			return
		}
		req.Duration = d
	}

	res, err := b.engine.Apply(ctx, req)
	if err != nil {
		b.respond(s, i, actionError(err), true)
		return
	}
	if req.Duration > 0 {
		b.respond(s, i, fmt.Sprintf("Muted %s for %s.", displayName(target), res.DurationText), false)
		return
	}
	b.respond(s, i, fmt.Sprintf("Muted %s.", displayName(target)), false)
}

func (b *Bot) handleUnmute(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data.Options)
	target := opts["user"].UserValue(s)
	who := issuer(i)
	err := b.engine.Unmute(ctx, i.GuildID, target.ID, displayName(target), who.ID, displayName(who))
	if err != nil {
		b.respond(s, i, actionError(err), true)
		return
	}
	b.respond(s, i, fmt.Sprintf("Unmuted %s.", displayName(target)), false)
}

func (b *Bot) handleUnban(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data.Options)
	targetID := strings.TrimSpace(optionString(opts, "user_id"))
	if _, err := strconv.ParseUint(targetID, 10, 64); err != nil {
		b.respond(s, i, "That does not look like a user id.", true)
		return
	}

	targetName := targetID
	if user, err := s.User(targetID); err == nil {
		targetName = displayName(user)
	}

	who := issuer(i)
	err := b.engine.Unban(ctx, i.GuildID, targetID, targetName, who.ID, displayName(who), optionString(opts, "reason"))
	if err != nil {
		b.respond(s, i, actionError(err), true)
		return
	}
	b.respond(s, i, fmt.Sprintf("Unbanned %s.", targetName), false)
}

func (b *Bot) handleWarn(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data.Options)
	target := opts["user"].UserValue(s)
	req := b.actionRequest(i, moderation.ActionWarn, target, optionString(opts, "reason"))
	res, err := b.engine.Apply(ctx, req)
	if err != nil {
		b.respond(s, i, actionError(err), true)
		return
	}

	msg := fmt.Sprintf("Warned %s. They now have %d warning(s).", displayName(target), res.WarnCount)
	switch res.Escalation {
	case moderation.EscalationKick:
		msg += " They were kicked for reaching the warn threshold."
	case moderation.EscalationBan:
		msg += " They were banned for exceeding the warn threshold."
	}
	b.respond(s, i, msg, false)
}

func (b *Bot) handleWarns(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	sub := data.Options[0]
	opts := optionMap(sub.Options)

	// Everyone may read their own warnings; the rest is staff only.
	if sub.Name != "mine" && !b.hasStaffOrPerms(ctx, i, storage.LevelHelper, discordgo.PermissionManageMessages) {
		b.respond(s, i, "You are not allowed to use this command.", true)
		return
	}

	switch sub.Name {
	case "list":
		target := opts["user"].UserValue(s)
		b.listWarns(ctx, s, i, target.ID, displayName(target), false)
	case "mine":
		who := issuer(i)
		b.listWarns(ctx, s, i, who.ID, displayName(who), true)
	case "delete":
		target := opts["user"].UserValue(s)
		number := int(opts["number"].IntValue())
		removed, err := b.store.DeleteModLogEvent(ctx, i.GuildID, target.ID, storage.EventWarn, number)
		if errors.Is(err, storage.ErrNoSuchEvent) {
			b.respond(s, i, fmt.Sprintf("%s has no warning #%d.", displayName(target), number), true)
			return
		}
		if err != nil {
			b.respond(s, i, "Could not delete the warning: "+err.Error(), true)
			return
		}
		reason := removed.Reason
		if reason == "" {
			reason = "no reason"
		}
		b.respond(s, i, fmt.Sprintf("Deleted warning #%d for %s (%s).", number, displayName(target), reason), false)
	case "clear":
		target := opts["user"].UserValue(s)
		n, err := b.store.ClearModLogEvents(ctx, i.GuildID, target.ID, storage.EventWarn)
		if err != nil {
			b.respond(s, i, "Could not clear warnings: "+err.Error(), true)
			return
		}
		b.respond(s, i, fmt.Sprintf("Cleared %d warning(s) for %s.", n, displayName(target)), false)
	}
}

func (b *Bot) listWarns(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, userID, name string, ephemeral bool) {
	events, err := b.store.ListModLogEvents(ctx, i.GuildID, userID, storage.EventWarn)
	if err != nil {
		b.respond(s, i, "Could not load warnings: "+err.Error(), true)
		return
	}
	if len(events) == 0 {
		b.respond(s, i, fmt.Sprintf("%s has no warnings.", name), ephemeral)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s has %d warning(s):\n", name, len(events))
	for idx, ev := range events {
		reason := ev.Reason
		if reason == "" {
			reason = "no reason"
		}
		fmt.Fprintf(&sb, "`#%d` %s by <@%s>: %s\n", idx+1, ev.CreatedAt.UTC().Format("2006-01-02"), ev.IssuerID, reason)
	}
	b.respond(s, i, sb.String(), ephemeral)
}

func (b *Bot) handleLock(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData, lock bool) {
	opts := optionMap(data.Options)
	channelID := i.ChannelID
	if opt, ok := opts["channel"]; ok {
		channelID = opt.ChannelValue(nil).ID
	}
	hard := false
	if opt, ok := opts["hard"]; ok {
		hard = opt.BoolValue()
	}

	who := issuer(i)
	var err error
	if lock {
		err = b.lockdown.Lock(ctx, i.GuildID, channelID, who.ID, displayName(who), hard)
	} else {
		err = b.lockdown.Unlock(ctx, i.GuildID, channelID, who.ID, displayName(who), hard)
	}
	switch {
	case errors.Is(err, lockdown.ErrAlreadyLocked):
		b.respond(s, i, "That channel is already locked.", true)
	case errors.Is(err, lockdown.ErrAlreadyUnlocked):
		b.respond(s, i, "That channel is not locked.", true)
	case err != nil:
		b.respond(s, i, "Could not update the channel: "+err.Error(), true)
	case lock:
		b.respond(s, i, fmt.Sprintf("Locked <#%s>.", channelID), false)
	default:
		b.respond(s, i, fmt.Sprintf("Unlocked <#%s>.", channelID), false)
	}
}

func (b *Bot) handleNickname(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data.Options)
	target := opts["user"].UserValue(s)
	name := optionString(opts, "name")

	if err := s.GuildMemberNickname(i.GuildID, target.ID, name); err != nil {
		b.respond(s, i, "Could not change the nickname: "+err.Error(), true)
		return
	}
	if name == "" {
		b.respond(s, i, fmt.Sprintf("Cleared the nickname of %s.", displayName(target)), false)
		return
	}
	b.respond(s, i, fmt.Sprintf("Renamed %s to %s.", displayName(target), name), false)
}
