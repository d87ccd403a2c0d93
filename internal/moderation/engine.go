package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"modwarden/internal/modlog"
	"modwarden/internal/scheduler"
	"modwarden/internal/storage"

	"go.uber.org/zap"
)

type Action string

const (
	ActionWarn Action = "warn"
	ActionKick Action = "kick"
	ActionBan  Action = "ban"
	ActionMute Action = "mute"
)

var (
	ErrSelfTarget           = errors.New("cannot moderate yourself")
	ErrBotTarget            = errors.New("cannot moderate the bot")
	ErrTargetStaff          = errors.New("target is a staff member")
	ErrNoMuteRole           = errors.New("no mute role is configured")
	ErrNotMuted             = errors.New("user is not muted")
	ErrSchedulerUnavailable = errors.New("timed punishments are unavailable")
)

// Platform is the narrow chat-platform surface the engine acts through.
// Implemented by the bot over the real client and by fakes in tests.
type Platform interface {
	GuildName(guildID string) (string, error)
	InGuild(guildID string) bool
	RoleExists(guildID, roleID string) bool
	IsMember(guildID, userID string) bool
	MemberRoles(guildID, userID string) ([]string, error)
	Kick(guildID, userID, reason string) error
	Ban(guildID, userID, reason string) error
	Unban(guildID, userID, reason string) error
	AddRole(guildID, userID, roleID, reason string) error
	RemoveRole(guildID, userID, roleID, reason string) error
	DirectMessage(userID, content string) error
}

// JobScheduler enqueues delayed undo work. Nil when the scheduler failed to
// start, in which case timed actions are rejected up front.
type JobScheduler interface {
	Schedule(ctx context.Context, jobType string, createdAt, expiresAt time.Time, payload any) (int64, error)
}

// ActionRequest describes one punitive action against a target user.
// A zero Duration means the action does not expire.
type ActionRequest struct {
	Action     Action
	GuildID    string
	TargetID   string
	TargetName string
	IssuerID   string
	IssuerName string
	Reason     string
	Duration   time.Duration
}

// Result reports what an applied action did.
type Result struct {
	WarnCount    int
	Escalation   Escalation
	ExpiresAt    time.Time
	DurationText string
}

type Engine struct {
	store     *storage.Store
	platform  Platform
	jobs      JobScheduler
	modLog    *modlog.Logger
	logger    *zap.Logger
	botUserID string
	now       func() time.Time
}

func New(store *storage.Store, platform Platform, jobs JobScheduler, modLog *modlog.Logger, logger *zap.Logger) *Engine {
	return &Engine{
		store:    store,
		platform: platform,
		jobs:     jobs,
		modLog:   modLog,
		logger:   logger,
		now:      time.Now,
	}
}

func (e *Engine) SetBotUser(userID string) {
	e.botUserID = userID
}

func (e *Engine) WithNow(now func() time.Time) {
	e.now = now
}

// Apply executes one moderation action. Notification failures are swallowed;
// only the platform mutation itself can fail the call.
func (e *Engine) Apply(ctx context.Context, req ActionRequest) (Result, error) {
	if err := e.validateTarget(ctx, req); err != nil {
		return Result{}, err
	}
	switch req.Action {
	case ActionWarn:
		return e.applyWarn(ctx, req)
	case ActionKick, ActionBan, ActionMute:
		return e.applyPunishment(ctx, req)
	default:
		return Result{}, fmt.Errorf("unknown action %q", req.Action)
	}
}

func (e *Engine) validateTarget(ctx context.Context, req ActionRequest) error {
	if req.TargetID == req.IssuerID {
		return ErrSelfTarget
	}
	if e.botUserID != "" && req.TargetID == e.botUserID {
		return ErrBotTarget
	}
	staff, err := e.isStaff(ctx, req.GuildID, req.TargetID)
	if err != nil {
		return err
	}
	if staff {
		return ErrTargetStaff
	}
	return nil
}

// isStaff reports whether the user holds any configured staff role. Users
// the platform cannot resolve, such as ban-by-id targets who never joined,
// are not staff.
func (e *Engine) isStaff(ctx context.Context, guildID, userID string) (bool, error) {
	staffRoles, err := e.store.ListStaffRoles(ctx, guildID)
	if err != nil {
		return false, err
	}
	if len(staffRoles) == 0 {
		return false, nil
	}
	memberRoles, err := e.platform.MemberRoles(guildID, userID)
	if err != nil {
		return false, nil
	}
	staffSet := make(map[string]struct{}, len(staffRoles))
	for _, role := range staffRoles {
		staffSet[role.RoleID] = struct{}{}
	}
	for _, roleID := range memberRoles {
		if _, ok := staffSet[roleID]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (e *Engine) applyPunishment(ctx context.Context, req ActionRequest) (Result, error) {
	now := e.now()
	timed := req.Duration > 0

	var result Result
	var durationText string
	if timed {
		result.ExpiresAt = now.Add(req.Duration)
		durationText = describeDuration(now, result.ExpiresAt)
		result.DurationText = durationText
	}

	config, err := e.store.GetGuildConfig(ctx, req.GuildID)
	if err != nil {
		return Result{}, err
	}
	var muteRole string
	if req.Action == ActionMute {
		muteRole = config.MuteRoleID
		if muteRole == "" {
			return Result{}, ErrNoMuteRole
		}
	}

	auditReason, err := AuditReason(req.IssuerName, req.IssuerID, platformReason(req, durationText))
	if err != nil {
		return Result{}, err
	}

	if timed {
		if e.jobs == nil {
			return Result{}, ErrSchedulerUnavailable
		}
		if err := e.scheduleUndo(ctx, req, muteRole, now, result.ExpiresAt); err != nil {
			return Result{}, err
		}
	}

	e.notifyTarget(req, durationText)

	if err := e.mutate(req, muteRole, auditReason); err != nil {
		return Result{}, err
	}

	e.recordEvent(ctx, req, now)

	if req.Action == ActionMute {
		restriction := storage.UserRestriction{GuildID: req.GuildID, UserID: req.TargetID, RoleID: muteRole}
		if err := e.store.UpsertRestriction(ctx, restriction); err != nil {
			e.logger.Warn("restriction upsert failed", zap.String("guild_id", req.GuildID), zap.String("user_id", req.TargetID), zap.Error(err))
		}
	}

	e.modLog.Send(ctx, req.GuildID, modlog.CategoryMod, punishmentLogMessage(req, durationText))
	return result, nil
}

func (e *Engine) applyWarn(ctx context.Context, req ActionRequest) (Result, error) {
	now := e.now()
	count, err := e.store.AddModLogEvent(ctx, storage.ModLogEvent{
		GuildID:    req.GuildID,
		UserID:     req.TargetID,
		EventType:  storage.EventWarn,
		IssuerID:   req.IssuerID,
		IssuerName: req.IssuerName,
		Reason:     req.Reason,
		CreatedAt:  now,
	})
	if err != nil {
		return Result{}, err
	}

	config, err := e.store.GetGuildConfig(ctx, req.GuildID)
	if err != nil {
		return Result{}, err
	}
	escalation := DecideEscalation(count, config.WarnKickThreshold, config.WarnBanThreshold)
	result := Result{WarnCount: count, Escalation: escalation}

	e.notifyWarned(req, count, config, escalation)

	switch escalation {
	case EscalationKick:
		reason := fmt.Sprintf("[WarnKick] Reached %d warns. %s", count, req.Reason)
		auditReason, err := AuditReason(req.IssuerName, req.IssuerID, reason)
		if err != nil {
			return result, err
		}
		if err := e.platform.Kick(req.GuildID, req.TargetID, auditReason); err != nil {
			return result, err
		}
	case EscalationBan:
		reason := fmt.Sprintf("[WarnBan] Exceeded WarnBan Limit (%d). %s", count, req.Reason)
		auditReason, err := AuditReason(req.IssuerName, req.IssuerID, reason)
		if err != nil {
			return result, err
		}
		if err := e.platform.Ban(req.GuildID, req.TargetID, auditReason); err != nil {
			return result, err
		}
	}

	e.modLog.Send(ctx, req.GuildID, modlog.CategoryMod, warnLogMessage(req, count))
	return result, nil
}

// Unmute removes the configured mute role and the restriction record.
func (e *Engine) Unmute(ctx context.Context, guildID, targetID, targetName, issuerID, issuerName string) error {
	config, err := e.store.GetGuildConfig(ctx, guildID)
	if err != nil {
		return err
	}
	if config.MuteRoleID == "" {
		return ErrNoMuteRole
	}
	muted, err := e.store.HasRestriction(ctx, guildID, targetID, config.MuteRoleID)
	if err != nil {
		return err
	}
	if !muted {
		return ErrNotMuted
	}

	auditReason, err := AuditReason(issuerName, issuerID, "[Unmute]")
	if err != nil {
		return err
	}
	if err := e.platform.RemoveRole(guildID, targetID, config.MuteRoleID, auditReason); err != nil {
		return err
	}
	if err := e.store.RemoveRestriction(ctx, guildID, targetID, config.MuteRoleID); err != nil {
		e.logger.Warn("restriction delete failed", zap.String("guild_id", guildID), zap.String("user_id", targetID), zap.Error(err))
	}

	message := fmt.Sprintf("🔈 **Unmuted**: <@%s> unmuted <@%s> | %s\n🏷 __User ID__: %s",
		issuerID, targetID, targetName, targetID)
	e.modLog.Send(ctx, guildID, modlog.CategoryMod, message)
	return nil
}

// Unban lifts a ban. The target is identified by id since banned users are
// not guild members.
func (e *Engine) Unban(ctx context.Context, guildID, targetID, targetName, issuerID, issuerName, reason string) error {
	auditReason, err := AuditReason(issuerName, issuerID, reason)
	if err != nil {
		return err
	}
	if err := e.platform.Unban(guildID, targetID, auditReason); err != nil {
		return err
	}

	message := fmt.Sprintf("⭕ **Unban**: <@%s> unbanned <@%s> | %s\n🏷 __User ID__: %s",
		issuerID, targetID, targetName, targetID)
	message += reasonLine(reason)
	e.modLog.Send(ctx, guildID, modlog.CategoryMod, message)
	return nil
}

// CompleteTimeBan reacts to an expired timed ban. A guild the bot has left
// is an expected race and ends the reaction silently.
func (e *Engine) CompleteTimeBan(ctx context.Context, job storage.TimedJob) {
	payload, err := scheduler.DecodeTimeBan(job.Payload)
	if err != nil {
		e.logger.Error("bad timeban payload", zap.Int64("job_id", job.ID), zap.Error(err))
		return
	}
	if !e.platform.InGuild(payload.GuildID) {
		return
	}

	created := job.CreatedAt.UTC().Format(timestampLayout)
	reason := fmt.Sprintf("Timed ban made by %s at %s expired", payload.ModeratorID, created)
	if err := e.platform.Unban(payload.GuildID, payload.UserID, reason); err != nil {
		e.logger.Warn("expired ban removal failed",
			zap.String("guild_id", payload.GuildID), zap.String("user_id", payload.UserID), zap.Error(err))
		return
	}

	message := fmt.Sprintf("⚠ **Ban expired**: <@%s>\nTimeban was made by <@%s> at %s.",
		payload.UserID, payload.ModeratorID, created)
	e.modLog.Send(ctx, payload.GuildID, modlog.CategoryMod, message)
}

// CompleteTimedRestriction reacts to an expired timed role restriction,
// tolerating the guild, role, or member having disappeared in the meantime.
func (e *Engine) CompleteTimedRestriction(ctx context.Context, job storage.TimedJob) {
	payload, err := scheduler.DecodeTimedRestriction(job.Payload)
	if err != nil {
		e.logger.Error("bad timed restriction payload", zap.Int64("job_id", job.ID), zap.Error(err))
		return
	}
	if !e.platform.InGuild(payload.GuildID) {
		return
	}

	created := job.CreatedAt.UTC().Format(timestampLayout)
	if !e.platform.RoleExists(payload.GuildID, payload.RoleID) {
		e.removeRestriction(ctx, payload)
		return
	}

	if !e.platform.IsMember(payload.GuildID, payload.UserID) {
		e.removeRestriction(ctx, payload)
		message := fmt.Sprintf("⚠ **Timed restriction expired**: %s\n🏷 __Role ID__: %s\nTimed restriction was made by <@%s> at %s.",
			payload.UserID, payload.RoleID, payload.ModeratorID, created)
		e.modLog.Send(ctx, payload.GuildID, modlog.CategoryMod, message)
		return
	}

	reason := fmt.Sprintf("Timed restriction made by %s at %s expired", payload.ModeratorID, created)
	if err := e.platform.RemoveRole(payload.GuildID, payload.UserID, payload.RoleID, reason); err != nil {
		e.logger.Warn("expired restriction removal failed",
			zap.String("guild_id", payload.GuildID), zap.String("user_id", payload.UserID), zap.Error(err))
	}
	e.removeRestriction(ctx, payload)
	message := fmt.Sprintf("⚠ **Timed restriction expired**: <@%s>\n🏷 __Role ID__: %s\nTimed restriction was made by <@%s> at %s.",
		payload.UserID, payload.RoleID, payload.ModeratorID, created)
	e.modLog.Send(ctx, payload.GuildID, modlog.CategoryMod, message)
}

func (e *Engine) removeRestriction(ctx context.Context, payload scheduler.TimedRestrictionPayload) {
	if err := e.store.RemoveRestriction(ctx, payload.GuildID, payload.UserID, payload.RoleID); err != nil {
		e.logger.Warn("restriction delete failed",
			zap.String("guild_id", payload.GuildID), zap.String("user_id", payload.UserID), zap.Error(err))
	}
}

func (e *Engine) scheduleUndo(ctx context.Context, req ActionRequest, muteRole string, createdAt, expiresAt time.Time) error {
	switch req.Action {
	case ActionBan:
		_, err := e.jobs.Schedule(ctx, storage.JobTimeBan, createdAt, expiresAt, scheduler.TimeBanPayload{
			GuildID:     req.GuildID,
			UserID:      req.TargetID,
			ModeratorID: req.IssuerID,
		})
		return err
	case ActionMute:
		_, err := e.jobs.Schedule(ctx, storage.JobTimedRestriction, createdAt, expiresAt, scheduler.TimedRestrictionPayload{
			GuildID:     req.GuildID,
			UserID:      req.TargetID,
			RoleID:      muteRole,
			ModeratorID: req.IssuerID,
		})
		return err
	default:
		return fmt.Errorf("action %q cannot be timed", req.Action)
	}
}

func (e *Engine) mutate(req ActionRequest, muteRole, auditReason string) error {
	switch req.Action {
	case ActionKick:
		return e.platform.Kick(req.GuildID, req.TargetID, auditReason)
	case ActionBan:
		return e.platform.Ban(req.GuildID, req.TargetID, auditReason)
	case ActionMute:
		return e.platform.AddRole(req.GuildID, req.TargetID, muteRole, auditReason)
	default:
		return fmt.Errorf("action %q has no platform mutation", req.Action)
	}
}

func (e *Engine) recordEvent(ctx context.Context, req ActionRequest, at time.Time) {
	eventType := map[Action]string{
		ActionKick: storage.EventKick,
		ActionBan:  storage.EventBan,
		ActionMute: storage.EventMute,
	}[req.Action]
	_, err := e.store.AddModLogEvent(ctx, storage.ModLogEvent{
		GuildID:    req.GuildID,
		UserID:     req.TargetID,
		EventType:  eventType,
		IssuerID:   req.IssuerID,
		IssuerName: req.IssuerName,
		Reason:     req.Reason,
		CreatedAt:  at,
	})
	if err != nil {
		e.logger.Warn("mod log event append failed",
			zap.String("guild_id", req.GuildID), zap.String("user_id", req.TargetID), zap.Error(err))
	}
}

func (e *Engine) notifyTarget(req ActionRequest, durationText string) {
	guildName, err := e.platform.GuildName(req.GuildID)
	if err != nil {
		guildName = req.GuildID
	}

	var message string
	switch req.Action {
	case ActionKick:
		message = fmt.Sprintf("You were kicked from %s.", guildName)
		if req.Reason != "" {
			message += fmt.Sprintf(" The given reason is: %q.", req.Reason)
		}
		message += "\n\nYou are able to rejoin the server, but please be sure to behave when participating again."
	case ActionBan:
		message = fmt.Sprintf("You were banned from %s.", guildName)
		if req.Reason != "" {
			message += fmt.Sprintf(" The given reason is: %q.", req.Reason)
		}
		if durationText != "" {
			message += fmt.Sprintf("\n\nThis ban will expire in %s.", durationText)
		} else {
			message += "\n\nThis ban does not expire."
		}
		message += "\n\nIf you believe this to be in error, please message the staff."
	case ActionMute:
		message = fmt.Sprintf("You were muted on %s!", guildName)
		if req.Reason != "" {
			message += fmt.Sprintf(" The given reason is: %q.", req.Reason)
		}
		if durationText != "" {
			message += fmt.Sprintf("\n\nThis mute will expire in %s.", durationText)
		}
	}

	if err := e.platform.DirectMessage(req.TargetID, message); err != nil {
		e.logger.Debug("target notification failed", zap.String("user_id", req.TargetID), zap.Error(err))
	}
}

func (e *Engine) notifyWarned(req ActionRequest, count int, config storage.GuildConfig, escalation Escalation) {
	guildName, err := e.platform.GuildName(req.GuildID)
	if err != nil {
		guildName = req.GuildID
	}

	message := fmt.Sprintf("You were warned on %s.", guildName)
	if req.Reason != "" {
		message += " The given reason is: " + req.Reason
	}
	message += fmt.Sprintf("\n\nThis is warn #%d.", count)

	if config.WarnKickThreshold > 0 && count == config.WarnKickThreshold-1 {
		message += " __The next warn will automatically kick.__"
	}
	if config.WarnBanThreshold > 0 && count == config.WarnBanThreshold-1 {
		message += " This is your final warning. Do note that **one more warn will result in a ban**."
	}
	switch escalation {
	case EscalationKick:
		message += "\n\nYou were kicked because of this warning. You can join again right away."
	case EscalationBan:
		message += fmt.Sprintf("\n\nYou were automatically banned due to reaching the guild's warn ban limit of %d warnings.", config.WarnBanThreshold)
		message += "\nIf you believe this to be in error, please message the staff."
	}

	if err := e.platform.DirectMessage(req.TargetID, message); err != nil {
		e.logger.Debug("target notification failed", zap.String("user_id", req.TargetID), zap.Error(err))
	}
}

func platformReason(req ActionRequest, durationText string) string {
	switch req.Action {
	case ActionMute:
		if durationText != "" {
			return fmt.Sprintf("%s (Timemute expires in %s)", req.Reason, durationText)
		}
		return "[Mute] " + req.Reason
	case ActionBan:
		if durationText != "" {
			return fmt.Sprintf("%s (Timeban expires in %s)", req.Reason, durationText)
		}
	}
	return req.Reason
}
