package bot

import (
	"context"

	"modwarden/internal/config"
	"modwarden/internal/lockdown"
	"modwarden/internal/moderation"
	"modwarden/internal/modlog"
	"modwarden/internal/storage"
	"modwarden/internal/usagestats"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type Bot struct {
	cfg      config.Config
	logger   *zap.Logger
	store    *storage.Store
	engine   *moderation.Engine
	lockdown *lockdown.Toggle
	modLog   *modlog.Logger
	usage    *usagestats.Recorder
	session  *discordgo.Session
	platform *platformClient
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store, modLogger *modlog.Logger, usage *usagestats.Recorder) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildBans |
		discordgo.IntentsGuildEmojis |
		discordgo.IntentMessageContent
	session.State.MaxMessageCount = 1000

	b := &Bot{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		modLog:   modLogger,
		usage:    usage,
		session:  session,
		platform: &platformClient{session: session},
	}
	b.lockdown = lockdown.New(&channelClient{session: session}, modLogger, logger)

	modLogger.SetNotifier(func(_ context.Context, channelID, message string) {
		_, _ = session.ChannelMessageSend(channelID, message)
	})

	return b, nil
}

// Platform exposes the session-backed platform adapter so the moderation
// engine can be wired against the live session.
func (b *Bot) Platform() moderation.Platform {
	return b.platform
}

// SetEngine wires the moderation engine. Must be called before Start.
func (b *Bot) SetEngine(engine *moderation.Engine) {
	b.engine = engine
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onGuildMemberAdd)
	b.session.AddHandler(b.onGuildMemberRemove)
	b.session.AddHandler(b.onGuildBanAdd)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onMessageDelete)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}

	return b.registerCommands()
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.engine.SetBotUser(session.State.User.ID)
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username))
}

// onGuildMemberAdd grants the guild's auto roles to every new member. A role
// the bot can no longer assign is skipped, not retried.
func (b *Bot) onGuildMemberAdd(session *discordgo.Session, event *discordgo.GuildMemberAdd) {
	if event.GuildID == "" || event.User == nil {
		return
	}
	ctx := context.Background()
	roleIDs, err := b.store.ListAutoRoles(ctx, event.GuildID)
	if err != nil {
		b.logger.Warn("auto role lookup failed", zap.String("guild_id", event.GuildID), zap.Error(err))
		return
	}
	for _, roleID := range roleIDs {
		if err := session.GuildMemberRoleAdd(event.GuildID, event.User.ID, roleID); err != nil {
			b.logger.Warn("auto role grant failed",
				zap.String("guild_id", event.GuildID), zap.String("role_id", roleID), zap.Error(err))
		}
	}
	b.modLog.Send(ctx, event.GuildID, modlog.CategoryJoin, "📥 **Join**: <@"+event.User.ID+"> | "+event.User.Username)
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	if embed == nil {
		b.respond(session, interaction, "No response available.", ephemeral)
		return
	}
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}

// hasStaffOrPerms authorizes a command: the issuer needs either the given
// platform permission or a stored staff role at or above the given level.
func (b *Bot) hasStaffOrPerms(ctx context.Context, interaction *discordgo.InteractionCreate, level string, perm int64) bool {
	member := interaction.Member
	if member == nil {
		return false
	}
	if member.Permissions&perm != 0 || member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}

	staffRoles, err := b.store.ListStaffRoles(ctx, interaction.GuildID)
	if err != nil {
		b.logger.Warn("staff role lookup failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		return false
	}
	required := storage.LevelRank(level)
	levelByRole := make(map[string]string, len(staffRoles))
	for _, role := range staffRoles {
		levelByRole[role.RoleID] = role.Level
	}
	for _, roleID := range member.Roles {
		if lvl, ok := levelByRole[roleID]; ok && storage.LevelRank(lvl) >= required {
			return true
		}
	}
	return false
}

func displayName(user *discordgo.User) string {
	if user == nil {
		return "unknown"
	}
	if user.Discriminator != "" && user.Discriminator != "0" {
		return user.Username + "#" + user.Discriminator
	}
	return user.Username
}

func issuer(interaction *discordgo.InteractionCreate) *discordgo.User {
	if interaction.Member != nil {
		return interaction.Member.User
	}
	return interaction.User
}
