package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"modwarden/internal/storage"
)

const embedColor = 0x5865F2

func snowflakeTime(id string) (time.Time, error) {
	return discordgo.SnowflakeTimestamp(id)
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

func (b *Bot) guild(guildID string) (*discordgo.Guild, error) {
	if guild, err := b.session.State.Guild(guildID); err == nil {
		return guild, nil
	}
	return b.session.Guild(guildID)
}

func (b *Bot) handleUserInfo(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data.Options)
	target := issuer(i)
	if opt, ok := opts["user"]; ok {
		target = opt.UserValue(s)
	}

	embed := &discordgo.MessageEmbed{
		Title: displayName(target),
		Color: embedColor,
		Thumbnail: &discordgo.MessageEmbedThumbnail{
			URL: target.AvatarURL("256"),
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "ID", Value: target.ID, Inline: true},
			{Name: "Bot", Value: fmt.Sprintf("%t", target.Bot), Inline: true},
		},
	}
	if created, err := snowflakeTime(target.ID); err == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Account created", Value: formatTime(created), Inline: true,
		})
	}

	member, err := s.State.Member(i.GuildID, target.ID)
	if err != nil {
		member, err = s.GuildMember(i.GuildID, target.ID)
	}
	if err == nil && member != nil {
		if !member.JoinedAt.IsZero() {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "Joined", Value: formatTime(member.JoinedAt), Inline: true,
			})
		}
		if member.Nick != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "Nickname", Value: member.Nick, Inline: true,
			})
		}
		if len(member.Roles) > 0 {
			mentions := make([]string, 0, len(member.Roles))
			for _, roleID := range member.Roles {
				mentions = append(mentions, "<@&"+roleID+">")
			}
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "Roles", Value: strings.Join(mentions, " "),
			})
		}
	}

	b.respondEmbed(s, i, embed, false)
}

func (b *Bot) handleServerInfo(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	guild, err := b.guild(i.GuildID)
	if err != nil {
		b.respond(s, i, "Could not load the server: "+err.Error(), true)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: guild.Name,
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "ID", Value: guild.ID, Inline: true},
			{Name: "Owner", Value: "<@" + guild.OwnerID + ">", Inline: true},
			{Name: "Members", Value: fmt.Sprintf("%d", guild.MemberCount), Inline: true},
			{Name: "Roles", Value: fmt.Sprintf("%d", len(guild.Roles)), Inline: true},
		},
	}
	if guild.Icon != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: guild.IconURL("256")}
	}
	if created, err := snowflakeTime(guild.ID); err == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Created", Value: formatTime(created), Inline: true,
		})
	}

	if prefixes, err := b.store.ListPrefixes(ctx, i.GuildID); err == nil && len(prefixes) > 0 {
		quoted := make([]string, 0, len(prefixes))
		for _, p := range prefixes {
			quoted = append(quoted, "`"+p+"`")
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Prefixes", Value: strings.Join(quoted, ", "), Inline: true,
		})
	}
	if cfg, err := b.store.GetGuildConfig(ctx, i.GuildID); err == nil {
		if cfg.MuteRoleID != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "Mute role", Value: "<@&" + cfg.MuteRoleID + ">", Inline: true,
			})
		}
		var punish []string
		if cfg.WarnKickThreshold > 0 {
			punish = append(punish, fmt.Sprintf("kick at %d", cfg.WarnKickThreshold))
		}
		if cfg.WarnBanThreshold > 0 {
			punish = append(punish, fmt.Sprintf("ban at %d", cfg.WarnBanThreshold))
		}
		if len(punish) > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "Warn punishments", Value: strings.Join(punish, ", "), Inline: true,
			})
		}
	}

	b.respondEmbed(s, i, embed, false)
}

func (b *Bot) handleRoleInfo(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data.Options)
	role := opts["role"].RoleValue(s, i.GuildID)
	if role == nil {
		b.respond(s, i, "Could not load that role.", true)
		return
	}

	members := 0
	if guild, err := b.guild(i.GuildID); err == nil {
		for _, m := range guild.Members {
			for _, roleID := range m.Roles {
				if roleID == role.ID {
					members++
					break
				}
			}
		}
	}

	embed := &discordgo.MessageEmbed{
		Title: role.Name,
		Color: role.Color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "ID", Value: role.ID, Inline: true},
			{Name: "Color", Value: fmt.Sprintf("#%06X", role.Color), Inline: true},
			{Name: "Position", Value: fmt.Sprintf("%d", role.Position), Inline: true},
			{Name: "Mentionable", Value: fmt.Sprintf("%t", role.Mentionable), Inline: true},
			{Name: "Hoisted", Value: fmt.Sprintf("%t", role.Hoist), Inline: true},
			{Name: "Members", Value: fmt.Sprintf("%d", members), Inline: true},
		},
	}
	if created, err := snowflakeTime(role.ID); err == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Created", Value: formatTime(created), Inline: true,
		})
	}

	b.respondEmbed(s, i, embed, false)
}

func (b *Bot) handleAvatar(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data.Options)
	target := issuer(i)
	if opt, ok := opts["user"]; ok {
		target = opt.UserValue(s)
	}

	b.respondEmbed(s, i, &discordgo.MessageEmbed{
		Title: "Avatar of " + displayName(target),
		Color: embedColor,
		Image: &discordgo.MessageEmbedImage{URL: target.AvatarURL("1024")},
	}, false)
}

func (b *Bot) handleStats(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	// Flush buffered counts so the answer includes this very command.
	b.usage.Flush(ctx)

	const limit = 10
	sub := data.Options[0]

	switch sub.Name {
	case "server":
		commands, err := b.store.TopCommands(ctx, i.GuildID, limit)
		if err != nil {
			b.respond(s, i, "Could not load usage statistics: "+err.Error(), true)
			return
		}
		members, err := b.store.TopMembers(ctx, i.GuildID, limit)
		if err != nil {
			b.respond(s, i, "Could not load usage statistics: "+err.Error(), true)
			return
		}
		total, err := b.store.TotalCommandUses(ctx, i.GuildID)
		if err != nil {
			b.respond(s, i, "Could not load usage statistics: "+err.Error(), true)
			return
		}
		embed := &discordgo.MessageEmbed{
			Title: "Command usage",
			Color: embedColor,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Total commands used", Value: fmt.Sprintf("%d", total)},
				{Name: "Top commands", Value: formatCommandCounts(commands)},
				{Name: "Top members", Value: formatMemberCounts(members)},
			},
		}
		b.respondEmbed(s, i, embed, false)
	case "today":
		commands, err := b.store.TopCommandsToday(ctx, i.GuildID, time.Now(), limit)
		if err != nil {
			b.respond(s, i, "Could not load usage statistics: "+err.Error(), true)
			return
		}
		b.respondEmbed(s, i, &discordgo.MessageEmbed{
			Title:  "Command usage today",
			Color:  embedColor,
			Fields: []*discordgo.MessageEmbedField{{Name: "Top commands", Value: formatCommandCounts(commands)}},
		}, false)
	case "me":
		who := issuer(i)
		commands, err := b.store.TopMemberCommands(ctx, i.GuildID, who.ID, limit)
		if err != nil {
			b.respond(s, i, "Could not load usage statistics: "+err.Error(), true)
			return
		}
		b.respondEmbed(s, i, &discordgo.MessageEmbed{
			Title:  "Your command usage",
			Color:  embedColor,
			Fields: []*discordgo.MessageEmbedField{{Name: "Top commands", Value: formatCommandCounts(commands)}},
		}, true)
	}
}

func formatCommandCounts(counts []storage.CommandCount) string {
	if len(counts) == 0 {
		return "No commands used yet."
	}
	var sb strings.Builder
	for idx, c := range counts {
		fmt.Fprintf(&sb, "%d. `%s` (%d uses)\n", idx+1, c.Command, c.Count)
	}
	return sb.String()
}

func formatMemberCounts(counts []storage.MemberCount) string {
	if len(counts) == 0 {
		return "No commands used yet."
	}
	var sb strings.Builder
	for idx, c := range counts {
		fmt.Fprintf(&sb, "%d. <@%s> (%d uses)\n", idx+1, c.UserID, c.Count)
	}
	return sb.String()
}
