package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"modwarden/internal/modlog"
	"modwarden/internal/watch"
)

func (b *Bot) onMessageCreate(session *discordgo.Session, event *discordgo.MessageCreate) {
	if event.GuildID == "" || event.Author == nil || event.Author.Bot {
		return
	}
	ctx := context.Background()

	if codes := watch.Invites(event.Content); len(codes) > 0 {
		b.modLog.Send(ctx, event.GuildID, modlog.CategoryInviteWatch, fmt.Sprintf(
			"📨 **Invite posted** by <@%s> in <#%s>: `%s`",
			event.Author.ID, event.ChannelID, strings.Join(codes, "`, `")))
	}
	if hosts := watch.LookalikeHosts(event.Content); len(hosts) > 0 {
		b.modLog.Send(ctx, event.GuildID, modlog.CategoryInviteWatch, fmt.Sprintf(
			"🎣 **Suspicious invite link** by <@%s> in <#%s>: `%s`",
			event.Author.ID, event.ChannelID, strings.Join(hosts, "`, `")))
	}
}

// onMessageDelete logs deleted messages. Content is only available while
// the message is still in the session cache.
func (b *Bot) onMessageDelete(session *discordgo.Session, event *discordgo.MessageDelete) {
	if event.GuildID == "" {
		return
	}
	cached, err := session.State.Message(event.ChannelID, event.ID)
	if err != nil || cached.Author == nil || cached.Author.Bot {
		return
	}
	content := cached.Content
	if content == "" {
		content = "*(no text content)*"
	}
	b.modLog.Send(context.Background(), event.GuildID, modlog.CategoryMessage, fmt.Sprintf(
		"🗑 **Message deleted** in <#%s> | %s\n🏷 __User ID__: %s\n%s",
		event.ChannelID, displayName(cached.Author), cached.Author.ID, content))
}

func (b *Bot) onGuildMemberRemove(session *discordgo.Session, event *discordgo.GuildMemberRemove) {
	if event.GuildID == "" || event.User == nil {
		return
	}
	b.modLog.Send(context.Background(), event.GuildID, modlog.CategoryEvent,
		"📤 **Leave**: <@"+event.User.ID+"> | "+displayName(event.User))
}

func (b *Bot) onGuildBanAdd(session *discordgo.Session, event *discordgo.GuildBanAdd) {
	if event.GuildID == "" || event.User == nil {
		return
	}
	b.modLog.Send(context.Background(), event.GuildID, modlog.CategoryBan, fmt.Sprintf(
		"⛔ **Ban**: %s\n🏷 __User ID__: %s", displayName(event.User), event.User.ID))
}
