package bot

import (
	"errors"

	"modwarden/internal/lockdown"

	"github.com/bwmarrin/discordgo"
)

// platformClient adapts the discord session to the moderation engine's
// Platform interface.
type platformClient struct {
	session *discordgo.Session
}

func (p *platformClient) GuildName(guildID string) (string, error) {
	guild, err := p.session.State.Guild(guildID)
	if err != nil || guild == nil {
		guild, err = p.session.Guild(guildID)
		if err != nil {
			return "", err
		}
	}
	return guild.Name, nil
}

func (p *platformClient) InGuild(guildID string) bool {
	guild, err := p.session.State.Guild(guildID)
	return err == nil && guild != nil
}

func (p *platformClient) RoleExists(guildID, roleID string) bool {
	role, err := p.session.State.Role(guildID, roleID)
	return err == nil && role != nil
}

func (p *platformClient) IsMember(guildID, userID string) bool {
	member, err := p.session.State.Member(guildID, userID)
	if err == nil && member != nil {
		return true
	}
	member, err = p.session.GuildMember(guildID, userID)
	return err == nil && member != nil
}

func (p *platformClient) MemberRoles(guildID, userID string) ([]string, error) {
	member, err := p.session.State.Member(guildID, userID)
	if err != nil || member == nil {
		member, err = p.session.GuildMember(guildID, userID)
		if err != nil {
			return nil, err
		}
	}
	return member.Roles, nil
}

func (p *platformClient) Kick(guildID, userID, reason string) error {
	return p.session.GuildMemberDeleteWithReason(guildID, userID, reason)
}

func (p *platformClient) Ban(guildID, userID, reason string) error {
	return p.session.GuildBanCreateWithReason(guildID, userID, reason, 0)
}

func (p *platformClient) Unban(guildID, userID, reason string) error {
	return p.session.GuildBanDelete(guildID, userID, discordgo.WithAuditLogReason(reason))
}

func (p *platformClient) AddRole(guildID, userID, roleID, reason string) error {
	return p.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithAuditLogReason(reason))
}

func (p *platformClient) RemoveRole(guildID, userID, roleID, reason string) error {
	return p.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithAuditLogReason(reason))
}

func (p *platformClient) DirectMessage(userID, content string) error {
	channel, err := p.session.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = p.session.ChannelMessageSend(channel.ID, content)
	return err
}

// channelClient adapts everyone-role permission overwrites to the lockdown
// toggle.
type channelClient struct {
	session *discordgo.Session
}

func permissionBit(perm lockdown.Permission) int64 {
	switch perm {
	case lockdown.PermSend:
		return discordgo.PermissionSendMessages
	case lockdown.PermReact:
		return discordgo.PermissionAddReactions
	case lockdown.PermView:
		return discordgo.PermissionViewChannel
	default:
		return 0
	}
}

func (c *channelClient) channel(channelID string) (*discordgo.Channel, error) {
	channel, err := c.session.State.Channel(channelID)
	if err == nil && channel != nil {
		return channel, nil
	}
	return c.session.Channel(channelID)
}

func (c *channelClient) everyoneOverwrite(channel *discordgo.Channel) *discordgo.PermissionOverwrite {
	for _, overwrite := range channel.PermissionOverwrites {
		if overwrite.Type == discordgo.PermissionOverwriteTypeRole && overwrite.ID == channel.GuildID {
			return overwrite
		}
	}
	return nil
}

func (c *channelClient) Overwrite(channelID string, perm lockdown.Permission) (lockdown.Overwrite, error) {
	channel, err := c.channel(channelID)
	if err != nil {
		return lockdown.OverwriteNeutral, err
	}
	overwrite := c.everyoneOverwrite(channel)
	if overwrite == nil {
		return lockdown.OverwriteNeutral, nil
	}
	bit := permissionBit(perm)
	switch {
	case overwrite.Deny&bit != 0:
		return lockdown.OverwriteDeny, nil
	case overwrite.Allow&bit != 0:
		return lockdown.OverwriteAllow, nil
	default:
		return lockdown.OverwriteNeutral, nil
	}
}

func (c *channelClient) SetOverwrite(channelID string, perm lockdown.Permission, state lockdown.Overwrite) error {
	channel, err := c.channel(channelID)
	if err != nil {
		return err
	}
	if channel.GuildID == "" {
		return errors.New("channel is not in a guild")
	}

	var allow, deny int64
	if overwrite := c.everyoneOverwrite(channel); overwrite != nil {
		allow = overwrite.Allow
		deny = overwrite.Deny
	}

	bit := permissionBit(perm)
	allow &^= bit
	deny &^= bit
	switch state {
	case lockdown.OverwriteAllow:
		allow |= bit
	case lockdown.OverwriteDeny:
		deny |= bit
	}

	if allow == 0 && deny == 0 {
		return c.session.ChannelPermissionDelete(channelID, channel.GuildID)
	}
	return c.session.ChannelPermissionSet(channelID, channel.GuildID, discordgo.PermissionOverwriteTypeRole, allow, deny)
}
