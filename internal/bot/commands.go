package bot

import "github.com/bwmarrin/discordgo"

func userOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func stringOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "ban",
			Description: "Ban a user, optionally for a limited time",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("user", "User to ban", true),
				stringOption("reason", "Reason for the ban", false),
				stringOption("duration", "Ban duration such as 30m, 12h or 7d", false),
			},
		},
		{
			Name:        "banid",
			Description: "Ban a user by id, even if they are not a member",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("user_id", "Id of the user to ban", true),
				stringOption("reason", "Reason for the ban", false),
			},
		},
		{
			Name:        "kick",
			Description: "Kick a user",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("user", "User to kick", true),
				stringOption("reason", "Reason for the kick", false),
			},
		},
		{
			Name:        "mute",
			Description: "Mute a user, optionally for a limited time",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("user", "User to mute", true),
				stringOption("reason", "Reason for the mute", false),
				stringOption("duration", "Mute duration such as 30m, 12h or 7d", false),
			},
		},
		{
			Name:        "unmute",
			Description: "Unmute a user",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("user", "User to unmute", true),
			},
		},
		{
			Name:        "unban",
			Description: "Lift a ban by user id",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("user_id", "Id of the banned user", true),
				stringOption("reason", "Reason for the unban", false),
			},
		},
		{
			Name:        "warn",
			Description: "Warn a user",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("user", "User to warn", true),
				stringOption("reason", "Reason for the warning", false),
			},
		},
		{
			Name:        "warns",
			Description: "Inspect and manage warnings",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List a user's warnings",
					Options: []*discordgo.ApplicationCommandOption{
						userOption("user", "User whose warnings to list", true),
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "mine",
					Description: "List your own warnings",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "delete",
					Description: "Delete one warning by its number",
					Options: []*discordgo.ApplicationCommandOption{
						userOption("user", "User whose warning to delete", true),
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "number",
							Description: "Warning number, counting from 1",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "clear",
					Description: "Clear all of a user's warnings",
					Options: []*discordgo.ApplicationCommandOption{
						userOption("user", "User whose warnings to clear", true),
					},
				},
			},
		},
		{
			Name:        "lock",
			Description: "Lock a channel for the everyone role",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Channel to lock, defaults to the current one",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "hard",
					Description: "Also hide the channel",
					Required:    false,
				},
			},
		},
		{
			Name:        "unlock",
			Description: "Unlock a channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Channel to unlock, defaults to the current one",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "hard",
					Description: "Unlock the hidden state",
					Required:    false,
				},
			},
		},
		{
			Name:        "nickname",
			Description: "Change or clear a user's nickname",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("user", "User to rename", true),
				stringOption("name", "New nickname, empty to clear", false),
			},
		},
		{
			Name:        "logchannel",
			Description: "Route a log category to a channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "category",
					Description: "Log category",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "join", Value: "join"},
						{Name: "mod", Value: "mod"},
						{Name: "message", Value: "message"},
						{Name: "event", Value: "event"},
						{Name: "ban", Value: "ban"},
						{Name: "invite-watch", Value: "invite_watch"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Target channel, omit to disable the category",
					Required:    false,
				},
			},
		},
		{
			Name:        "muterole",
			Description: "Set or clear the mute role",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "Role applied by mute, omit to clear",
					Required:    false,
				},
			},
		},
		{
			Name:        "warnpunish",
			Description: "Set warn thresholds for automatic kick and ban",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "kick",
					Description: "Warn count that kicks, 0 to disable",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "ban",
					Description: "Warn count that bans, 0 to disable",
					Required:    false,
				},
			},
		},
		{
			Name:        "staffrole",
			Description: "Manage staff role assignments",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "set",
					Description: "Assign a staff level to a role",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionRole,
							Name:        "role",
							Description: "Role to mark as staff",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "level",
							Description: "Staff level",
							Required:    true,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "helper", Value: "helper"},
								{Name: "moderator", Value: "moderator"},
								{Name: "admin", Value: "admin"},
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove a role's staff level",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionRole,
							Name:        "role",
							Description: "Role to unmark",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List staff roles",
				},
			},
		},
		{
			Name:        "autorole",
			Description: "Manage roles granted to new members",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Grant a role to new members",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionRole,
							Name:        "role",
							Description: "Role to grant on join",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Stop granting a role",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionRole,
							Name:        "role",
							Description: "Role to stop granting",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List auto roles",
				},
			},
		},
		{
			Name:        "prefix",
			Description: "Manage custom command prefixes",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Add a prefix",
					Options: []*discordgo.ApplicationCommandOption{
						stringOption("prefix", "Prefix to add", true),
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove a prefix",
					Options: []*discordgo.ApplicationCommandOption{
						stringOption("prefix", "Prefix to remove", true),
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List prefixes",
				},
			},
		},
		{
			Name:        "userinfo",
			Description: "Show information about a user",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("user", "User to inspect, defaults to you", false),
			},
		},
		{
			Name:        "serverinfo",
			Description: "Show information about this server",
		},
		{
			Name:        "roleinfo",
			Description: "Show information about a role",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "Role to inspect",
					Required:    true,
				},
			},
		},
		{
			Name:        "avatar",
			Description: "Show a user's avatar",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("user", "User whose avatar to show, defaults to you", false),
			},
		},
		{
			Name:        "stats",
			Description: "Command usage statistics",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "server",
					Description: "Most used commands in this server",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "today",
					Description: "Most used commands today",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "me",
					Description: "Your most used commands",
				},
			},
		},
		{
			Name:        "emoji",
			Description: "Manage server emoji",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Add an emoji from an image url",
					Options: []*discordgo.ApplicationCommandOption{
						stringOption("name", "Name for the new emoji", true),
						stringOption("url", "Image url", true),
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "copy",
					Description: "Copy an emoji from another server",
					Options: []*discordgo.ApplicationCommandOption{
						stringOption("emoji", "Emoji to copy", true),
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "delete",
					Description: "Delete an emoji",
					Options: []*discordgo.ApplicationCommandOption{
						stringOption("emoji", "Emoji or emoji id to delete", true),
					},
				},
			},
		},
	}

	appID := b.session.State.User.ID

	existing, err := b.session.ApplicationCommands(appID, "")
	if err != nil {
		for _, cmd := range commands {
			if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
				return err
			}
		}
		return nil
	}

	existingByName := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{})
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := b.session.ApplicationCommandEdit(appID, "", current.ID, cmd); err != nil {
				return err
			}
			continue
		}
		if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			return err
		}
	}

	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		_ = b.session.ApplicationCommandDelete(appID, "", cmd.ID)
	}

	return nil
}
