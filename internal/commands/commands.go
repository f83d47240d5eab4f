package commands

import "github.com/bwmarrin/discordgo"

// GetAllCommands returns all application commands
func GetAllCommands() []*discordgo.ApplicationCommand {
	var leaderboardMin float64 = 1
	var adminOnly int64 = discordgo.PermissionAdministrator
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Check Discord API latency and connection quality",
		},
		{
			Name:        "import",
			Description: "Import recent moderation actions from the audit log",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "server_id",
					Description: "Guild to import (defaults to this one)",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    false,
				},
			},
		},
		{
			Name:        "history",
			Description: "Show a user's full moderation history",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "user",
					Description: "User to look up",
					Type:        discordgo.ApplicationCommandOptionUser,
					Required:    true,
				},
			},
		},
		{
			Name:        "check",
			Description: "Quick reputation check for a user",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "user",
					Description: "User to check",
					Type:        discordgo.ApplicationCommandOptionUser,
					Required:    true,
				},
			},
		},
		{
			Name:        "rep",
			Description: "Show a reputation score (yours by default)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "user",
					Description: "User to look up",
					Type:        discordgo.ApplicationCommandOptionUser,
					Required:    false,
				},
			},
		},
		{
			Name:        "leaderboard",
			Description: "Show the lowest reputation scores on record",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "limit",
					Description: "How many entries to show",
					Type:        discordgo.ApplicationCommandOptionInteger,
					Required:    false,
					MinValue:    &leaderboardMin,
				},
			},
		},
		{
			Name:        "stats",
			Description: "Show moderation statistics for a guild",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "server_id",
					Description: "Guild to summarize (defaults to this one)",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    false,
				},
			},
		},
		{
			Name:        "repguild",
			Description: "Show a guild's overall reputation summary",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "guild_id",
					Description: "Guild to summarize (defaults to this one)",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    false,
				},
			},
		},
		{
			Name:        "sysinfo",
			Description: "Show host, runtime, and bot statistics",
		},
		{
			Name:                     "disconnect",
			Description:              "Disconnect a member from voice and play the farewell sound",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "member",
					Description: "The member to disconnect",
					Type:        discordgo.ApplicationCommandOptionUser,
					Required:    true,
				},
			},
		},
	}
}
