package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/swoopingasaservice/discordbots/internal/store"
)

// Embed colors shared across the bot's responses.
const (
	ColorDefault = 0x3498DB
	ColorError   = 0xE74C3C
	ColorSuccess = 0x2ECC71
	ColorWarning = 0xF39C12
	ColorAction  = 0x992D22
)

var (
	discordSession *discordgo.Session
	targetChannels []string
)

// SetSession sets the Discord session used for outbound notifications
func SetSession(session *discordgo.Session, channels []string) {
	discordSession = session
	targetChannels = channels
}

// SendActionEmbed mirrors one recorded moderation action into the
// target channel(s).
func SendActionEmbed(userID, userName string, action store.ModerationAction) {
	if discordSession == nil || len(targetChannels) == 0 {
		return
	}

	title := titleCase(action.Action)
	if userName == "" {
		userName = fmt.Sprintf("User %s", userID)
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "User ID",
			Value:  fmt.Sprintf("`%s`", userID),
			Inline: true,
		},
		{
			Name:   "When (UTC)",
			Value:  formatTimestamp(action.Timestamp),
			Inline: true,
		},
		{
			Name:   "Reason",
			Value:  action.Reason,
			Inline: false,
		},
	}

	if mod := action.Moderator.String(); mod != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Moderator",
			Value:  mod,
			Inline: true,
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: fmt.Sprintf("%s (%s) was %s in guild %s", userName, userID, pastTense(action.Action), action.GuildID),
		Color:       ColorAction,
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "All timestamps are in UTC",
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	for _, channelID := range targetChannels {
		go discordSession.ChannelMessageSendEmbed(channelID, embed)
	}
}

// SendGuildNotice announces joining or leaving a guild.
func SendGuildNotice(message string) {
	if discordSession == nil || len(targetChannels) == 0 {
		return
	}
	for _, channelID := range targetChannels {
		go discordSession.ChannelMessageSend(channelID, message)
	}
}

// SendWatchLine relays one watch-log line to the target channel(s).
func SendWatchLine(line string) {
	if discordSession == nil || len(targetChannels) == 0 {
		return
	}
	for _, channelID := range targetChannels {
		go discordSession.ChannelMessageSend(channelID, line)
	}
}

// pastTense renders an action kind as embed prose.
func pastTense(kind string) string {
	switch kind {
	case "ban":
		return "banned"
	case "kick":
		return "kicked"
	case "timeout":
		return "timed out"
	default:
		return kind
	}
}

// titleCase capitalizes an action kind for embed titles.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// formatTimestamp renders a stored ISO-8601 timestamp the way the
// history embeds display it, falling back to the raw string.
func formatTimestamp(timestamp string) string {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, timestamp); err == nil {
			return t.UTC().Format("2006-01-02 15:04:05")
		}
	}
	if timestamp == "" {
		return "Unknown"
	}
	return timestamp
}
