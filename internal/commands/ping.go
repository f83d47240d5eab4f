package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// handlePing shows the actual latency to the Discord API
func handlePing(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	startTime := time.Now()

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return err
	}

	// Measure REST latency against a cheap endpoint
	apiStart := time.Now()
	_, err = s.Channel(i.ChannelID)
	apiLatency := time.Since(apiStart)

	responseLatency := time.Since(startTime)
	wsLatency := s.HeartbeatLatency()

	embed := &discordgo.MessageEmbed{
		Title: "🏓 Pong!",
		Color: latencyColor((wsLatency + apiLatency) / 2),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "WebSocket",
				Value:  fmt.Sprintf("`%dms`", wsLatency.Milliseconds()),
				Inline: true,
			},
			{
				Name:   "API",
				Value:  fmt.Sprintf("`%dms`", apiLatency.Milliseconds()),
				Inline: true,
			},
			{
				Name:   "Response",
				Value:  fmt.Sprintf("`%dms`", responseLatency.Milliseconds()),
				Inline: true,
			},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})

	return err
}

// latencyColor shades the ping embed with the same palette the
// moderation embeds use.
func latencyColor(latency time.Duration) int {
	switch {
	case latency < 60*time.Millisecond:
		return colorSuccess
	case latency < 150*time.Millisecond:
		return colorWarning
	default:
		return colorDanger
	}
}
