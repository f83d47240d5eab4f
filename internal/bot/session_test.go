package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestNewSessionIntents(t *testing.T) {
	s, err := New("test-token")
	if err != nil {
		t.Fatal(err)
	}

	intents := s.GetDiscord().Identify.Intents

	// Every event the handlers subscribe to needs its gateway intent in
	// the identify mask, or Discord silently never delivers the event.
	required := []struct {
		name   string
		intent discordgo.Intent
	}{
		{name: "guilds", intent: discordgo.IntentsGuilds},
		{name: "moderation", intent: discordgo.IntentGuildModeration},
		{name: "members", intent: discordgo.IntentsGuildMembers},
		{name: "messages", intent: discordgo.IntentsGuildMessages},
		{name: "voice states", intent: discordgo.IntentsGuildVoiceStates},
		{name: "message content", intent: discordgo.IntentsMessageContent},
	}

	for _, r := range required {
		if intents&r.intent == 0 {
			t.Errorf("identify mask missing %s intent", r.name)
		}
	}
}
