package bot

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func memberUpdate(until, before *time.Time) *discordgo.GuildMemberUpdate {
	m := &discordgo.GuildMemberUpdate{
		Member: &discordgo.Member{
			User:                       &discordgo.User{ID: "1"},
			CommunicationDisabledUntil: until,
		},
	}
	if before != nil {
		m.BeforeUpdate = &discordgo.Member{CommunicationDisabledUntil: before}
	}
	return m
}

func TestTimeoutApplied(t *testing.T) {
	future := time.Now().Add(10 * time.Minute)
	past := time.Now().Add(-10 * time.Minute)

	cases := []struct {
		name   string
		update *discordgo.GuildMemberUpdate
		want   bool
	}{
		{name: "new timeout", update: memberUpdate(&future, nil), want: true},
		{name: "no timeout", update: memberUpdate(nil, nil), want: false},
		{name: "expired timeout", update: memberUpdate(&past, nil), want: false},
		{name: "unchanged timeout", update: memberUpdate(&future, &future), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := timeoutApplied(tc.update); got != tc.want {
				t.Fatalf("timeoutApplied = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClassifyVoiceChange(t *testing.T) {
	update := func(before, after string) *discordgo.VoiceStateUpdate {
		v := &discordgo.VoiceStateUpdate{
			VoiceState: &discordgo.VoiceState{GuildID: "7", UserID: "1", ChannelID: after},
		}
		if before != "" {
			v.BeforeUpdate = &discordgo.VoiceState{ChannelID: before}
		}
		return v
	}

	cases := []struct {
		name        string
		update      *discordgo.VoiceStateUpdate
		wantKind    string
		wantChannel string
	}{
		{name: "join", update: update("", "100"), wantKind: "join", wantChannel: "100"},
		{name: "leave", update: update("100", ""), wantKind: "leave", wantChannel: "100"},
		{name: "move", update: update("100", "200"), wantKind: "move", wantChannel: "200"},
		{name: "mute toggle", update: update("100", "100"), wantKind: "", wantChannel: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, channel := classifyVoiceChange(tc.update)
			if kind != tc.wantKind || channel != tc.wantChannel {
				t.Fatalf("classifyVoiceChange = (%q, %q), want (%q, %q)",
					kind, channel, tc.wantKind, tc.wantChannel)
			}
		})
	}
}
