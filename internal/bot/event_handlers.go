package bot

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/swoopingasaservice/discordbots/internal/auditlog"
	"github.com/swoopingasaservice/discordbots/internal/database"
	"github.com/swoopingasaservice/discordbots/internal/farewell"
	"github.com/swoopingasaservice/discordbots/internal/logging"
	"github.com/swoopingasaservice/discordbots/internal/notifier"
	"github.com/swoopingasaservice/discordbots/internal/relay"
	"github.com/swoopingasaservice/discordbots/internal/store"
)

// Handlers bundles everything the event handlers need. The gateway
// callbacks only observe; all recording goes through the importer so
// live events and poll sweeps share one dedup path.
type Handlers struct {
	Importer *auditlog.Importer
	Relay    *relay.Client
	Farewell *farewell.Player
	Watched  map[string]bool
}

// SetupEventHandlers wires the gateway callbacks: moderation events
// feed the store through the importer, watched-channel traffic feeds
// the archive and the relay, and departures trigger the farewell
// sound.
func (s *Session) SetupEventHandlers(h *Handlers) {
	logging.Info("Setting up Discord event handlers...")

	s.discord.AddHandler(func(sess *discordgo.Session, r *discordgo.Ready) {
		logging.Info("Bot ready! Connected as %s (%d guilds)", r.User.Username, len(r.Guilds))
	})

	s.discord.AddHandler(func(sess *discordgo.Session, g *discordgo.GuildCreate) {
		logging.Info("Bot joined/loaded guild: %s (ID: %s)", g.Name, g.ID)
		notifier.SendGuildNotice(fmt.Sprintf("Now watching guild **%s** (`%s`)", g.Name, g.ID))
	})

	s.discord.AddHandler(func(sess *discordgo.Session, g *discordgo.GuildDelete) {
		logging.Info("Bot removed from guild: %s", g.ID)
		notifier.SendGuildNotice(fmt.Sprintf("No longer watching guild `%s`", g.ID))
	})

	// Bans fire both GuildBanAdd and GuildMemberRemove; the importer's
	// dedup key means recording from both paths is harmless.
	s.discord.AddHandler(func(sess *discordgo.Session, b *discordgo.GuildBanAdd) {
		if b.GuildID == "" || b.User == nil {
			return
		}
		logging.Info("[EVENT] Ban: %s in guild %s", b.User.ID, b.GuildID)
		go h.Importer.RecordEvent(sess, b.GuildID, store.KindBan, b.User.ID)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.GuildMemberRemove) {
		if m.GuildID == "" || m.User == nil {
			return
		}

		go h.Farewell.PlayGoodbye(sess, m.GuildID, "")
		archiveMemberEvent(m.GuildID, m.User, "leave")

		// A remove with a matching kick audit entry was a kick; anything
		// else was a voluntary leave or a ban already handled above.
		go func() {
			if h.Importer.RecordEvent(sess, m.GuildID, store.KindKick, m.User.ID) {
				return
			}
			notifier.SendWatchLine(fmt.Sprintf("👋 **%s** left guild `%s`", m.User.Username, m.GuildID))
		}()
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.GuildMemberAdd) {
		if m.GuildID == "" || m.User == nil {
			return
		}
		archiveMemberEvent(m.GuildID, m.User, "join")
		notifier.SendWatchLine(fmt.Sprintf("✅ **%s** joined guild `%s`", m.User.Username, m.GuildID))
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.GuildMemberUpdate) {
		if m.GuildID == "" || m.User == nil {
			return
		}
		if !timeoutApplied(m) {
			return
		}
		logging.Info("[EVENT] Timeout: %s in guild %s", m.User.ID, m.GuildID)
		go h.Importer.RecordEvent(sess, m.GuildID, store.KindTimeout, m.User.ID)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot || !h.Watched[m.ChannelID] {
			return
		}
		archiveMessage(m.GuildID, m.ChannelID, m.Author, "create", m.Content)
		h.Relay.PostMessage(m.Content, m.Author.Username)
		notifier.SendWatchLine(fmt.Sprintf("💬 **%s**: %s", m.Author.Username, m.Content))
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.MessageUpdate) {
		if m.Author == nil || m.Author.Bot || !h.Watched[m.ChannelID] {
			return
		}
		archiveMessage(m.GuildID, m.ChannelID, m.Author, "edit", m.Content)
		notifier.SendWatchLine(fmt.Sprintf("✏️ **%s** edited a message: %s", m.Author.Username, m.Content))
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.MessageDelete) {
		if !h.Watched[m.ChannelID] {
			return
		}
		archiveMessage(m.GuildID, m.ChannelID, nil, "delete", "")
		notifier.SendWatchLine(fmt.Sprintf("🗑️ Message `%s` deleted in <#%s>", m.ID, m.ChannelID))
	})

	s.discord.AddHandler(func(sess *discordgo.Session, v *discordgo.VoiceStateUpdate) {
		if v.GuildID == "" {
			return
		}
		kind, channelID := classifyVoiceChange(v)
		if kind == "" {
			return
		}
		archiveVoiceEvent(sess, v, kind, channelID)
	})

	logging.Info("Discord event handlers configured successfully")
}

// timeoutApplied reports whether a member update newly set a timeout.
// Re-delivered updates with the same disable timestamp do not count.
func timeoutApplied(m *discordgo.GuildMemberUpdate) bool {
	until := m.CommunicationDisabledUntil
	if until == nil || !until.After(time.Now()) {
		return false
	}
	if m.BeforeUpdate != nil && m.BeforeUpdate.CommunicationDisabledUntil != nil &&
		m.BeforeUpdate.CommunicationDisabledUntil.Equal(*until) {
		return false
	}
	return true
}

// classifyVoiceChange reduces a voice-state update to join, leave, or
// move. Mute and deafen toggles are not archived.
func classifyVoiceChange(v *discordgo.VoiceStateUpdate) (kind, channelID string) {
	before := ""
	if v.BeforeUpdate != nil {
		before = v.BeforeUpdate.ChannelID
	}
	switch {
	case before == "" && v.ChannelID != "":
		return "join", v.ChannelID
	case before != "" && v.ChannelID == "":
		return "leave", before
	case before != "" && v.ChannelID != "" && before != v.ChannelID:
		return "move", v.ChannelID
	default:
		return "", ""
	}
}

func archiveMessage(guildID, channelID string, author *discordgo.User, kind, content string) {
	db := database.GetDB()
	if db == nil {
		return
	}
	log := &database.MessageLog{
		GuildID:   guildID,
		ChannelID: channelID,
		Kind:      kind,
		Content:   content,
		Timestamp: time.Now().Unix(),
	}
	if author != nil {
		log.AuthorID = author.ID
		log.AuthorName = author.Username
	}
	if err := db.LogMessage(log); err != nil {
		logging.Error("Failed to archive message event: %v", err)
	}
}

func archiveMemberEvent(guildID string, user *discordgo.User, kind string) {
	db := database.GetDB()
	if db == nil {
		return
	}
	err := db.LogMemberEvent(&database.MemberEvent{
		GuildID:   guildID,
		UserID:    user.ID,
		UserName:  user.Username,
		Kind:      kind,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		logging.Error("Failed to archive member event: %v", err)
	}
}

func archiveVoiceEvent(sess *discordgo.Session, v *discordgo.VoiceStateUpdate, kind, channelID string) {
	db := database.GetDB()
	if db == nil {
		return
	}
	userName := ""
	if v.Member != nil && v.Member.User != nil {
		userName = v.Member.User.Username
	} else if user, err := sess.User(v.UserID); err == nil {
		userName = user.Username
	}
	err := db.LogVoiceEvent(&database.VoiceEvent{
		GuildID:   v.GuildID,
		UserID:    v.UserID,
		UserName:  userName,
		Kind:      kind,
		ChannelID: channelID,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		logging.Error("Failed to archive voice event: %v", err)
	}
}
