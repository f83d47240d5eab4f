package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/swoopingasaservice/discordbots/internal/store"
)

const (
	historyPageSize     = 5
	leaderboardPageSize = 20

	colorInfo    = 0x3498DB
	colorSuccess = 0x2ECC71
	colorWarning = 0xE67E22
	colorDanger  = 0x992D22
)

var kindEmoji = map[string]string{
	store.KindBan:     "🔨",
	store.KindKick:    "👢",
	store.KindTimeout: "🔇",
}

// handleImport sweeps this guild's audit log on demand and reports how
// many actions were new.
func (h *Handler) handleImport(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return err
	}

	guildID := stringOption(i, "server_id", i.GuildID)
	report, err := h.importer.ImportGuild(s, guildID)
	if err != nil {
		return err
	}

	embed := &discordgo.MessageEmbed{
		Title: "📥 Audit Log Import",
		Color: colorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Scanned", Value: strconv.Itoa(report.Scanned), Inline: true},
			{Name: "New", Value: strconv.Itoa(report.Recorded), Inline: true},
			{Name: "Already recorded", Value: strconv.Itoa(report.Duplicates), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	return err
}

func (h *Handler) handleHistory(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	user := userOption(s, i, "user")
	if user == nil {
		return fmt.Errorf("user option is required")
	}

	embed, components := h.historyPage(user.ID, user.Username, 0)
	return respondEmbed(s, i, embed, components)
}

func (h *Handler) handleHistoryPage(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) error {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 {
		return fmt.Errorf("malformed history page ID: %s", customID)
	}
	page, err := strconv.Atoi(parts[2])
	if err != nil {
		return fmt.Errorf("malformed history page number: %s", parts[2])
	}

	embed, components := h.historyPage(parts[1], "", page)
	return updateEmbed(s, i, embed, components)
}

// historyPage renders one page of a user's history with prev/next
// buttons carrying the page number.
func (h *Handler) historyPage(userID, userName string, page int) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	rec := h.store.History(userID)

	totalPages := (len(rec.Actions) + historyPageSize - 1) / historyPageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	title := fmt.Sprintf("📋 Moderation History — %s", userID)
	if userName != "" {
		title = fmt.Sprintf("📋 Moderation History — %s", userName)
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Color:       reputationColor(rec.Reputation),
		Description: fmt.Sprintf("Reputation: **%d** • Actions: **%d**", rec.Reputation, len(rec.Actions)),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Page %d/%d • All timestamps are in UTC", page+1, totalPages),
		},
	}

	if len(rec.Actions) == 0 {
		embed.Description = "No moderation actions on record."
		return embed, nil
	}

	start := page * historyPageSize
	end := start + historyPageSize
	if end > len(rec.Actions) {
		end = len(rec.Actions)
	}

	for idx := start; idx < end; idx++ {
		embed.Fields = append(embed.Fields, historyField(idx, rec.Actions[idx]))
	}

	if totalPages == 1 {
		return embed, nil
	}
	return embed, pageButtons(
		fmt.Sprintf("history:%s:%d", userID, page-1), page == 0,
		fmt.Sprintf("history:%s:%d", userID, page+1), page == totalPages-1,
	)
}

func historyField(idx int, action store.ModerationAction) *discordgo.MessageEmbedField {
	lines := []string{fmt.Sprintf("**Reason:** %s", action.Reason)}
	if action.Moderator != nil {
		lines = append(lines, fmt.Sprintf("**Moderator:** %s", action.Moderator.String()))
	}
	lines = append(lines, fmt.Sprintf("**When:** %s", action.Timestamp))

	return &discordgo.MessageEmbedField{
		Name:  fmt.Sprintf("%s #%d — %s", kindEmoji[action.Action], idx+1, strings.ToUpper(action.Action)),
		Value: strings.Join(lines, "\n"),
	}
}

func (h *Handler) handleCheck(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	user := userOption(s, i, "user")
	if user == nil {
		return fmt.Errorf("user option is required")
	}

	rec := h.store.History(user.ID)

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🔎 Reputation Check — %s", user.Username),
		Color: reputationColor(rec.Reputation),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Reputation", Value: strconv.Itoa(rec.Reputation), Inline: true},
			{Name: "Actions", Value: strconv.Itoa(len(rec.Actions)), Inline: true},
		},
	}

	if len(rec.Actions) > 0 {
		last := rec.Actions[len(rec.Actions)-1]
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Most Recent",
			Value: fmt.Sprintf("%s %s — %s", kindEmoji[last.Action], strings.ToUpper(last.Action), last.Timestamp),
		})
	}

	return respondEmbed(s, i, embed, nil)
}

func (h *Handler) handleRep(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	user := userOption(s, i, "user")
	if user == nil && i.Member != nil {
		user = i.Member.User
	}
	if user == nil {
		return fmt.Errorf("could not resolve user")
	}

	rec := h.store.History(user.ID)
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("**%s** has a reputation of **%d** (%d recorded actions)",
				user.Username, rec.Reputation, len(rec.Actions)),
		},
	})
}

func (h *Handler) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	limit := intOption(i, "limit", h.cfg.Safety.LeaderboardCap)
	if limit > h.cfg.Safety.LeaderboardCap {
		limit = h.cfg.Safety.LeaderboardCap
	}

	embed, components := h.leaderboardPage(limit, 0)
	return respondEmbed(s, i, embed, components)
}

func (h *Handler) handleLeaderboardPage(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) error {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 {
		return fmt.Errorf("malformed leaderboard page ID: %s", customID)
	}
	limit, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("malformed leaderboard limit: %s", parts[1])
	}
	page, err := strconv.Atoi(parts[2])
	if err != nil {
		return fmt.Errorf("malformed leaderboard page number: %s", parts[2])
	}

	embed, components := h.leaderboardPage(limit, page)
	return updateEmbed(s, i, embed, components)
}

func (h *Handler) leaderboardPage(limit, page int) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	entries := h.store.Leaderboard(limit)

	totalPages := (len(entries) + leaderboardPageSize - 1) / leaderboardPageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	embed := &discordgo.MessageEmbed{
		Title: "🏆 Reputation Leaderboard (lowest first)",
		Color: colorInfo,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Page %d/%d", page+1, totalPages),
		},
	}

	if len(entries) == 0 {
		embed.Description = "No users with recorded actions yet."
		return embed, nil
	}

	start := page * leaderboardPageSize
	end := start + leaderboardPageSize
	if end > len(entries) {
		end = len(entries)
	}

	var b strings.Builder
	for idx := start; idx < end; idx++ {
		entry := entries[idx]
		fmt.Fprintf(&b, "**%d.** <@%s> — **%d** (%d actions)\n",
			idx+1, entry.UserID, entry.Record.Reputation, len(entry.Record.Actions))
	}
	embed.Description = b.String()

	if totalPages == 1 {
		return embed, nil
	}
	return embed, pageButtons(
		fmt.Sprintf("leaderboard:%d:%d", limit, page-1), page == 0,
		fmt.Sprintf("leaderboard:%d:%d", limit, page+1), page == totalPages-1,
	)
}

func (h *Handler) handleGuildStats(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	stats := h.store.GuildStats(stringOption(i, "server_id", i.GuildID))

	embed := &discordgo.MessageEmbed{
		Title: "📊 Guild Moderation Statistics",
		Color: colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Users affected", Value: strconv.Itoa(stats.TotalUsers), Inline: true},
			{Name: "Total reputation", Value: strconv.Itoa(stats.TotalReputation), Inline: true},
			{Name: "Average reputation", Value: fmt.Sprintf("%.2f", stats.AvgReputation), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	var counts strings.Builder
	for _, kind := range []string{store.KindBan, store.KindKick, store.KindTimeout} {
		if n := stats.ActionCounts[kind]; n > 0 {
			fmt.Fprintf(&counts, "%s %s: **%d**\n", kindEmoji[kind], strings.ToUpper(kind), n)
		}
	}
	if counts.Len() == 0 {
		counts.WriteString("None recorded")
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "Actions",
		Value: counts.String(),
	})

	if stats.RecentAction != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Most recent",
			Value: fmt.Sprintf("%s %s on <@%s> — %s",
				kindEmoji[stats.RecentAction.Action],
				strings.ToUpper(stats.RecentAction.Action),
				stats.RecentAction.UserID,
				stats.RecentAction.Timestamp),
		})
	}

	return respondEmbed(s, i, embed, nil)
}

func (h *Handler) handleRepGuild(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	stats := h.store.GuildStats(stringOption(i, "guild_id", i.GuildID))
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("This guild has **%d** users on record with a combined reputation of **%d** (average %.2f)",
				stats.TotalUsers, stats.TotalReputation, stats.AvgReputation),
		},
	})
}

// handleDisconnect kicks a member out of voice and plays the farewell
// sound in the channel they were in.
func (h *Handler) handleDisconnect(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	member := userOption(s, i, "member")
	if member == nil {
		return fmt.Errorf("member option is required")
	}

	voice, err := s.State.VoiceState(i.GuildID, member.ID)
	if err != nil || voice == nil || voice.ChannelID == "" {
		return respondEmbed(s, i, &discordgo.MessageEmbed{
			Title:       "🔈 Voice",
			Color:       colorWarning,
			Description: fmt.Sprintf("<@%s> is not in a voice channel.", member.ID),
		}, nil)
	}

	if err := s.GuildMemberMove(i.GuildID, member.ID, nil); err != nil {
		return fmt.Errorf("failed to disconnect member from voice: %w", err)
	}

	go h.farewell.PlayGoodbye(s, i.GuildID, voice.ChannelID)

	return respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🔈 Voice",
		Color:       colorSuccess,
		Description: fmt.Sprintf("<@%s> has been disconnected from the voice channel.", member.ID),
	}, nil)
}

// pageButtons builds the prev/next row for paginated embeds.
func pageButtons(prevID string, prevDisabled bool, nextID string, nextDisabled bool) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "◀ Prev",
					Style:    discordgo.SecondaryButton,
					CustomID: prevID,
					Disabled: prevDisabled,
				},
				discordgo.Button{
					Label:    "Next ▶",
					Style:    discordgo.SecondaryButton,
					CustomID: nextID,
					Disabled: nextDisabled,
				},
			},
		},
	}
}

// reputationColor shades embeds by how bad the record is.
func reputationColor(reputation int) int {
	switch {
	case reputation <= -10:
		return colorDanger
	case reputation < 0:
		return colorWarning
	default:
		return colorSuccess
	}
}
