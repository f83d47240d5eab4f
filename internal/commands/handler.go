package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/swoopingasaservice/discordbots/internal/auditlog"
	"github.com/swoopingasaservice/discordbots/internal/bot"
	"github.com/swoopingasaservice/discordbots/internal/config"
	"github.com/swoopingasaservice/discordbots/internal/farewell"
	"github.com/swoopingasaservice/discordbots/internal/logging"
	"github.com/swoopingasaservice/discordbots/internal/metrics"
	"github.com/swoopingasaservice/discordbots/internal/store"
)

// Handler manages all command interactions
type Handler struct {
	session  *bot.Session
	store    *store.Store
	importer *auditlog.Importer
	farewell *farewell.Player
	cfg      *config.Config
}

var globalHandler *Handler

// Initialize creates the command handler, wires it into the session,
// and registers the slash commands.
func Initialize(session *bot.Session, st *store.Store, importer *auditlog.Importer, player *farewell.Player, cfg *config.Config) error {
	globalHandler = &Handler{
		session:  session,
		store:    st,
		importer: importer,
		farewell: player,
		cfg:      cfg,
	}

	session.AddHandler(globalHandler.handleInteraction)

	commands := GetAllCommands()
	if err := session.RegisterCommands(cfg.Bot.TargetGuildID, commands); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	logging.Info("Command handler initialized with %d commands", len(commands))
	return nil
}

// GetHandler returns the global command handler
func GetHandler() *Handler {
	return globalHandler
}

// handleInteraction routes all interactions (commands, buttons)
func (h *Handler) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		h.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		h.handleComponent(s, i)
	}
}

// handleCommand routes slash commands to their handlers
func (h *Handler) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	if !h.guildAllowed(i.GuildID) {
		respondError(s, i, "this bot only serves its home guild")
		return
	}

	metrics.Default().RecordCommand()

	var err error
	switch data.Name {
	case "ping":
		err = handlePing(s, i)
	case "import":
		err = h.handleImport(s, i)
	case "history":
		err = h.handleHistory(s, i)
	case "check":
		err = h.handleCheck(s, i)
	case "rep":
		err = h.handleRep(s, i)
	case "leaderboard":
		err = h.handleLeaderboard(s, i)
	case "stats":
		err = h.handleGuildStats(s, i)
	case "repguild":
		err = h.handleRepGuild(s, i)
	case "sysinfo":
		err = h.handleSysinfo(s, i)
	case "disconnect":
		err = h.handleDisconnect(s, i)
	default:
		err = fmt.Errorf("unknown command: %s", data.Name)
	}

	if err != nil {
		logging.Error("Command error [%s]: %v", data.Name, err)
		respondError(s, i, err.Error())
	}
}

// handleComponent routes button interactions. Pagination buttons carry
// their state in the custom ID: "history:<userID>:<page>" and
// "leaderboard:<limit>:<page>".
func (h *Handler) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()

	if !h.guildAllowed(i.GuildID) {
		respondError(s, i, "this bot only serves its home guild")
		return
	}

	var err error
	switch {
	case strings.HasPrefix(data.CustomID, "history:"):
		err = h.handleHistoryPage(s, i, data.CustomID)
	case strings.HasPrefix(data.CustomID, "leaderboard:"):
		err = h.handleLeaderboardPage(s, i, data.CustomID)
	default:
		err = fmt.Errorf("unknown component: %s", data.CustomID)
	}

	if err != nil {
		logging.Error("Component error [%s]: %v", data.CustomID, err)
		respondError(s, i, err.Error())
	}
}

// guildAllowed gates interactions to the configured target guild. An
// empty target means the bot serves every guild it is in.
func (h *Handler) guildAllowed(guildID string) bool {
	target := h.cfg.Bot.TargetGuildID
	return target == "" || target == guildID
}

// respondError sends an ephemeral error message
func respondError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("❌ Error: %s", message),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// respondEmbed sends a single-embed response, with components when the
// result is paginated.
func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}

// updateEmbed edits the message a pagination button lives on.
func updateEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}

// userOption returns the resolved user for a user-typed option, or nil
// when absent.
func userOption(s *discordgo.Session, i *discordgo.InteractionCreate, name string) *discordgo.User {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionUser {
			return opt.UserValue(s)
		}
	}
	return nil
}

// stringOption returns a string option value, or fallback when absent.
func stringOption(i *discordgo.InteractionCreate, name, fallback string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return fallback
}

// intOption returns an integer option value, or fallback when absent.
func intOption(i *discordgo.InteractionCreate, name string, fallback int) int {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionInteger {
			return int(opt.IntValue())
		}
	}
	return fallback
}
