package config

import (
	"encoding/json"
	"os"
	"strings"
)

type Config struct {
	Bot      BotConfig      `json:"bot"`
	Safety   SafetyConfig   `json:"safety"`
	Watch    WatchConfig    `json:"watch"`
	Relay    RelayConfig    `json:"relay"`
	Archive  ArchiveConfig  `json:"archive"`
	Farewell FarewellConfig `json:"farewell"`
}

type BotConfig struct {
	Token            string   `json:"token"`
	TargetGuildID    string   `json:"target_guild_id"`
	TargetChannelIDs []string `json:"target_channel_ids"`
}

// SafetyConfig drives the moderation-history bookkeeping.
type SafetyConfig struct {
	HistoryFile      string `json:"history_file"`
	PollIntervalMins int    `json:"poll_interval_minutes"`
	AuditFetchLimit  int    `json:"audit_fetch_limit"`
	LeaderboardCap   int    `json:"leaderboard_cap"`
}

// WatchConfig scopes the message watch log. An empty source list
// disables message watching.
type WatchConfig struct {
	SourceChannelIDs []string `json:"source_channel_ids"`
}

// RelayConfig points the outbound HTTP relay at an external API. An
// empty URL disables the relay.
type RelayConfig struct {
	APIBaseURL string `json:"api_base_url"`
	TimeoutMS  int    `json:"timeout_ms"`
}

type ArchiveConfig struct {
	Enabled      bool   `json:"enabled"`
	DatabasePath string `json:"database_path"`
}

type FarewellConfig struct {
	Enabled   bool   `json:"enabled"`
	SoundFile string `json:"sound_file"`
}

var GlobalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	GlobalConfig = &cfg
	return &cfg, nil
}

func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		cfg = DefaultConfig()
		applyEnvOverrides(cfg)
		GlobalConfig = cfg
	}
	return cfg
}

// applyEnvOverrides keeps the env variable names the deployment scripts
// already use.
func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("BOT_TOKEN"); token != "" {
		cfg.Bot.Token = token
	}
	if guildID := os.Getenv("TARGET_GUILD_ID"); guildID != "" {
		cfg.Bot.TargetGuildID = guildID
	}
	if channels := os.Getenv("TARGET_CHANNEL_ID"); channels != "" {
		cfg.Bot.TargetChannelIDs = splitCSV(channels)
	}
	if sources := os.Getenv("SOURCE_CHANNEL_IDS"); sources != "" {
		cfg.Watch.SourceChannelIDs = splitCSV(sources)
	}
	if historyFile := os.Getenv("HISTORY_FILE"); historyFile != "" {
		cfg.Safety.HistoryFile = historyFile
	}
	if apiURL := os.Getenv("RELAY_API_URL"); apiURL != "" {
		cfg.Relay.APIBaseURL = apiURL
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Safety.HistoryFile == "" {
		cfg.Safety.HistoryFile = "moderation_history.json"
	}
	if cfg.Safety.PollIntervalMins <= 0 {
		cfg.Safety.PollIntervalMins = 5
	}
	if cfg.Safety.AuditFetchLimit <= 0 {
		cfg.Safety.AuditFetchLimit = 50
	}
	if cfg.Safety.LeaderboardCap <= 0 {
		cfg.Safety.LeaderboardCap = 50
	}
	if cfg.Relay.TimeoutMS <= 0 {
		cfg.Relay.TimeoutMS = 5000
	}
	if cfg.Archive.DatabasePath == "" {
		cfg.Archive.DatabasePath = "safetybot.db"
	}
	if cfg.Farewell.SoundFile == "" {
		cfg.Farewell.SoundFile = "goodbye.dca"
	}
}

func DefaultConfig() *Config {
	cfg := &Config{
		Archive: ArchiveConfig{
			Enabled: true,
		},
	}
	applyDefaults(cfg)
	return cfg
}

func Get() *Config {
	if GlobalConfig == nil {
		return DefaultConfig()
	}
	return GlobalConfig
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
