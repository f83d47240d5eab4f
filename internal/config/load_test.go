package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"bot":{"token":"abc"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Safety.HistoryFile != "moderation_history.json" {
		t.Fatalf("history file default = %q", cfg.Safety.HistoryFile)
	}
	if cfg.Safety.PollIntervalMins != 5 {
		t.Fatalf("poll interval default = %d", cfg.Safety.PollIntervalMins)
	}
	if cfg.Safety.LeaderboardCap != 50 {
		t.Fatalf("leaderboard cap default = %d", cfg.Safety.LeaderboardCap)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("TARGET_CHANNEL_ID", "111, 222,333")
	t.Setenv("HISTORY_FILE", "/data/history.json")

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"bot":{"token":"file-token"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Bot.Token != "env-token" {
		t.Fatalf("token = %q, want env override", cfg.Bot.Token)
	}
	want := []string{"111", "222", "333"}
	if !reflect.DeepEqual(cfg.Bot.TargetChannelIDs, want) {
		t.Fatalf("target channels = %v, want %v", cfg.Bot.TargetChannelIDs, want)
	}
	if cfg.Safety.HistoryFile != "/data/history.json" {
		t.Fatalf("history file = %q", cfg.Safety.HistoryFile)
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg := LoadOrDefault(filepath.Join(t.TempDir(), "missing.json"))
	if cfg == nil {
		t.Fatal("expected a default config")
	}
	if cfg.Safety.AuditFetchLimit != 50 {
		t.Fatalf("audit fetch limit default = %d", cfg.Safety.AuditFetchLimit)
	}
}
