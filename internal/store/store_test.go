package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func tempStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "moderation_history.json")
	return Open(path), path
}

func TestOpenMissingFile(t *testing.T) {
	s, _ := tempStore(t)
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d users", s.Len())
	}
}

func TestOpenMalformedFile(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "truncated", payload: `{"42": {"reputation":`},
		{name: "array_payload", payload: `[1, 2, 3]`},
		{name: "scalar_payload", payload: `"not a mapping"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "moderation_history.json")
			if err := os.WriteFile(path, []byte(tt.payload), 0644); err != nil {
				t.Fatal(err)
			}

			s := Open(path)
			if s.Len() != 0 {
				t.Fatalf("expected empty store after corrupt load, got %d users", s.Len())
			}

			// The store must remain usable after a failed load.
			res := s.AddAction("42", KindBan, "7", ActionDetails{})
			if !res.Accepted {
				t.Fatalf("append after corrupt load not accepted: %+v", res)
			}
		})
	}
}

func TestHistoryCreateOnMiss(t *testing.T) {
	s, _ := tempStore(t)

	rec := s.History("1234")
	if rec.Reputation != 0 || len(rec.Actions) != 0 {
		t.Fatalf("fresh record not empty: %+v", rec)
	}
	if s.Len() != 1 {
		t.Fatalf("record not created in place, store has %d users", s.Len())
	}
}

func TestAddActionScenario(t *testing.T) {
	s, _ := tempStore(t)

	res := s.AddAction("42", KindBan, "7", ActionDetails{
		Reason:   "spam",
		ActionID: "7:ban:42:1",
	})
	if !res.Accepted || res.Duplicate {
		t.Fatalf("first append rejected: %+v", res)
	}

	rec := s.History("42")
	if rec.Reputation != -5 {
		t.Fatalf("reputation = %d, want -5", rec.Reputation)
	}
	if len(rec.Actions) != 1 {
		t.Fatalf("actions = %d, want 1", len(rec.Actions))
	}
	if rec.Actions[0].Reason != "spam" || rec.Actions[0].GuildID != "7" {
		t.Fatalf("unexpected stored action: %+v", rec.Actions[0])
	}

	// Same action ID again: rejected, reputation unchanged.
	res = s.AddAction("42", KindBan, "7", ActionDetails{
		Reason:   "spam",
		ActionID: "7:ban:42:1",
	})
	if res.Accepted || !res.Duplicate {
		t.Fatalf("duplicate append not rejected: %+v", res)
	}

	rec = s.History("42")
	if rec.Reputation != -5 || len(rec.Actions) != 1 {
		t.Fatalf("duplicate mutated record: rep=%d actions=%d", rec.Reputation, len(rec.Actions))
	}
}

func TestEmptyActionIDNeverDeduplicates(t *testing.T) {
	s, _ := tempStore(t)

	for i := 0; i < 3; i++ {
		res := s.AddAction("42", KindTimeout, "7", ActionDetails{})
		if !res.Accepted {
			t.Fatalf("append %d rejected: %+v", i, res)
		}
	}

	rec := s.History("42")
	if len(rec.Actions) != 3 || rec.Reputation != -3 {
		t.Fatalf("got actions=%d rep=%d, want 3 and -3", len(rec.Actions), rec.Reputation)
	}
}

func TestReputationIsSumOfAcceptedDeltas(t *testing.T) {
	s, _ := tempStore(t)

	appends := []struct {
		kind     string
		actionID string
		delta    int
	}{
		{kind: KindBan, actionID: "a1", delta: -5},
		{kind: KindKick, actionID: "a2", delta: -3},
		{kind: KindTimeout, actionID: "a3", delta: -1},
		{kind: KindBan, actionID: "a1", delta: 0}, // duplicate, rejected
		{kind: "warn", actionID: "a4", delta: 0},  // unknown kind, stored but no delta
	}

	want := 0
	for _, a := range appends {
		s.AddAction("99", a.kind, "7", ActionDetails{ActionID: a.actionID})
		want += a.delta
	}

	rec := s.History("99")
	if rec.Reputation != want {
		t.Fatalf("reputation = %d, want %d", rec.Reputation, want)
	}
	if len(rec.Actions) != 4 {
		t.Fatalf("actions = %d, want 4 (duplicate dropped, unknown kind kept)", len(rec.Actions))
	}
}

func TestDefaultsApplied(t *testing.T) {
	s, _ := tempStore(t)

	before := time.Now().UTC().Add(-time.Second)
	s.AddAction("42", KindKick, "7", ActionDetails{})
	after := time.Now().UTC().Add(time.Second)

	action := s.History("42").Actions[0]
	if action.Reason != DefaultReason {
		t.Fatalf("reason = %q, want %q", action.Reason, DefaultReason)
	}
	ts, err := parseTimestamp(action.Timestamp)
	if err != nil {
		t.Fatalf("default timestamp unparseable: %v", err)
	}
	if ts.Before(before) || ts.After(after) {
		t.Fatalf("default timestamp %s outside call window", action.Timestamp)
	}
}

func TestLeaderboard(t *testing.T) {
	s, _ := tempStore(t)

	s.AddAction("worst", KindBan, "7", ActionDetails{})     // -5
	s.AddAction("middle", KindKick, "7", ActionDetails{})   // -3
	s.AddAction("mild", "note", "7", ActionDetails{})       // 0, unknown kind but has an action
	s.History("inactive")                                   // no actions, excluded

	entries := s.Leaderboard(10)
	if len(entries) != 3 {
		t.Fatalf("leaderboard has %d entries, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Record.Reputation > entries[i].Record.Reputation {
			t.Fatalf("leaderboard not sorted ascending: %+v", entries)
		}
	}
	for _, e := range entries {
		if len(e.Record.Actions) == 0 {
			t.Fatalf("entry %s has no actions", e.UserID)
		}
	}

	top := s.Leaderboard(1)
	if len(top) != 1 || top[0].UserID != "worst" {
		t.Fatalf("Leaderboard(1) = %+v, want the -5 user only", top)
	}
}

func TestGuildStatsScenario(t *testing.T) {
	s, _ := tempStore(t)

	s.AddAction("u1", KindBan, "7", ActionDetails{Timestamp: "2024-03-01T10:00:00Z"})
	s.AddAction("u2", KindKick, "7", ActionDetails{Timestamp: "2024-03-02T10:00:00Z"})

	stats := s.GuildStats("7")
	if stats.TotalUsers != 2 {
		t.Fatalf("total users = %d, want 2", stats.TotalUsers)
	}
	if stats.AvgReputation != -4.0 {
		t.Fatalf("avg reputation = %v, want -4.0", stats.AvgReputation)
	}
	if stats.ActionCounts[KindBan] != 1 || stats.ActionCounts[KindKick] != 1 {
		t.Fatalf("action counts = %v", stats.ActionCounts)
	}
	if stats.RecentAction == nil || stats.RecentAction.UserID != "u2" {
		t.Fatalf("recent action = %+v, want u2's kick", stats.RecentAction)
	}
}

func TestGuildStatsEmptyGuild(t *testing.T) {
	s, _ := tempStore(t)
	s.AddAction("u1", KindBan, "7", ActionDetails{})

	stats := s.GuildStats("other")
	if stats.TotalUsers != 0 || stats.AvgReputation != 0 {
		t.Fatalf("empty guild stats not zero: %+v", stats)
	}
}

func TestGuildStatsSumsWholeUserReputation(t *testing.T) {
	s, _ := tempStore(t)

	// u1 active in two guilds: their full cross-guild reputation counts
	// toward both guilds' totals.
	s.AddAction("u1", KindBan, "7", ActionDetails{})
	s.AddAction("u1", KindBan, "8", ActionDetails{})

	stats := s.GuildStats("7")
	if stats.TotalReputation != -10 {
		t.Fatalf("total reputation = %d, want whole-user -10", stats.TotalReputation)
	}
	if stats.ActionCounts[KindBan] != 1 {
		t.Fatalf("guild 7 counts = %v, want only its own action counted", stats.ActionCounts)
	}
}

func TestGuildStatsMalformedTimestamp(t *testing.T) {
	s, _ := tempStore(t)

	s.AddAction("u1", KindBan, "7", ActionDetails{Timestamp: "not a time"})
	s.AddAction("u2", KindKick, "7", ActionDetails{Timestamp: "2024-01-01T00:00:00Z"})

	stats := s.GuildStats("7")
	if stats.ActionCounts[KindBan] != 1 {
		t.Fatal("malformed-timestamp action must still be counted")
	}
	if stats.RecentAction == nil || stats.RecentAction.Action != KindKick {
		t.Fatalf("recency should come from the parseable action, got %+v", stats.RecentAction)
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "moderation_history.json")

	s := Open(path)
	s.AddAction("42", KindBan, "7", ActionDetails{
		Reason:    "raid",
		Moderator: StructuredModerator("9000", "mod"),
		Timestamp: "2024-05-01T12:00:00Z",
		ActionID:  "7:ban:42:100",
	})
	s.AddAction("43", KindTimeout, "8", ActionDetails{
		Moderator: OpaqueModerator("legacy import"),
	})

	reloaded := Open(path)
	if reloaded.Len() != 2 {
		t.Fatalf("reloaded %d users, want 2", reloaded.Len())
	}
	for _, id := range []string{"42", "43"} {
		got := reloaded.History(id)
		want := s.History(id)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("record %s changed across reload:\n got %+v\nwant %+v", id, got, want)
		}
	}
}

func TestModeratorWireFormat(t *testing.T) {
	s, path := tempStore(t)

	s.AddAction("42", KindBan, "7", ActionDetails{
		Moderator: StructuredModerator("9000", "mod"),
		ActionID:  "x1",
	})
	s.AddAction("42", KindKick, "7", ActionDetails{
		Moderator: OpaqueModerator("somebody"),
		ActionID:  "x2",
	})
	s.AddAction("42", KindTimeout, "7", ActionDetails{ActionID: "x3"})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)

	if !strings.Contains(text, `"moderator": "somebody"`) {
		t.Fatalf("opaque moderator not serialized as bare string:\n%s", text)
	}
	if !strings.Contains(text, `"name": "mod"`) || !strings.Contains(text, `"id": "9000"`) {
		t.Fatalf("structured moderator fields missing:\n%s", text)
	}

	// The no-moderator action must omit the field entirely.
	var raw map[string]struct {
		Actions []map[string]json.RawMessage `json:"actions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, action := range raw["42"].Actions {
		if string(action["action"]) == `"timeout"` {
			if _, ok := action["moderator"]; ok {
				t.Fatal("timeout action should carry no moderator field")
			}
		}
	}
}

func TestPersistSkippedOnDuplicate(t *testing.T) {
	s, path := tempStore(t)

	s.AddAction("42", KindBan, "7", ActionDetails{ActionID: "only"})

	// A rejected duplicate must not rewrite the file. Compare contents,
	// mod times can be too coarse for back-to-back writes.
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s.AddAction("42", KindBan, "7", ActionDetails{ActionID: "only"})
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatal("duplicate append rewrote the history file")
	}
}
