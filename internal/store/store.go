package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/swoopingasaservice/discordbots/internal/logging"
)

// Store owns the mapping from user ID to moderation history. It is
// loaded once at startup and rewritten to disk in full on every accepted
// append. All mutation and the duplicate check run under one mutex, so
// the check-then-append sequence cannot race.
type Store struct {
	mu    sync.Mutex
	path  string
	users map[string]*UserRecord
}

// Open loads the history file at path. A missing file yields an empty
// store; a malformed or non-object payload yields an empty store and a
// logged error. Open never fails: the bot stays responsive even when the
// history on disk is unusable.
func Open(path string) *Store {
	s := &Store{
		path:  path,
		users: make(map[string]*UserRecord),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Warn("No history file at %s, starting with empty history", path)
		} else {
			logging.Error("Failed to read history file %s: %v", path, err)
		}
		return s
	}

	var loaded map[string]*UserRecord
	if err := json.Unmarshal(data, &loaded); err != nil {
		logging.Error("History file %s is not a valid user mapping: %v", path, err)
		return s
	}
	for id, rec := range loaded {
		if rec == nil {
			rec = &UserRecord{}
		}
		s.users[id] = rec
	}

	logging.Info("Loaded moderation history with %d users", len(s.users))
	return s
}

// Len returns the number of tracked users.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// fetchOrCreate returns the live record for a user, creating an empty
// one on first sight. Callers must hold s.mu.
func (s *Store) fetchOrCreate(userID string) *UserRecord {
	rec, ok := s.users[userID]
	if !ok {
		rec = &UserRecord{Actions: []ModerationAction{}}
		s.users[userID] = rec
		logging.Info("Created new history entry for user %s", userID)
	}
	return rec
}

// History returns a snapshot of a user's record, creating an empty
// record in place when none exists. It never fails; an existing empty
// history and a brand-new user look identical to the caller.
func (s *Store) History(userID string) UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotRecord(s.fetchOrCreate(userID))
}

// ActionDetails carries the optional fields of an append. Zero values
// mean "not supplied": Reason defaults to DefaultReason, Timestamp to
// the current UTC time.
type ActionDetails struct {
	Reason    string
	Moderator *Moderator
	Timestamp string
	ActionID  string
}

// AddAction records one moderation event against a user. A non-empty
// ActionID that already exists in the user's history rejects the append
// as a duplicate with no mutation and no disk write. Every accepted
// append adjusts reputation by the fixed per-kind delta and rewrites the
// whole history file synchronously; a failed write is logged and
// swallowed, leaving the in-memory state authoritative until the next
// successful save.
func (s *Store) AddAction(userID, kind, guildID string, details ActionDetails) AddResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.fetchOrCreate(userID)

	if details.ActionID != "" {
		for i := range rec.Actions {
			if rec.Actions[i].ActionID == details.ActionID {
				return AddResult{Duplicate: true}
			}
		}
	}

	reason := details.Reason
	if reason == "" {
		reason = DefaultReason
	}
	timestamp := details.Timestamp
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	rec.Actions = append(rec.Actions, ModerationAction{
		Action:    kind,
		GuildID:   guildID,
		Timestamp: timestamp,
		Reason:    reason,
		Moderator: details.Moderator,
		ActionID:  details.ActionID,
	})
	rec.Reputation += reputationDelta(kind)

	s.save()
	return AddResult{Accepted: true}
}

// Leaderboard returns up to limit users that have at least one recorded
// action, worst reputation first. Ties keep no particular order, same as
// the unordered mapping the history file loads into.
func (s *Store) Leaderboard(limit int) []LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]LeaderboardEntry, 0, len(s.users))
	for id, rec := range s.users {
		if len(rec.Actions) == 0 {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			UserID: id,
			Record: snapshotRecord(rec),
		})
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Record.Reputation < entries[b].Record.Reputation
	})

	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// GuildStats scans every user's actions and aggregates the ones recorded
// in the given guild. Actions with malformed timestamps still count but
// are skipped for the recency comparison.
func (s *Store) GuildStats(guildID string) GuildStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := GuildStats{
		ActionCounts: make(map[string]int),
	}

	var mostRecent time.Time
	for userID, rec := range s.users {
		inGuild := false
		for i := range rec.Actions {
			action := &rec.Actions[i]
			if action.GuildID != guildID {
				continue
			}
			inGuild = true
			stats.ActionCounts[action.Action]++

			ts, err := parseTimestamp(action.Timestamp)
			if err != nil {
				continue
			}
			if stats.RecentAction == nil || ts.After(mostRecent) {
				mostRecent = ts
				stats.RecentAction = &RecentAction{
					Action:    action.Action,
					Timestamp: action.Timestamp,
					UserID:    userID,
					Reason:    action.Reason,
				}
			}
		}
		if inGuild {
			stats.TotalUsers++
			stats.TotalReputation += rec.Reputation
		}
	}

	if stats.TotalUsers > 0 {
		stats.AvgReputation = float64(stats.TotalReputation) / float64(stats.TotalUsers)
	}
	return stats
}

// save rewrites the whole history file. Callers must hold s.mu. Errors
// are logged and swallowed per the recovery model: the store stays
// usable in memory and the next accepted append retries the write.
func (s *Store) save() {
	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		logging.Error("Failed to serialize moderation history: %v", err)
		return
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logging.Error("Failed to create history directory %s: %v", dir, err)
			return
		}
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		logging.Error("Failed to save moderation history: %v", err)
		return
	}
	logging.Debug("Saved moderation history with %d users", len(s.users))
}

// snapshotRecord copies a record so callers can read it outside the lock.
func snapshotRecord(rec *UserRecord) UserRecord {
	out := UserRecord{
		Reputation: rec.Reputation,
		Actions:    make([]ModerationAction, len(rec.Actions)),
	}
	copy(out.Actions, rec.Actions)
	return out
}
