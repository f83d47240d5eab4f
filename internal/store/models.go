package store

import (
	"encoding/json"
	"time"
)

// Action kinds that carry a reputation penalty. Other kinds are stored
// as-is but leave reputation untouched.
const (
	KindBan     = "ban"
	KindKick    = "kick"
	KindTimeout = "timeout"
)

// DefaultReason is recorded when the audit log carries no reason.
const DefaultReason = "No reason provided"

// reputationDelta returns the score adjustment for an action kind.
func reputationDelta(kind string) int {
	switch kind {
	case KindBan:
		return -5
	case KindKick:
		return -3
	case KindTimeout:
		return -1
	default:
		return 0
	}
}

// Moderator identifies who performed a moderation action. Audit-log
// imports yield a structured ID/name pair; older or manual entries only
// had a display string. Both forms round-trip through the history file
// unchanged: the structured form serializes as {"id":...,"name":...},
// the opaque form as a bare JSON string.
type Moderator struct {
	ID     string
	Name   string
	Opaque string
}

// StructuredModerator builds the ID/name form.
func StructuredModerator(id, name string) *Moderator {
	return &Moderator{ID: id, Name: name}
}

// OpaqueModerator builds the plain-string form.
func OpaqueModerator(text string) *Moderator {
	return &Moderator{Opaque: text}
}

// IsStructured reports whether the moderator carries an ID/name pair.
func (m *Moderator) IsStructured() bool {
	return m.Opaque == ""
}

// String returns the best display name available.
func (m *Moderator) String() string {
	if m == nil {
		return ""
	}
	if m.Opaque != "" {
		return m.Opaque
	}
	return m.Name
}

type structuredModerator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (m Moderator) MarshalJSON() ([]byte, error) {
	if m.Opaque != "" {
		return json.Marshal(m.Opaque)
	}
	return json.Marshal(structuredModerator{ID: m.ID, Name: m.Name})
}

func (m *Moderator) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &m.Opaque)
	}
	var s structuredModerator
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	m.ID = s.ID
	m.Name = s.Name
	m.Opaque = ""
	return nil
}

// ModerationAction is one recorded moderation event.
type ModerationAction struct {
	Action    string     `json:"action"`
	GuildID   string     `json:"guild_id"`
	Timestamp string     `json:"timestamp"`
	Reason    string     `json:"reason"`
	Moderator *Moderator `json:"moderator,omitempty"`
	ActionID  string     `json:"action_id,omitempty"`
}

// UserRecord is the full moderation history for one user. Actions are
// kept in arrival order, not sorted by timestamp. Reputation is a
// running accumulator adjusted at append time, never recomputed from
// the action list.
type UserRecord struct {
	Reputation int                `json:"reputation"`
	Actions    []ModerationAction `json:"actions"`
}

// LeaderboardEntry pairs a user ID with a snapshot of their record.
type LeaderboardEntry struct {
	UserID string
	Record UserRecord
}

// RecentAction is the most recent action found during a guild stats scan.
type RecentAction struct {
	Action    string
	Timestamp string
	UserID    string
	Reason    string
}

// GuildStats aggregates moderation activity for one guild. Reputation
// figures sum each qualifying user's whole cross-guild reputation, not a
// guild-scoped partial; that follows the original bookkeeping even
// though a user active in several guilds drags their full score into
// every one of them.
type GuildStats struct {
	TotalUsers      int
	TotalReputation int
	AvgReputation   float64
	ActionCounts    map[string]int
	RecentAction    *RecentAction
}

// AddResult is the outcome of an AddAction call.
type AddResult struct {
	Accepted  bool
	Duplicate bool
}

// timestampLayouts covers RFC 3339 plus the zone-less forms older
// history files contain.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses an ISO-8601 timestamp, treating zone-less values
// as UTC.
func parseTimestamp(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
