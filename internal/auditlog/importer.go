package auditlog

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/swoopingasaservice/discordbots/internal/logging"
	"github.com/swoopingasaservice/discordbots/internal/metrics"
	"github.com/swoopingasaservice/discordbots/internal/notifier"
	"github.com/swoopingasaservice/discordbots/internal/relay"
	"github.com/swoopingasaservice/discordbots/internal/store"
)

// auditKinds maps the audit-log action types we import to the kinds the
// store records. Member updates are only counted when they actually set
// a timeout.
var auditKinds = []struct {
	kind       string
	actionType discordgo.AuditLogAction
}{
	{kind: store.KindBan, actionType: discordgo.AuditLogActionMemberBanAdd},
	{kind: store.KindKick, actionType: discordgo.AuditLogActionMemberKick},
	{kind: store.KindTimeout, actionType: discordgo.AuditLogActionMemberUpdate},
}

// Importer walks a guild's audit log and feeds every ban, kick, and
// timeout entry into the moderation store. Derived action IDs make the
// walk idempotent: re-importing the same guild records nothing new.
type Importer struct {
	store      *store.Store
	relay      *relay.Client
	fetchLimit int
}

func NewImporter(st *store.Store, rl *relay.Client, fetchLimit int) *Importer {
	return &Importer{
		store:      st,
		relay:      rl,
		fetchLimit: fetchLimit,
	}
}

// Report summarizes one guild import.
type Report struct {
	Scanned    int
	Recorded   int
	Duplicates int
}

// ImportGuild fetches recent audit-log entries for every tracked action
// type and records the new ones. Failures on one action type do not
// stop the others.
func (imp *Importer) ImportGuild(s *discordgo.Session, guildID string) (*Report, error) {
	report := &Report{}

	var lastErr error
	for _, ak := range auditKinds {
		audit, err := s.GuildAuditLog(guildID, "", "", int(ak.actionType), imp.fetchLimit)
		if err != nil {
			logging.Warn("Audit log fetch failed for guild %s action %s: %v", guildID, ak.kind, err)
			lastErr = err
			continue
		}

		users := indexUsers(audit.Users)
		entries := filterEntries(ak.kind, audit.AuditLogEntries)
		sortOldestFirst(entries)

		for _, entry := range entries {
			report.Scanned++
			if imp.recordEntry(guildID, ak.kind, entry, users) {
				report.Recorded++
			} else {
				report.Duplicates++
			}
		}
	}

	if report.Scanned == 0 && lastErr != nil {
		return report, fmt.Errorf("audit log import failed for guild %s: %w", guildID, lastErr)
	}
	return report, nil
}

// auditLagWait gives Discord time to write the audit entry after the
// gateway event arrives.
const auditLagWait = 2 * time.Second

// recordWindow is how far back a live event may match an audit entry.
const recordWindow = 2 * time.Minute

// RecordEvent records a moderation action observed live from the
// gateway. The matching audit-log entry supplies the moderator, the
// reason, and the dedup key, so the periodic sweep can later revisit
// the same entry without double counting. When no entry matches within
// the lookback window nothing is recorded; the next sweep picks the
// action up instead.
func (imp *Importer) RecordEvent(s *discordgo.Session, guildID, kind, targetID string) bool {
	actionType, ok := actionTypeFor(kind)
	if !ok {
		return false
	}

	time.Sleep(auditLagWait)

	audit, err := s.GuildAuditLog(guildID, "", "", int(actionType), 5)
	if err != nil {
		logging.Warn("Audit log lookup failed for %s on %s in guild %s: %v", kind, targetID, guildID, err)
		return false
	}

	users := indexUsers(audit.Users)
	for _, entry := range audit.AuditLogEntries {
		if entry.TargetID != targetID {
			continue
		}
		if kind == store.KindTimeout && !isTimeout(entry) {
			continue
		}
		if time.Since(entryTimestamp(entry)) > recordWindow {
			continue
		}
		return imp.recordEntry(guildID, kind, entry, users)
	}

	logging.Debug("No recent audit entry for %s on %s in guild %s", kind, targetID, guildID)
	return false
}

func actionTypeFor(kind string) (discordgo.AuditLogAction, bool) {
	for _, ak := range auditKinds {
		if ak.kind == kind {
			return ak.actionType, true
		}
	}
	return 0, false
}

// recordEntry converts one audit-log entry into a store append. Returns
// true when the store accepted it as new.
func (imp *Importer) recordEntry(guildID, kind string, entry *discordgo.AuditLogEntry, users map[string]*discordgo.User) bool {
	timestamp := entryTimestamp(entry)
	actionID := deriveActionID(guildID, kind, entry, timestamp)

	result := imp.store.AddAction(entry.TargetID, kind, guildID, store.ActionDetails{
		Reason:    entry.Reason,
		Moderator: resolveModerator(users, entry.UserID),
		Timestamp: timestamp.Format(time.RFC3339),
		ActionID:  actionID,
	})

	if result.Duplicate {
		metrics.Default().RecordDuplicate()
		logging.Debug("Skipping duplicate action: %s", actionID)
		return false
	}

	metrics.Default().RecordAction()

	action := lastAction(imp.store, entry.TargetID)
	notifier.SendActionEmbed(entry.TargetID, displayName(users, entry.TargetID), action)
	imp.relay.PostAction(entry.TargetID, action)

	return true
}

// lastAction re-reads the freshly appended action so the notifier and
// relay see exactly what was stored (defaults applied).
func lastAction(st *store.Store, userID string) store.ModerationAction {
	rec := st.History(userID)
	return rec.Actions[len(rec.Actions)-1]
}

// filterEntries drops entries with no target and, for timeouts, member
// updates that did not set a communication disable.
func filterEntries(kind string, entries []*discordgo.AuditLogEntry) []*discordgo.AuditLogEntry {
	out := make([]*discordgo.AuditLogEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.TargetID == "" {
			continue
		}
		if kind == store.KindTimeout && !isTimeout(entry) {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// isTimeout reports whether a member-update entry set a timeout.
func isTimeout(entry *discordgo.AuditLogEntry) bool {
	for _, change := range entry.Changes {
		if change.Key == nil {
			continue
		}
		if *change.Key == discordgo.AuditLogChangeKeyCommunicationDisabledUntil && change.NewValue != nil {
			return true
		}
	}
	return false
}

// sortOldestFirst orders entries chronologically so the stored history
// reflects the order actions happened. Snowflake IDs sort the same way
// timestamps do.
func sortOldestFirst(entries []*discordgo.AuditLogEntry) {
	sort.Slice(entries, func(a, b int) bool {
		idA, _ := strconv.ParseUint(entries[a].ID, 10, 64)
		idB, _ := strconv.ParseUint(entries[b].ID, 10, 64)
		return idA < idB
	})
}

// entryTimestamp derives the entry's creation time from its snowflake,
// falling back to now when the ID is unparseable.
func entryTimestamp(entry *discordgo.AuditLogEntry) time.Time {
	t, err := discordgo.SnowflakeTimestamp(entry.ID)
	if err != nil {
		return time.Now().UTC()
	}
	return t.UTC()
}

// deriveActionID builds the stable deduplication key for one entry.
func deriveActionID(guildID, kind string, entry *discordgo.AuditLogEntry, timestamp time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s", guildID, kind, entry.TargetID, entry.ID, timestamp.Format(time.RFC3339))
}

// resolveModerator prefers the structured form when the audit response
// included the acting user, and falls back to the bare actor ID.
func resolveModerator(users map[string]*discordgo.User, actorID string) *store.Moderator {
	if actorID == "" {
		return nil
	}
	if user, ok := users[actorID]; ok {
		return store.StructuredModerator(user.ID, user.Username)
	}
	return store.OpaqueModerator(actorID)
}

func indexUsers(users []*discordgo.User) map[string]*discordgo.User {
	index := make(map[string]*discordgo.User, len(users))
	for _, user := range users {
		index[user.ID] = user
	}
	return index
}

func displayName(users map[string]*discordgo.User, userID string) string {
	if user, ok := users[userID]; ok {
		return user.Username
	}
	return ""
}
