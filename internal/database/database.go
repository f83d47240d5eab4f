package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Database is the SQLite archive behind the watch log. The moderation
// history itself lives in the JSON store; this archive only keeps the
// high-volume message/voice/member event stream queryable.
type Database struct {
	db *sql.DB
}

var globalDB *Database

// Initialize creates and initializes the SQLite archive
func Initialize(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("failed to enable WAL: %w", err)
	}

	_, err = db.Exec("PRAGMA synchronous=NORMAL")
	if err != nil {
		return fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	globalDB = &Database{db: db}

	if err := globalDB.createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// GetDB returns the global archive instance
func GetDB() *Database {
	return globalDB
}

// IsConnected checks if the archive connection is alive
func IsConnected() bool {
	if globalDB == nil || globalDB.db == nil {
		return false
	}
	return globalDB.db.Ping() == nil
}

// Close closes the archive connection
func Close() error {
	if globalDB != nil && globalDB.db != nil {
		return globalDB.db.Close()
	}
	return nil
}

func (d *Database) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS message_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		guild_id TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		author_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_message_logs_guild ON message_logs(guild_id);
	CREATE INDEX IF NOT EXISTS idx_message_logs_timestamp ON message_logs(timestamp);

	CREATE TABLE IF NOT EXISTS voice_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		guild_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		channel_id TEXT DEFAULT '',
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_voice_events_guild ON voice_events(guild_id);

	CREATE TABLE IF NOT EXISTS member_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		guild_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_member_events_guild ON member_events(guild_id);
	`

	_, err := d.db.Exec(schema)
	return err
}

// LogMessage archives a message event
func (d *Database) LogMessage(log *MessageLog) error {
	if log.Timestamp == 0 {
		log.Timestamp = time.Now().Unix()
	}

	_, err := d.db.Exec(
		`INSERT INTO message_logs (guild_id, channel_id, author_id, author_name, kind, content, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.GuildID, log.ChannelID, log.AuthorID, log.AuthorName, log.Kind, log.Content, log.Timestamp,
	)

	return err
}

// LogVoiceEvent archives a voice-state change
func (d *Database) LogVoiceEvent(event *VoiceEvent) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	_, err := d.db.Exec(
		`INSERT INTO voice_events (guild_id, user_id, user_name, kind, channel_id, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.GuildID, event.UserID, event.UserName, event.Kind, event.ChannelID, event.Timestamp,
	)

	return err
}

// LogMemberEvent archives a member join or leave
func (d *Database) LogMemberEvent(event *MemberEvent) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	_, err := d.db.Exec(
		`INSERT INTO member_events (guild_id, user_id, user_name, kind, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		event.GuildID, event.UserID, event.UserName, event.Kind, event.Timestamp,
	)

	return err
}

// RecentMessages retrieves the latest archived messages for a guild
func (d *Database) RecentMessages(guildID string, limit int) ([]*MessageLog, error) {
	rows, err := d.db.Query(
		`SELECT id, guild_id, channel_id, author_id, author_name, kind, content, timestamp
		 FROM message_logs WHERE guild_id = ? ORDER BY timestamp DESC LIMIT ?`,
		guildID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*MessageLog
	for rows.Next() {
		var log MessageLog
		if err := rows.Scan(&log.ID, &log.GuildID, &log.ChannelID, &log.AuthorID, &log.AuthorName, &log.Kind, &log.Content, &log.Timestamp); err != nil {
			return nil, err
		}
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

// Counts returns archive row counts for display
func (d *Database) Counts() (*ArchiveCounts, error) {
	counts := &ArchiveCounts{}

	if err := d.db.QueryRow(`SELECT COUNT(*) FROM message_logs`).Scan(&counts.Messages); err != nil {
		return nil, err
	}
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM voice_events`).Scan(&counts.VoiceEvents); err != nil {
		return nil, err
	}
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM member_events`).Scan(&counts.MemberEvents); err != nil {
		return nil, err
	}

	return counts, nil
}
