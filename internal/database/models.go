package database

// MessageLog is one archived message event from a watched channel.
type MessageLog struct {
	ID         int64
	GuildID    string
	ChannelID  string
	AuthorID   string
	AuthorName string
	Kind       string // "create", "edit", "delete"
	Content    string
	Timestamp  int64
}

// VoiceEvent is one archived voice-state change.
type VoiceEvent struct {
	ID        int64
	GuildID   string
	UserID    string
	UserName  string
	Kind      string // "join", "leave", "move"
	ChannelID string
	Timestamp int64
}

// MemberEvent is one archived member join or leave.
type MemberEvent struct {
	ID        int64
	GuildID   string
	UserID    string
	UserName  string
	Kind      string // "join", "leave"
	Timestamp int64
}

// ArchiveCounts summarizes archive volume for the sysinfo command.
type ArchiveCounts struct {
	Messages     int64
	VoiceEvents  int64
	MemberEvents int64
}
