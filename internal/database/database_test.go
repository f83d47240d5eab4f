package database

import (
	"path/filepath"
	"testing"
)

func TestArchiveRoundTrip(t *testing.T) {
	if err := Initialize(filepath.Join(t.TempDir(), "archive.db")); err != nil {
		t.Fatal(err)
	}
	defer Close()

	d := GetDB()
	if d == nil {
		t.Fatal("archive not initialized")
	}

	err := d.LogMessage(&MessageLog{
		GuildID:    "7",
		ChannelID:  "100",
		AuthorID:   "42",
		AuthorName: "someone",
		Kind:       "create",
		Content:    "hello",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.LogVoiceEvent(&VoiceEvent{GuildID: "7", UserID: "42", UserName: "someone", Kind: "join", ChannelID: "200"}); err != nil {
		t.Fatal(err)
	}
	if err := d.LogMemberEvent(&MemberEvent{GuildID: "7", UserID: "42", UserName: "someone", Kind: "leave"}); err != nil {
		t.Fatal(err)
	}

	msgs, err := d.RecentMessages("7", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Content != "hello" {
		t.Fatalf("unexpected archived messages: %+v", msgs)
	}

	counts, err := d.Counts()
	if err != nil {
		t.Fatal(err)
	}
	if counts.Messages != 1 || counts.VoiceEvents != 1 || counts.MemberEvents != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}
