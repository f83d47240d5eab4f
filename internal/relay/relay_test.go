package relay

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/swoopingasaservice/discordbots/internal/store"
)

type capture struct {
	mu     sync.Mutex
	paths  []string
	bodies [][]byte
}

func (c *capture) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	c.paths = append(c.paths, r.URL.Path)
	c.bodies = append(c.bodies, body)
	c.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func TestPostMessage(t *testing.T) {
	cap := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(cap.handler))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	c.PostMessage("hello there", "someone")

	cap.mu.Lock()
	defer cap.mu.Unlock()
	if len(cap.paths) != 1 || cap.paths[0] != "/api/messages" {
		t.Fatalf("unexpected paths: %v", cap.paths)
	}

	var got messagePayload
	if err := json.Unmarshal(cap.bodies[0], &got); err != nil {
		t.Fatal(err)
	}
	if got.Content != "hello there" || got.Author != "someone" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestPostAction(t *testing.T) {
	cap := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(cap.handler))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	c.PostAction("42", store.ModerationAction{
		Action:    store.KindBan,
		GuildID:   "7",
		Timestamp: "2024-05-01T12:00:00Z",
		Reason:    "raid",
		Moderator: store.StructuredModerator("9000", "mod"),
	})

	cap.mu.Lock()
	defer cap.mu.Unlock()
	if len(cap.paths) != 1 || cap.paths[0] != "/api/actions" {
		t.Fatalf("unexpected paths: %v", cap.paths)
	}

	var got actionPayload
	if err := json.Unmarshal(cap.bodies[0], &got); err != nil {
		t.Fatal(err)
	}
	if got.UserID != "42" || got.Action != "ban" || got.Moderator != "mod" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestNilClientIsNoOp(t *testing.T) {
	c := New("", time.Second)
	if c != nil {
		t.Fatal("empty base URL should disable the relay")
	}
	// Must not panic.
	c.PostMessage("x", "y")
	c.PostAction("42", store.ModerationAction{Action: store.KindBan})
}
