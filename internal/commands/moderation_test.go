package commands

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/swoopingasaservice/discordbots/internal/config"
	"github.com/swoopingasaservice/discordbots/internal/store"
)

func testHandler(t *testing.T) *Handler {
	t.Helper()
	st := store.Open(filepath.Join(t.TempDir(), "history.json"))
	return &Handler{
		store: st,
		cfg:   config.DefaultConfig(),
	}
}

func TestHistoryPagePagination(t *testing.T) {
	h := testHandler(t)

	for n := 0; n < 12; n++ {
		h.store.AddAction("42", store.KindKick, "7", store.ActionDetails{
			ActionID: fmt.Sprintf("7:kick:42:%d:ts", n),
		})
	}

	embed, components := h.historyPage("42", "someone", 0)
	if len(embed.Fields) != historyPageSize {
		t.Fatalf("page 0 has %d fields, want %d", len(embed.Fields), historyPageSize)
	}
	if components == nil {
		t.Fatal("expected pagination buttons for 12 actions")
	}

	// 12 actions fit in 3 pages; the last holds the remainder
	embed, _ = h.historyPage("42", "someone", 2)
	if len(embed.Fields) != 2 {
		t.Fatalf("last page has %d fields, want 2", len(embed.Fields))
	}

	// Out-of-range pages clamp instead of erroring
	embed, _ = h.historyPage("42", "someone", 99)
	if len(embed.Fields) != 2 {
		t.Fatalf("clamped page has %d fields, want 2", len(embed.Fields))
	}
}

func TestHistoryPageEmptyRecord(t *testing.T) {
	h := testHandler(t)

	embed, components := h.historyPage("nobody", "", 0)
	if len(embed.Fields) != 0 {
		t.Fatalf("expected no fields, got %d", len(embed.Fields))
	}
	if components != nil {
		t.Fatal("expected no buttons for an empty record")
	}
}

func TestLeaderboardPageSinglePage(t *testing.T) {
	h := testHandler(t)

	h.store.AddAction("1", store.KindBan, "7", store.ActionDetails{})
	h.store.AddAction("2", store.KindTimeout, "7", store.ActionDetails{})

	embed, components := h.leaderboardPage(50, 0)
	if embed.Description == "" {
		t.Fatal("expected leaderboard entries in description")
	}
	if components != nil {
		t.Fatal("expected no buttons when everything fits on one page")
	}
}

func TestLatencyColor(t *testing.T) {
	cases := []struct {
		latency time.Duration
		want    int
	}{
		{latency: 20 * time.Millisecond, want: colorSuccess},
		{latency: 100 * time.Millisecond, want: colorWarning},
		{latency: 400 * time.Millisecond, want: colorDanger},
	}

	for _, tc := range cases {
		if got := latencyColor(tc.latency); got != tc.want {
			t.Fatalf("latencyColor(%s) = %#x, want %#x", tc.latency, got, tc.want)
		}
	}
}

func TestReputationColor(t *testing.T) {
	cases := []struct {
		reputation int
		want       int
	}{
		{reputation: 0, want: colorSuccess},
		{reputation: -3, want: colorWarning},
		{reputation: -10, want: colorDanger},
	}

	for _, tc := range cases {
		if got := reputationColor(tc.reputation); got != tc.want {
			t.Fatalf("reputationColor(%d) = %#x, want %#x", tc.reputation, got, tc.want)
		}
	}
}
