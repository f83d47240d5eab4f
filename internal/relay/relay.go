package relay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/swoopingasaservice/discordbots/internal/logging"
	"github.com/swoopingasaservice/discordbots/internal/metrics"
	"github.com/swoopingasaservice/discordbots/internal/store"
)

// Client posts watched messages and recorded moderation actions to an
// external API. Delivery is best-effort: failures are counted and
// logged, never surfaced to the event handlers.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
}

// New returns a relay client, or nil when no base URL is configured.
// A nil *Client is safe to call; every method becomes a no-op.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		return nil
	}

	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		http: &fasthttp.Client{
			MaxConnsPerHost:     64,
			MaxIdleConnDuration: 90 * time.Second,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			ReadBufferSize:      16384,
			WriteBufferSize:     16384,
		},
	}
}

// messagePayload matches what the receiving web app expects.
type messagePayload struct {
	Content string `json:"content"`
	Author  string `json:"author"`
}

// actionPayload mirrors one accepted moderation action.
type actionPayload struct {
	UserID    string `json:"user_id"`
	Action    string `json:"action"`
	GuildID   string `json:"guild_id"`
	Timestamp string `json:"timestamp"`
	Reason    string `json:"reason"`
	Moderator string `json:"moderator,omitempty"`
}

// PostMessage relays one channel message.
func (c *Client) PostMessage(content, author string) {
	if c == nil {
		return
	}
	c.post("/api/messages", messagePayload{Content: content, Author: author})
}

// PostAction relays one accepted moderation action.
func (c *Client) PostAction(userID string, action store.ModerationAction) {
	if c == nil {
		return
	}
	c.post("/api/actions", actionPayload{
		UserID:    userID,
		Action:    action.Action,
		GuildID:   action.GuildID,
		Timestamp: action.Timestamp,
		Reason:    action.Reason,
		Moderator: action.Moderator.String(),
	})
}

func (c *Client) post(path string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Relay payload marshal failed: %v", err)
		metrics.Default().RecordRelayError()
		return
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod("POST")
	req.Header.Set("Content-Type", "application/json")
	req.SetBody(body)

	if err := c.http.DoTimeout(req, resp, c.timeout); err != nil {
		logging.Warn("Relay POST %s failed: %v", path, err)
		metrics.Default().RecordRelayError()
		return
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		logging.Warn("Relay POST %s returned status %d", path, status)
		metrics.Default().RecordRelayError()
		return
	}

	metrics.Default().RecordRelayPost()
}

// String formatting helper for log lines.
func (c *Client) String() string {
	if c == nil {
		return "relay disabled"
	}
	return fmt.Sprintf("relay -> %s", c.baseURL)
}
