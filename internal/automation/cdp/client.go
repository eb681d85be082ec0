// Package cdp implements automation.Driver against a headless Chrome
// exposing the DevTools protocol (chrome --headless --remote-debugging-port).
// Each session is its own browser tab, created and destroyed per invocation.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/example/waiting-scheduler/internal/automation"
)

type Client struct {
	base string
	hc   *http.Client
	log  zerolog.Logger
}

func New(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
		log:  log.With().Str("component", "cdp").Logger(),
	}
}

type targetInfo struct {
	ID                   string `json:"id"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// NewSession opens a fresh blank tab and attaches to it.
func (c *Client) NewSession(ctx context.Context) (automation.Driver, error) {
	t, err := c.newTarget(ctx)
	if err != nil {
		return nil, fmt.Errorf("cdp: create target: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.WebSocketDebuggerURL, nil)
	if err != nil {
		c.closeTarget(t.ID)
		return nil, fmt.Errorf("cdp: dial %s: %w", t.WebSocketDebuggerURL, err)
	}

	s := &session{
		client:   c,
		conn:     conn,
		targetID: t.ID,
		pending:  make(map[int64]chan rpcResponse),
		done:     make(chan struct{}),
		log:      c.log.With().Str("target", t.ID).Logger(),
	}
	go s.readLoop()

	if _, err := s.call(ctx, "Page.enable", nil); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (c *Client) newTarget(ctx context.Context) (targetInfo, error) {
	// Chrome 111+ requires PUT on /json/new; older builds only take GET.
	for _, method := range []string{http.MethodPut, http.MethodGet} {
		req, err := http.NewRequestWithContext(ctx, method, c.base+"/json/new?about:blank", nil)
		if err != nil {
			return targetInfo{}, err
		}
		res, err := c.hc.Do(req)
		if err != nil {
			return targetInfo{}, err
		}
		body, err := io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			return targetInfo{}, err
		}
		if res.StatusCode == http.StatusMethodNotAllowed {
			continue
		}
		if res.StatusCode != http.StatusOK {
			return targetInfo{}, fmt.Errorf("status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
		}
		var t targetInfo
		if err := json.Unmarshal(body, &t); err != nil {
			return targetInfo{}, err
		}
		if t.WebSocketDebuggerURL == "" {
			return targetInfo{}, fmt.Errorf("no webSocketDebuggerUrl in response")
		}
		return t, nil
	}
	return targetInfo{}, fmt.Errorf("/json/new rejected both PUT and GET")
}

func (c *Client) closeTarget(id string) {
	res, err := c.hc.Get(c.base + "/json/close/" + id)
	if err != nil {
		c.log.Warn().Err(err).Str("target", id).Msg("close target failed")
		return
	}
	res.Body.Close()
}
