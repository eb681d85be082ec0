package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/example/waiting-scheduler/internal/automation"
)

const (
	navigateTimeout = 30 * time.Second
	pollInterval    = 100 * time.Millisecond
)

type rpcRequest struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type session struct {
	client   *Client
	conn     *websocket.Conn
	targetID string
	log      zerolog.Logger

	writeMu sync.Mutex
	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan rpcResponse
	done    chan struct{}
	closed  bool
}

// readLoop routes command responses to their waiters; protocol events are
// not consumed, all waits are evaluate-polling.
func (s *session) readLoop() {
	defer close(s.done)
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			s.failPending(err)
			return
		}
		var res rpcResponse
		if err := json.Unmarshal(msg, &res); err != nil || res.ID == 0 {
			continue
		}
		s.mu.Lock()
		ch, ok := s.pending[res.ID]
		delete(s.pending, res.ID)
		s.mu.Unlock()
		if ok {
			ch <- res
		}
	}
}

func (s *session) failPending(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.pending {
		delete(s.pending, id)
		ch <- rpcResponse{ID: id, Error: &rpcError{Message: err.Error()}}
	}
}

func (s *session) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	ch := make(chan rpcResponse, 1)
	s.pending[id] = ch
	s.mu.Unlock()

	s.writeMu.Lock()
	err := s.conn.WriteJSON(rpcRequest{ID: id, Method: method, Params: params})
	s.writeMu.Unlock()
	if err != nil {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
		return nil, fmt.Errorf("cdp: %s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
		return nil, ctx.Err()
	case res := <-ch:
		if res.Error != nil {
			return nil, fmt.Errorf("cdp: %s: %s", method, res.Error.Message)
		}
		return res.Result, nil
	}
}

func (s *session) Navigate(ctx context.Context, url string) error {
	if _, err := s.call(ctx, "Page.navigate", map[string]any{"url": url}); err != nil {
		return err
	}
	return s.poll(ctx, navigateTimeout, `document.readyState === "complete"`)
}

func (s *session) WaitIdle(ctx context.Context) error {
	if err := s.poll(ctx, navigateTimeout, `document.readyState === "complete"`); err != nil {
		return err
	}
	// give late XHR-driven renders a moment; the protocol-level network
	// idle signal is not tracked here
	return sleep(ctx, 500*time.Millisecond)
}

func (s *session) WaitVisible(ctx context.Context, sel string, nth int, timeout time.Duration) error {
	return s.poll(ctx, timeout, jsVisible(sel, nth))
}

func (s *session) WaitEnabled(ctx context.Context, sel string, timeout time.Duration) error {
	return s.poll(ctx, timeout, jsEnabled(sel))
}

func (s *session) Click(ctx context.Context, sel string, nth int) error {
	ok, err := s.evalBool(ctx, jsClick(sel, nth))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s[%d]", automation.ErrNoElement, sel, nth)
	}
	return nil
}

func (s *session) Fill(ctx context.Context, sel string, value string) error {
	ok, err := s.evalBool(ctx, jsFill(sel, value))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", automation.ErrNoElement, sel)
	}
	return nil
}

func (s *session) Text(ctx context.Context, sel string, nth int) (string, error) {
	raw, err := s.Eval(ctx, jsText(sel, nth))
	if err != nil {
		return "", err
	}
	if string(raw) == "null" {
		return "", fmt.Errorf("%w: %s[%d]", automation.ErrNoElement, sel, nth)
	}
	var out string
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("cdp: text of %s[%d]: %w", sel, nth, err)
	}
	return out, nil
}

// Eval runs expr in the page and returns the JSON-encoded result value.
func (s *session) Eval(ctx context.Context, expr string) ([]byte, error) {
	res, err := s.call(ctx, "Runtime.evaluate", map[string]any{
		"expression":    expr,
		"returnByValue": true,
		"awaitPromise":  true,
	})
	if err != nil {
		return nil, err
	}
	var out struct {
		Result struct {
			Value json.RawMessage `json:"value"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text string `json:"text"`
		} `json:"exceptionDetails"`
	}
	if err := json.Unmarshal(res, &out); err != nil {
		return nil, fmt.Errorf("cdp: evaluate: %w", err)
	}
	if out.ExceptionDetails != nil {
		return nil, fmt.Errorf("cdp: evaluate: %s", out.ExceptionDetails.Text)
	}
	if out.Result.Value == nil {
		return []byte("null"), nil
	}
	return out.Result.Value, nil
}

func (s *session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.conn.Close()
	s.client.closeTarget(s.targetID)
	<-s.done
	return err
}

// poll evaluates a boolean predicate until it holds or timeout elapses.
func (s *session) poll(ctx context.Context, timeout time.Duration, predicate string) error {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := s.evalBool(ctx, predicate)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w after %s: %s", automation.ErrWaitTimeout, timeout, predicate)
		}
		if err := sleep(ctx, pollInterval); err != nil {
			return err
		}
	}
}

func (s *session) evalBool(ctx context.Context, expr string) (bool, error) {
	raw, err := s.Eval(ctx, expr)
	if err != nil {
		return false, err
	}
	var out bool
	if err := json.Unmarshal(raw, &out); err != nil {
		return false, fmt.Errorf("cdp: non-boolean predicate result %q", raw)
	}
	return out, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
