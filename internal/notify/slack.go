// Package notify posts invocation outcomes to a Slack incoming webhook.
// Delivery is best-effort: a failed send is logged but never changes the
// outcome of the invocation that produced the message.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type Slack struct {
	url string
	hc  *http.Client
	log zerolog.Logger
}

func NewSlack(webhookURL string, log zerolog.Logger) *Slack {
	return &Slack{
		url: webhookURL,
		hc:  &http.Client{Timeout: 10 * time.Second},
		log: log.With().Str("component", "notify").Logger(),
	}
}

// Notify sends one message. The returned error is informational; callers
// are expected to ignore it after the send has been logged here.
func (s *Slack) Notify(ctx context.Context, text string) error {
	payload, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.hc.Do(req)
	if err != nil {
		s.log.Warn().Err(err).Msg("notification send failed")
		return err
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))

	if res.StatusCode >= 400 {
		err := fmt.Errorf("notify: slack returned %d: %s", res.StatusCode, bytes.TrimSpace(body))
		s.log.Warn().Err(err).Msg("notification send failed")
		return err
	}

	s.log.Debug().Msg("notification sent")
	return nil
}
