package scraperd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/arun279/notebook-sources/internal/domain"
)

// progressStream implements domain.ProgressStream over a WebSocket.
// The server pushes record_done and job_complete events with no
// acknowledgement protocol; closing is client-initiated. A drop without
// job_complete simply ends the event channel - the poller remains the
// channel of record.
type progressStream struct {
	conn   *websocket.Conn
	events chan domain.PushEvent
	logger *slog.Logger

	closeOnce sync.Once
}

// OpenProgress opens the push channel for a scrape job.
func (c *Client) OpenProgress(ctx context.Context, jobID string) (domain.ProgressStream, error) {
	wsURL, err := c.websocketURL("/ws/progress/" + jobID)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("User-Agent", userAgent)
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		c.logger.Warn("push channel dial failed", "jobID", jobID, "error", err)
		return nil, domain.ErrServerOffline
	}
	if resp != nil {
		resp.Body.Close()
	}

	s := &progressStream{
		conn:   conn,
		events: make(chan domain.PushEvent, 16),
		logger: c.logger,
	}
	go s.readLoop(jobID)

	c.logger.Info("push channel opened", "jobID", jobID)
	return s, nil
}

// websocketURL converts the configured HTTP base URL into a ws/wss URL.
func (c *Client) websocketURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = u.Path + apiPrefix + path
	return u.String(), nil
}

// readLoop pumps decoded events into the channel until the connection ends.
// It is the only writer and the only closer of s.events.
func (s *progressStream) readLoop(jobID string) {
	defer close(s.events)

	for {
		var ev domain.PushEvent
		if err := s.conn.ReadJSON(&ev); err != nil {
			// Covers client-initiated close, server close, and transport
			// failure alike; the consumer falls back to polling.
			s.logger.Debug("push channel ended", "jobID", jobID, "error", err)
			return
		}

		switch ev.Event {
		case domain.EventRecordDone, domain.EventJobComplete:
			s.events <- ev
		default:
			// Unknown event kinds are skipped, not fatal.
			s.logger.Debug("ignoring unknown push event", "jobID", jobID, "event", ev.Event)
			continue
		}

		if ev.Done() {
			s.Close()
			return
		}
	}
}

// Close tears the stream down. Safe to call more than once.
func (s *progressStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		// Best-effort close handshake, then drop the connection.
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteMessage(websocket.CloseMessage, msg)
		err = s.conn.Close()
	})
	return err
}

// Events returns the event channel. Closed when the stream ends.
func (s *progressStream) Events() <-chan domain.PushEvent {
	return s.events
}
