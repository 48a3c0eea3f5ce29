package scraperd

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arun279/notebook-sources/internal/domain"
)

var upgrader = websocket.Upgrader{}

// newPushServer runs serve on each upgraded connection and returns a client
// pointed at it.
func newPushServer(t *testing.T, serve func(conn *websocket.Conn)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ws/progress/job-1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		serve(conn)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "", testLogger())
}

func nextEvent(t *testing.T, events <-chan domain.PushEvent) (domain.PushEvent, bool) {
	t.Helper()
	select {
	case ev, ok := <-events:
		return ev, ok
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for push event")
		return domain.PushEvent{}, false
	}
}

func TestPushStreamDeliversEvents(t *testing.T) {
	c := newPushServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(map[string]string{"event": "record_done", "reference_id": "r1"})
		conn.WriteJSON(map[string]string{"event": "job_complete"})
		// Wait for the client's close handshake.
		conn.ReadMessage()
	})

	stream, err := c.OpenProgress(t.Context(), "job-1")
	if err != nil {
		t.Fatalf("OpenProgress: %v", err)
	}
	defer stream.Close()

	ev, ok := nextEvent(t, stream.Events())
	if !ok || ev.Event != domain.EventRecordDone || ev.RecordID != "r1" {
		t.Fatalf("first event = %+v, %v", ev, ok)
	}

	ev, ok = nextEvent(t, stream.Events())
	if !ok || !ev.Done() {
		t.Fatalf("second event = %+v, %v, want job_complete", ev, ok)
	}

	// After job_complete the stream self-closes and the channel ends.
	if _, ok := nextEvent(t, stream.Events()); ok {
		t.Error("channel should be closed after job_complete")
	}
}

func TestPushStreamIgnoresUnknownEvents(t *testing.T) {
	c := newPushServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(map[string]string{"event": "heartbeat"})
		conn.WriteJSON(map[string]string{"event": "record_done", "reference_id": "r2"})
		conn.ReadMessage()
	})

	stream, err := c.OpenProgress(t.Context(), "job-1")
	if err != nil {
		t.Fatalf("OpenProgress: %v", err)
	}
	defer stream.Close()

	ev, ok := nextEvent(t, stream.Events())
	if !ok || ev.RecordID != "r2" {
		t.Fatalf("event = %+v, %v, unknown kinds must be skipped", ev, ok)
	}
}

func TestPushStreamAbruptDrop(t *testing.T) {
	c := newPushServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(map[string]string{"event": "record_done", "reference_id": "r1"})
		// Drop without job_complete.
		conn.Close()
	})

	stream, err := c.OpenProgress(t.Context(), "job-1")
	if err != nil {
		t.Fatalf("OpenProgress: %v", err)
	}
	defer stream.Close()

	if _, ok := nextEvent(t, stream.Events()); !ok {
		t.Fatal("expected the buffered event before the drop")
	}

	// The drop closes the channel without a completion event; not an error.
	if _, ok := nextEvent(t, stream.Events()); ok {
		t.Error("channel should be closed after the drop")
	}
}

func TestPushStreamCloseIsIdempotent(t *testing.T) {
	c := newPushServer(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
	})

	stream, err := c.OpenProgress(t.Context(), "job-1")
	if err != nil {
		t.Fatalf("OpenProgress: %v", err)
	}

	if err := stream.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if _, ok := nextEvent(t, stream.Events()); ok {
		t.Error("channel should be closed after Close")
	}
}

func TestOpenProgressDialFailure(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", testLogger())
	if _, err := c.OpenProgress(t.Context(), "job-1"); err == nil {
		t.Fatal("expected dial failure")
	}
}
