package ws

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
)

func TestSendQueuesBeforePumpStarts(t *testing.T) {
	client := NewClient(nil)

	if err := client.Send(map[string]any{"type": "OPEN"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	select {
	case data := <-client.send:
		if string(data) != `{"type":"OPEN"}` {
			t.Errorf("unexpected queued frame: %s", data)
		}
	default:
		t.Fatal("frame was not queued")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	client := NewClient(nil)

	if client.IsClosed() {
		t.Fatal("new client reports closed")
	}

	client.Close()
	client.Close()

	if !client.IsClosed() {
		t.Fatal("client not closed after Close")
	}

	if err := client.Send("late"); err != websocket.ErrCloseSent {
		t.Errorf("expected ErrCloseSent on closed client, got %v", err)
	}
}

func TestSendOnFullBufferReportsBackpressure(t *testing.T) {
	client := NewClient(nil)

	for i := 0; i < cap(client.send); i++ {
		if err := client.Send(i); err != nil {
			t.Fatalf("send %d failed: %v", i, err)
		}
	}

	if err := client.Send("overflow"); err != ErrSendBufferFull {
		t.Fatalf("expected ErrSendBufferFull, got %v", err)
	}
	if !client.IsClosed() {
		t.Error("client not closed after buffer overflow")
	}

	// Once closed, further sends report the close, not backpressure.
	if err := client.Send("late"); err != websocket.ErrCloseSent {
		t.Errorf("expected ErrCloseSent after close, got %v", err)
	}
}

func TestSetCheckOriginGatesUpgrade(t *testing.T) {
	defer SetCheckOrigin(func(*http.Request) bool { return true })

	var gotOrigin string
	SetCheckOrigin(func(r *http.Request) bool {
		gotOrigin = r.Header.Get("Origin")
		return false
	})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	req.Header.Set("Origin", "https://denied.example")

	rec := httptest.NewRecorder()
	if _, err := Upgrade(rec, req); err == nil {
		t.Fatal("expected upgrade rejection for denied origin")
	}
	if gotOrigin != "https://denied.example" {
		t.Errorf("origin checker saw %q", gotOrigin)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestSendFlushableAfterClose(t *testing.T) {
	client := NewClient(nil)

	client.Send(map[string]any{"type": "ERROR"})
	client.Close()

	// Frames queued before Close remain readable so the write pump can
	// flush them before dropping the socket.
	data, ok := <-client.send
	if !ok {
		t.Fatal("queued frame lost on close")
	}
	if string(data) != `{"type":"ERROR"}` {
		t.Errorf("unexpected frame: %s", data)
	}

	if _, ok := <-client.send; ok {
		t.Error("expected channel drained and closed")
	}
}
