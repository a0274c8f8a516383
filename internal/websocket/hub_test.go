package websocket

import (
	"encoding/json"
	"log/slog"
	"testing"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.DiscardHandler))
}

func TestRegisterUnregister(t *testing.T) {
	h := testHub()
	c := NewClient(h, nil)

	h.Register(c)
	if h.ClientCount() != 1 {
		t.Errorf("client count = %d, want 1", h.ClientCount())
	}

	h.Unregister(c)
	if h.ClientCount() != 0 {
		t.Errorf("client count = %d, want 0", h.ClientCount())
	}

	// Double unregister must not panic or double-close.
	h.Unregister(c)
}

func TestBroadcastDeliversToAllClients(t *testing.T) {
	h := testHub()
	c1 := NewClient(h, nil)
	c2 := NewClient(h, nil)
	h.Register(c1)
	h.Register(c2)

	h.Broadcast(SnapshotMessage(map[string]any{"items": []string{}}))

	for i, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("client %d: unmarshal: %v", i, err)
			}
			if msg.Type != "snapshot" {
				t.Errorf("client %d: type = %q, want snapshot", i, msg.Type)
			}
		default:
			t.Errorf("client %d: no message queued", i)
		}
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	h := testHub()
	c := NewClient(h, nil)
	h.Register(c)

	// Fill the buffer and one more; the overflow must be dropped, not block.
	for i := 0; i < sendBufferSize+5; i++ {
		h.Broadcast(SnapshotMessage(i))
	}

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("queued = %d, want %d", got, sendBufferSize)
	}
}

func TestClientSend(t *testing.T) {
	h := testHub()
	c := NewClient(h, nil)

	c.Send(SnapshotMessage("hola"))
	if len(c.send) != 1 {
		t.Errorf("queued = %d, want 1", len(c.send))
	}
}
