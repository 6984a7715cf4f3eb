package monitor

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"k40nano/protocol"
)

func dial(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(NewServeMux(hub))
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		server.Close()
		t.Fatalf("Dial failed: %v", err)
	}

	// Registration happens in the handler goroutine
	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func TestPublishPacket(t *testing.T) {
	hub := NewHub()
	conn, done := dial(t, hub)
	defer done()

	packet, err := protocol.EncodePacket([]byte("IPP"))
	if err != nil {
		t.Fatal(err)
	}
	hub.PublishPacket(packet)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg received
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if msg.Type != "packet" {
		t.Fatalf("Expected packet event, got %q", msg.Type)
	}

	var event PacketEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		t.Fatal(err)
	}
	if event.Index != 1 {
		t.Errorf("Expected index 1, got %d", event.Index)
	}
	if !strings.HasPrefix(event.Text, "IPPF") || len(event.Text) != protocol.PacketPayloadSize {
		t.Errorf("Unexpected payload text %q", event.Text)
	}
	if !strings.HasPrefix(event.Hex, "a600") {
		t.Errorf("Unexpected hex %q", event.Hex)
	}
}

func TestPublishPosition(t *testing.T) {
	hub := NewHub()
	conn, done := dial(t, hub)
	defer done()

	hub.PublishPosition(120, -40, "compact")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg received
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	var event PositionEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "position" || event.X != 120 || event.Y != -40 || event.Mode != "compact" {
		t.Errorf("Unexpected event %s %+v", msg.Type, event)
	}
}

func TestClientRemovedOnDisconnect(t *testing.T) {
	hub := NewHub()
	conn, done := dial(t, hub)
	defer done()

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("Client was not removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastDoesNotWaitForStalledClient(t *testing.T) {
	hub := NewHub()
	conn, done := dial(t, hub)
	defer done()

	// A client whose writer never drains its queue
	stalled := newClient(nil)
	hub.mu.Lock()
	hub.clients[stalled] = struct{}{}
	hub.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		for i := 0; i < sendBuffer+10; i++ {
			hub.PublishPosition(i, 0, "compact")
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked on a stalled client")
	}
	if got := hub.Dropped(); got < 10 {
		t.Errorf("Expected the stalled client to drop 10 events, got %d", got)
	}

	// The healthy client still gets the stream in order
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg received
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	var event PositionEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		t.Fatal(err)
	}
	if event.X != 0 {
		t.Errorf("Expected first event, got %+v", event)
	}
}
