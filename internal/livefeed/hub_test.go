package livefeed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"listing-radar/internal/domain"
)

func dialTestHub(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial failed: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestHub_PublishReachesClient(t *testing.T) {
	hub := NewHub(nil)
	conn, cleanup := dialTestHub(t, hub)
	defer cleanup()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	// First frame is the connection init.
	var init map[string]interface{}
	if err := conn.ReadJSON(&init); err != nil {
		t.Fatalf("read init: %v", err)
	}
	if init["type"] != "connection_init" {
		t.Errorf("unexpected init frame: %v", init)
	}

	n := &domain.Notification{
		ID:        "n1",
		EventKind: domain.EventNewCoin,
		Currency:  domain.Currency{Symbol: "SOL", Name: "Solana"},
		Exchange:  domain.Exchange{Name: "Binance"},
	}
	hub.Publish(n)

	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read notification: %v", err)
	}
	var msg feedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if msg.Type != "notification" {
		t.Errorf("unexpected frame type %q", msg.Type)
	}
	if msg.Notification == nil || msg.Notification.ID != "n1" {
		t.Errorf("unexpected notification: %+v", msg.Notification)
	}
}

func TestHub_DisconnectedClientDropped(t *testing.T) {
	hub := NewHub(nil)
	conn, cleanup := dialTestHub(t, hub)
	defer cleanup()

	waitForClients(t, hub, 1)
	conn.Close()

	// The hub notices the disconnect via its read loop.
	waitForClients(t, hub, 0)

	// Publishing with no clients must be a no-op.
	hub.Publish(&domain.Notification{ID: "n2"})
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d clients, got %d", want, hub.ClientCount())
}
