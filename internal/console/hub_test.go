package console

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

func TestHubReplaysRetainedState(t *testing.T) {
	hub := NewHub(nil, nil)
	hub.PostUpdate("status", "Guidance: HOLD")
	hub.PostUpdate("log", "transient line")
	hub.PostUpdate("status", "Guidance: AUTO")

	conn := dialHub(t, hub)

	var update Update
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatalf("read: %v", err)
	}
	if update.Name != "status" || update.Payload != "Guidance: AUTO" {
		t.Errorf("replayed %+v, want latest status", update)
	}
}

func TestHubBroadcastsUpdates(t *testing.T) {
	hub := NewHub(nil, nil)
	conn := dialHub(t, hub)

	hub.PostUpdate("range", "Range:  120.0 m")

	var update Update
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatalf("read: %v", err)
	}
	if update.Name != "range" || !strings.Contains(update.Payload, "120.0") {
		t.Errorf("got %+v", update)
	}
}

func TestHubForwardsCommands(t *testing.T) {
	received := make(chan string, 1)
	hub := NewHub(func(text string) error {
		received <- text
		return nil
	}, nil)
	conn := dialHub(t, hub)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("catch")); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-received:
		if got != "catch" {
			t.Errorf("handler received %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command never reached the handler")
	}
}

func TestHubEchoesRejection(t *testing.T) {
	hub := NewHub(func(text string) error {
		return fmt.Errorf("unknown command %q", text)
	}, nil)
	conn := dialHub(t, hub)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("launch")); err != nil {
		t.Fatal(err)
	}
	var update Update
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatalf("read: %v", err)
	}
	if update.Name != "log" || !strings.Contains(update.Payload, "Command rejected") {
		t.Errorf("got %+v, want rejection echo", update)
	}
}

func TestHubCloseIsIdempotent(t *testing.T) {
	hub := NewHub(nil, nil)
	hub.Close()
	hub.Close()
	// Updates after close are discarded without panicking.
	hub.PostUpdate("status", "late")
}
