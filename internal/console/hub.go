// Package console pushes operator display updates over websockets and feeds
// operator command text back into the guidance engine.
package console

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Update is one display frame: a named field and its latest rendering.
type Update struct {
	Name    string `json:"name"`
	Payload string `json:"payload"`
}

const clientSendBuffer = 64

type client struct {
	conn *websocket.Conn
	send chan Update
}

// Hub fans display updates out to every connected operator console. It
// implements guidance.Console: PostUpdate never blocks, and a client that
// cannot keep up is disconnected rather than stalling the engine.
//
// Every send to and close of a client channel happens under mu, with
// membership in clients as the liveness check, so a slow or dying client can
// never panic a sender.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger
	handle   func(text string) error

	mu      sync.Mutex
	clients map[*client]struct{}
	state   map[string]string
	closed  bool
}

// NewHub constructs a hub. handle receives each command line sent by a
// console client; a non-nil error is echoed back to that client only.
func NewHub(handle func(text string) error, logger *zap.Logger) *Hub {
	if handle == nil {
		handle = func(string) error { return nil }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger,
		handle:  handle,
		clients: make(map[*client]struct{}),
		state:   make(map[string]string),
	}
}

// PostUpdate delivers one display update to every client. Log lines are
// transient; every other field is retained and replayed to new connections.
func (h *Hub) PostUpdate(name, payload string) {
	update := Update{Name: name, Payload: payload}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if name != "log" {
		h.state[name] = payload
	}
	for c := range h.clients {
		select {
		case c.send <- update:
		default:
			h.removeLocked(c)
		}
	}
}

// Close disconnects every client and rejects future updates.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// ServeWS upgrades one HTTP request into a console session.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan Update, clientSendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	// Replay retained state so a fresh console starts fully populated. The
	// buffer is empty here, so these sends cannot fail for any realistic
	// number of fields.
	for name, payload := range h.state {
		select {
		case c.send <- Update{Name: name, Payload: payload}:
		default:
		}
	}
	h.mu.Unlock()

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for update := range c.send {
		if err := c.conn.WriteJSON(update); err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		text := string(msg)
		if text == "" {
			continue
		}
		if err := h.handle(text); err != nil {
			h.echo(c, "Command rejected: "+err.Error())
		}
	}
}

// echo sends one log line to a single client.
func (h *Hub) echo(c *client, payload string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- Update{Name: "log", Payload: payload}:
	default:
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

// removeLocked drops a client and closes its channel, which terminates the
// write loop. Callers hold mu.
func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}
