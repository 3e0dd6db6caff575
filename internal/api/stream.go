package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MelvinDY/SGM/internal/gold"
	"github.com/MelvinDY/SGM/internal/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
	sendBuffer     = 16
)

const (
	msgPrice   = "price"
	msgCatalog = "catalog"
	msgPong    = "pong"
)

type streamMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type streamClient struct {
	send chan streamMessage
}

// Hub fans price updates out to websocket subscribers.
// Slow clients whose buffer is full are dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
	closed  bool
	latest  *gold.SpotPrice
	log     *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*streamClient]struct{}),
		log:     logging.OrDiscard(log).With("component", "stream"),
	}
}

// register adds a client and primes it with the last published price.
func (h *Hub) register(c *streamClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- streamMessage{Type: msgPrice, Data: *h.latest}
	}
	return true
}

func (h *Hub) unregister(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// PublishPrice remembers p and broadcasts it. It matches the poller's OnPrice hook.
func (h *Hub) PublishPrice(p gold.SpotPrice) {
	h.mu.Lock()
	h.latest = &p
	h.mu.Unlock()
	h.Broadcast(streamMessage{Type: msgPrice, Data: p})
}

func (h *Hub) Broadcast(msg streamMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Warn("dropping slow stream client")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS setting, not per socket.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := &streamClient{send: make(chan streamMessage, sendBuffer)}
	if !s.hub.register(c) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}

	go s.writePump(conn, c)
	go s.readPump(conn, c)
}

// readPump only handles pings from the browser and detects disconnects.
func (s *Server) readPump(conn *websocket.Conn, c *streamClient) {
	defer func() {
		s.hub.unregister(c)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket read error", "err", err)
			}
			return
		}
		var msg streamMessage
		if json.Unmarshal(raw, &msg) == nil && msg.Type == "ping" {
			s.hub.reply(c, streamMessage{Type: msgPong})
		}
	}
}

// reply queues msg for one client unless it has already been dropped.
func (h *Hub) reply(c *streamClient, msg streamMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (s *Server) writePump(conn *websocket.Conn, c *streamClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
