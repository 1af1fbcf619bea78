package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-doorbell/internal/auth"
	"github.com/nerrad567/gray-logic-doorbell/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-doorbell/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-doorbell/internal/notify"
)

// Event channels. Every client receives all of them.
const (
	ChannelMessage    = notify.ChannelMessage
	ChannelFingerlist = notify.ChannelFingerlist
	ChannelStatus     = "status"
)

// Frame types.
const (
	WSTypeEvent = "event"
	WSTypePing  = "ping"
	WSTypePong  = "pong"
)

// wsQueueLen is how many frames a slow client may fall behind before
// frames are dropped for it.
const wsQueueLen = 64

// WSMessage is a frame on the live stream. The server sends events and
// answers pings; the client sends nothing else of interest.
type WSMessage struct {
	Type      string `json:"type"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

func newEvent(channel string, payload any) WSMessage {
	return WSMessage{
		Type:      WSTypeEvent,
		EventType: channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	}
}

// Hub fans events out to the admin page's live connections.
//
// Thread Safety:
//   - Broadcast may be called from any goroutine. Queues are only closed
//     under the write lock, so a broadcast never sends on a closed queue.
type Hub struct {
	timing  wsTiming
	logger  *logging.Logger
	mu      sync.RWMutex
	clients map[*wsConn]struct{}
}

// wsTiming holds the keepalive intervals derived from configuration.
type wsTiming struct {
	readLimit int64
	ping      time.Duration
	pong      time.Duration
}

func (t wsTiming) readDeadline() time.Time { return time.Now().Add(t.ping + t.pong) }
func (t wsTiming) writeDeadline() time.Time { return time.Now().Add(t.pong) }

// wsConn is one live connection.
type wsConn struct {
	conn  *websocket.Conn
	queue chan []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are policed by the CORS middleware and the token.
	CheckOrigin: func(*http.Request) bool { return true },
}

// NewHub creates a hub with keepalives taken from cfg.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		timing: wsTiming{
			readLimit: int64(cfg.MaxMessageSize),
			ping:      time.Duration(cfg.PingInterval) * time.Second,
			pong:      time.Duration(cfg.PongTimeout) * time.Second,
		},
		logger:  logger,
		clients: make(map[*wsConn]struct{}),
	}
}

// Run blocks until ctx is cancelled, then drops every connection.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.queue)
	}
}

// Broadcast sends an event to every connection. It satisfies
// notify.Broadcaster.
func (h *Hub) Broadcast(channel string, payload any) {
	frame, err := json.Marshal(newEvent(channel, payload))
	if err != nil {
		h.logger.Error("encoding websocket event failed", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.enqueue(frame)
	}
	if n := len(h.clients); n > 0 {
		h.logger.Debug("websocket event sent", "channel", channel, "recipients", n)
	}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// attach registers c and queues the initial snapshot before any broadcast
// can reach it.
func (h *Hub) attach(c *wsConn, snapshot ...WSMessage) {
	h.mu.Lock()
	for _, msg := range snapshot {
		if frame, err := json.Marshal(msg); err == nil {
			c.enqueue(frame)
		}
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("websocket client connected", "clients", n)
}

// detach removes c. Only the caller that finds c registered closes its
// queue, so Run and the read loop can race safely.
func (h *Hub) detach(c *wsConn) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.queue)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Debug("websocket client disconnected", "clients", n)
	}
}

// enqueue drops the frame when the client is not keeping up. Callers hold
// the hub lock.
func (c *wsConn) enqueue(frame []byte) {
	select {
	case c.queue <- frame:
	default:
	}
}

// handleWebSocket upgrades the HTTP connection to a live stream.
// Authentication is via the token query parameter holding a login token,
// since browsers cannot set headers on a WebSocket handshake. The client
// receives the log history, fingerprint list and status before any live
// event.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.auth.Enabled() {
		writeDomainError(w, auth.ErrLoginDisabled)
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		writeUnauthorized(w, "token query parameter is required")
		return
	}
	if _, err := s.auth.Validate(token); err != nil {
		writeUnauthorized(w, "invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &wsConn{conn: conn, queue: make(chan []byte, wsQueueLen)}
	s.hub.attach(c,
		newEvent(ChannelMessage, s.notifications.RenderHistory()),
		newEvent(ChannelFingerlist, s.ctrl.Fingerprints()),
		newEvent(ChannelStatus, s.ctrl.Status()),
	)

	go s.hub.writeLoop(c)
	go s.hub.readLoop(c)
}

// readLoop keeps the read deadline fresh and answers application pings.
// It detaches the client when the connection ends.
func (h *Hub) readLoop(c *wsConn) {
	defer func() {
		h.detach(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(h.timing.readLimit)
	//nolint:errcheck // a failed deadline surfaces as a read error
	c.conn.SetReadDeadline(h.timing.readDeadline())
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(h.timing.readDeadline())
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		// Browsers cannot send protocol pings, so any frame counts as alive.
		//nolint:errcheck // a failed deadline surfaces as a read error
		c.conn.SetReadDeadline(h.timing.readDeadline())

		var msg WSMessage
		if json.Unmarshal(data, &msg) == nil && msg.Type == WSTypePing {
			if frame, err := json.Marshal(WSMessage{Type: WSTypePong}); err == nil {
				h.mu.RLock()
				c.enqueue(frame)
				h.mu.RUnlock()
			}
		}
	}
}

// writeLoop drains the queue and sends protocol pings until the queue is
// closed or a write fails.
func (h *Hub) writeLoop(c *wsConn) {
	ticker := time.NewTicker(h.timing.ping)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		var (
			kind int
			data []byte
		)
		select {
		case frame, ok := <-c.queue:
			if !ok {
				//nolint:errcheck // best-effort goodbye
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			kind, data = websocket.TextMessage, frame
		case <-ticker.C:
			kind = websocket.PingMessage
		}

		//nolint:errcheck // a failed deadline surfaces as a write error
		c.conn.SetWriteDeadline(h.timing.writeDeadline())
		if err := c.conn.WriteMessage(kind, data); err != nil {
			return
		}
	}
}
