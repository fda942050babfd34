package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spigell/interview-screener/internal/sink"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// Hub fans result delivery events out to websocket subscribers.
type Hub struct {
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	logger     *zap.Logger
}

type client struct {
	send chan []byte
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is done. All client
// connections are closed on return.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.Debug("delivery subscriber connected", zap.Int("subscribers", len(h.clients)))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Debug("delivery subscriber disconnected", zap.Int("subscribers", len(h.clients)))
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Drop message if buffer full
				}
			}
		}
	}
}

// Forward broadcasts every event from events until the channel closes or ctx
// is done.
func (h *Hub) Forward(ctx context.Context, events <-chan sink.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.Publish(ev)
		}
	}
}

// Publish queues ev for all connected subscribers without blocking.
func (h *Hub) Publish(ev sink.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Warn("failed to encode delivery event", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("delivery event queue is full, dropping event", zap.String("session_id", ev.SessionID))
	}
}

// ServeWS handles GET /v1/ws/deliveries
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{send: make(chan []byte, sendBuffer)}

	select {
	case h.register <- c:
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go h.writePump(conn, c)
	go h.readPump(conn, c)
}

func (h *Hub) readPump(conn *websocket.Conn, c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-time.After(writeWait):
		}
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
