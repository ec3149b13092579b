package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Krimson/radar-scope/viewer/internal/chart"
	"github.com/Krimson/radar-scope/viewer/internal/plot"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Frame types sent to clients.
const (
	TypeHover  = "hover"
	TypeUpdate = "update"
	TypeError  = "error"
)

// ChartSource resolves the chart of a session.
type ChartSource interface {
	Chart(ctx context.Context, sessionID string) (*chart.Session, error)
}

// HoverRequest is a pointer position sent by the client, in plot-local pixels.
type HoverRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Left   float64 `json:"left,omitempty"`
	Top    float64 `json:"top,omitempty"`
	Radius float64 `json:"radius,omitempty"`
}

// Frame is every message the hub writes.
type Frame struct {
	Type        string             `json:"type"`
	SessionID   string             `json:"session_id"`
	Hover       *chart.HoverResult `json:"hover,omitempty"`
	SeriesCount int                `json:"series_count,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// Hub tracks websocket clients per session and answers their hover frames.
type Hub struct {
	source       ChartSource
	snapRadiusPx float64

	clients    map[*Client]bool
	unregister chan *Client
	broadcast  chan sessionMessage
	done       chan struct{}
	mu         sync.RWMutex
}

type sessionMessage struct {
	sessionID string
	data      []byte
}

// Client is one websocket connection bound to a session.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewHub creates a hub answering hover frames from source.
func NewHub(source ChartSource, snapRadiusPx float64) *Hub {
	if snapRadiusPx <= 0 {
		snapRadiusPx = 10
	}
	return &Hub{
		source:       source,
		snapRadiusPx: snapRadiusPx,
		clients:      make(map[*Client]bool),
		unregister:   make(chan *Client),
		broadcast:    make(chan sessionMessage, sendBuffer),
		done:         make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			close(h.done)
			h.mu.Unlock()
			return

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("[WEBSOCKET] Client unregistered: %p", client)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client.sessionID != msg.sessionID {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NotifySession tells the clients of a session that its series changed.
func (h *Hub) NotifySession(sessionID string, seriesCount int) {
	message, err := json.Marshal(Frame{Type: TypeUpdate, SessionID: sessionID, SeriesCount: seriesCount})
	if err != nil {
		log.Printf("[ERROR] Failed to marshal update frame: %v", err)
		return
	}

	select {
	case h.broadcast <- sessionMessage{sessionID: sessionID, data: message}:
	default:
		log.Printf("[WARN] Broadcast channel full, dropping update for session %s", sessionID)
	}
}

// HandleWebSocket upgrades /ws?session_id=... connections.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	if _, err := h.source.Chart(r.Context(), sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ERROR] Failed to upgrade connection: %v", err)
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		sessionID: sessionID,
	}

	if !h.add(client) {
		conn.Close()
		return
	}
	log.Printf("[WEBSOCKET] Client registered: %p, session: %s", client, sessionID)

	go client.writePump()
	go client.readPump()
}

// add registers a client unless the hub has stopped.
func (h *Hub) add(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		return false
	default:
	}
	h.clients[c] = true
	return true
}

// answer computes the reply to one inbound frame.
func (h *Hub) answer(sessionID string, raw []byte) Frame {
	var req HoverRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return Frame{Type: TypeError, SessionID: sessionID, Error: "invalid hover frame"}
	}
	if req.Width <= 0 || req.Height <= 0 {
		return Frame{Type: TypeError, SessionID: sessionID, Error: "width and height must be positive"}
	}

	cs, err := h.source.Chart(context.Background(), sessionID)
	if err != nil {
		return Frame{Type: TypeError, SessionID: sessionID, Error: "session not found"}
	}

	radius := h.snapRadiusPx
	if req.Radius > 0 {
		radius = req.Radius
	}
	vp := plot.Viewport{Left: req.Left, Top: req.Top, Width: req.Width, Height: req.Height}
	res := cs.Hover(req.X, req.Y, vp, radius)
	return Frame{Type: TypeHover, SessionID: sessionID, Hover: &res}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[ERROR] WebSocket error: %v", err)
			}
			break
		}

		message, err := json.Marshal(c.hub.answer(c.sessionID, raw))
		if err != nil {
			log.Printf("[ERROR] Failed to marshal hover frame: %v", err)
			continue
		}

		c.hub.deliver(c, message)
	}
}

// deliver queues a reply unless the client was already dropped. Holding the read lock keeps Run from closing c.send meanwhile.
func (h *Hub) deliver(c *Client, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[c] {
		return
	}
	select {
	case c.send <- message:
	default:
		log.Printf("[WARN] Client %p is not reading, dropping hover frame", c)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("[ERROR] Failed to write message: %v", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
