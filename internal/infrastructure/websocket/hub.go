package websocket

import (
	"sync"
	"time"

	"live-voting/internal/domain"
	"live-voting/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// ClientConnection is one push subscriber connected to the Hub.
type ClientConnection struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex // gorilla allows a single concurrent writer
}

func NewClientConnection(conn *websocket.Conn) *ClientConnection {
	return &ClientConnection{
		id:   uuid.NewString(),
		conn: conn,
	}
}

func (cc *ClientConnection) ID() string {
	return cc.id
}

func (cc *ClientConnection) Send(payload []byte) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return cc.conn.WriteMessage(websocket.TextMessage, payload)
}

func (cc *ClientConnection) Close() error {
	return cc.conn.Close()
}

// Hub tracks connected push clients and fans envelopes out to all of them.
type Hub struct {
	connections map[string]*ClientConnection
	mutex       sync.RWMutex
	log         logger.Logger

	// sendMu orders broadcasts with joins
	sendMu sync.Mutex
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*ClientConnection),
		log:         log,
	}
}

func (h *Hub) Register(conn *ClientConnection) {
	h.mutex.Lock()
	h.connections[conn.ID()] = conn
	count := len(h.connections)
	h.mutex.Unlock()

	h.log.Info("Client connected", "client_id", conn.ID(), "active", count)
}

// Join sends the greeting built by initial to conn and registers it. No
// broadcast runs in between, so the client misses nothing sent after its
// greeting was built.
func (h *Hub) Join(conn *ClientConnection, initial InitialData) error {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()

	if initial != nil {
		msg, err := initial()
		if err != nil {
			h.log.Error("Failed to build initial data", "client_id", conn.ID(), "error", err)
		} else if err := conn.Send(msg.Envelope()); err != nil {
			return err
		}
	}

	h.Register(conn)
	return nil
}

func (h *Hub) Unregister(id string) {
	h.mutex.Lock()
	_, existed := h.connections[id]
	delete(h.connections, id)
	count := len(h.connections)
	h.mutex.Unlock()

	if existed {
		h.log.Info("Client disconnected", "client_id", id, "active", count)
	}
}

func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.connections)
}

func (h *Hub) snapshot() []*ClientConnection {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	connections := make([]*ClientConnection, 0, len(h.connections))
	for _, conn := range h.connections {
		connections = append(connections, conn)
	}
	return connections
}

// Broadcast sends msg to every client. Clients that fail to receive are
// closed and dropped; the broadcast continues with the others.
func (h *Hub) Broadcast(msg domain.Message) error {
	payload := msg.Envelope()

	h.sendMu.Lock()
	connections := h.snapshot()

	var failed []string
	for _, conn := range connections {
		if err := conn.Send(payload); err != nil {
			h.log.Error("Failed to send message", "client_id", conn.ID(), "type", msg.Type, "error", err)
			failed = append(failed, conn.ID())
			conn.Close()
		}
	}
	h.sendMu.Unlock()

	for _, id := range failed {
		h.Unregister(id)
	}
	if len(failed) > 0 {
		h.log.Warn("Dropped unreachable clients", "count", len(failed), "active", h.Count())
	}

	return nil
}

// CloseAll closes and unregisters every client.
func (h *Hub) CloseAll() {
	for _, conn := range h.snapshot() {
		if err := conn.Close(); err != nil {
			h.log.Error("Failed to close connection", "client_id", conn.ID(), "error", err)
		}
		h.Unregister(conn.ID())
	}
}
