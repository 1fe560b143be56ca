package websocket

import (
	"net/http"

	"live-voting/internal/domain"
	"live-voting/pkg/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// InitialData produces the message sent to every client right after it connects.
type InitialData func() (domain.Message, error)

// PushHandler upgrades requests to push connections registered with a Hub.
type PushHandler struct {
	hub     *Hub
	initial InitialData
	log     logger.Logger
}

func NewPushHandler(hub *Hub, initial InitialData, log logger.Logger) *PushHandler {
	return &PushHandler{
		hub:     hub,
		initial: initial,
		log:     log,
	}
}

func (h *PushHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewClientConnection(conn)
	if err := h.hub.Join(client, h.initial); err != nil {
		h.log.Error("Failed to send initial data", "client_id", client.ID(), "error", err)
		client.Close()
		return
	}

	go h.handleMessages(client)
}

// handleMessages keeps the connection open until the client goes away.
// Inbound messages are ignored apart from ping.
func (h *PushHandler) handleMessages(client *ClientConnection) {
	defer func() {
		h.hub.Unregister(client.ID())
		client.Close()
	}()

	for {
		_, frame, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := domain.DecodeMessage(frame)
		if err != nil {
			continue
		}
		if msg.Type == "ping" {
			pong, _ := domain.NewMessage("pong", nil)
			client.Send(pong.Envelope())
		}
	}
}
