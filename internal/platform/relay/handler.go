package relay

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/clinicos/clinicos/internal/platform/tenant"
)

// ClientMessage is an inbound message from a connected client.
type ClientMessage struct {
	Event  string `json:"event"`  // "join_room" | "update_status"
	UserID string `json:"user_id,omitempty"`
	Status string `json:"status,omitempty"`
}

// StatusSink receives connection lifecycle and status updates from the relay.
// The presence tracker implements it.
type StatusSink interface {
	Connected(ctx context.Context, orgID, userID uuid.UUID)
	Disconnected(ctx context.Context, orgID, userID uuid.UUID)
	UpdateStatus(ctx context.Context, orgID, userID uuid.UUID, status string) error
}

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin is enforced by the CORS layer in front.
	},
}

// Handler upgrades authenticated, tenant-scoped requests to relay
// connections.
type Handler struct {
	hub  *Hub
	sink StatusSink
}

func NewHandler(hub *Hub, sink StatusSink) *Handler {
	return &Handler{hub: hub, sink: sink}
}

// RegisterRoutes mounts the relay endpoint on a tenant-scoped group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.HandleConnect)
}

// HandleConnect upgrades the connection, registers the client, and starts the
// read/write pumps. The tenant middleware has already established who the
// caller is and which organization it operates on.
func (h *Handler) HandleConnect(c echo.Context) error {
	tc, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing_tenant_context")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:     uuid.New().String(),
		UserID: tc.UserID,
		OrgID:  tc.OrgID,
		Send:   make(chan []byte, 256),
	}

	h.hub.Register(client)
	h.sink.Connected(context.Background(), tc.OrgID, tc.UserID)

	go h.writePump(client, ws)
	go h.readPump(client, ws)

	return nil
}

func (h *Handler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		ws.Close()
		h.sink.Disconnected(context.Background(), client.OrgID, client.UserID)
	}()

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue // Ignore malformed messages.
		}

		h.process(client, msg)
	}
}

func (h *Handler) process(client *Client, msg ClientMessage) {
	switch msg.Event {
	case "join_room":
		userID, err := uuid.Parse(msg.UserID)
		if err != nil {
			return
		}
		h.hub.JoinRoom(client, userID)
	case "update_status":
		// Per-event errors are logged by the sink and never tear down the
		// connection.
		_ = h.sink.UpdateStatus(context.Background(), client.OrgID, client.UserID, msg.Status)
	}
}

func (h *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	defer ws.Close()

	for message := range client.Send {
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}
