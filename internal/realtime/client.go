package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/brickstudio/backend/internal/live"
	"github.com/brickstudio/backend/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// ControlMessage is the inbound envelope from admin control panels.
type ControlMessage struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// TokenValidator resolves a JWT into a user role.
type TokenValidator func(token string) (userID, role string, err error)

// PincodeResolver resolves a viewer pincode into a workshop identity.
type PincodeResolver func(ctx context.Context, pincode string) (uuid.UUID, error)

// Client is a single websocket connection in a workshop room.
type Client struct {
	ID         string
	WorkshopID uuid.UUID
	Role       live.Role
	hub        *Hub
	manager    *live.Manager
	conn       *websocket.Conn
	send       chan live.SyncMessage
	logger     *zap.Logger
}

// ServeWs upgrades the connection and runs the client loops. Admin and
// presenter clients authenticate with ?token=, remote viewers with ?pincode=;
// both end up in the same workshop room, the role only gates write access.
func ServeWs(hub *Hub, manager *live.Manager, validate TokenValidator, resolvePincode PincodeResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		workshopID, role, ok := authenticate(c, validate, resolvePincode)
		if !ok {
			return
		}

		snapshot, err := manager.Snapshot(c.Request.Context(), workshopID)
		if err != nil {
			response.NotFound(c, "workshop not found")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:         uuid.New().String(),
			WorkshopID: workshopID,
			Role:       role,
			hub:        hub,
			manager:    manager,
			conn:       conn,
			send:       make(chan live.SyncMessage, 64),
			logger:     logger,
		}
		hub.Register(client)

		// first paint: the joining client gets the current snapshot before
		// any broadcast arrives
		client.send <- live.SyncMessage{Type: live.MessageStateSync, Payload: snapshot}

		go client.writePump()
		client.readPump()
	}
}

func authenticate(c *gin.Context, validate TokenValidator, resolvePincode PincodeResolver) (uuid.UUID, live.Role, bool) {
	if pin := c.Query("pincode"); pin != "" {
		workshopID, err := resolvePincode(c.Request.Context(), pin)
		if err != nil {
			response.Unauthorized(c, "invalid pincode")
			return uuid.Nil, "", false
		}
		return workshopID, live.RoleViewer, true
	}

	workshopIDStr := c.Query("workshop_id")
	token := c.Query("token")
	if workshopIDStr == "" || token == "" {
		response.BadRequest(c, "workshop_id and token (or pincode) required")
		return uuid.Nil, "", false
	}
	workshopID, err := uuid.Parse(workshopIDStr)
	if err != nil {
		response.BadRequest(c, "invalid workshop_id")
		return uuid.Nil, "", false
	}
	_, userRole, err := validate(token)
	if err != nil {
		response.Unauthorized(c, "invalid token")
		return uuid.Nil, "", false
	}
	// presenter displays connect with a facilitator token but stay read-only
	role := live.RoleViewer
	if c.Query("role") != "presenter" && (userRole == "admin" || userRole == "facilitator") {
		role = live.RoleAdmin
	}
	return workshopID, role, true
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg ControlMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		if c.Role != live.RoleAdmin {
			continue // viewers and presenters are read-only
		}
		c.handleControl(msg)
	}
}

func (c *Client) handleControl(msg ControlMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	room, err := c.manager.Room(ctx, c.WorkshopID)
	if err != nil {
		c.logger.Warn("control action without room", zap.String("workshop_id", c.WorkshopID.String()), zap.Error(err))
		return
	}
	ctrl := room.Controller

	switch msg.Action {
	case "slide_next":
		err = ctrl.NextSlide()
	case "slide_prev":
		err = ctrl.PrevSlide()
	case "slide_goto":
		var data struct {
			Index int `json:"index"`
		}
		if err = json.Unmarshal(msg.Data, &data); err == nil {
			err = ctrl.GotoSlide(data.Index)
		}
	case "timer_start":
		var data struct {
			Phase        string `json:"phase"`
			TotalSeconds int    `json:"total_seconds"`
		}
		if err = json.Unmarshal(msg.Data, &data); err == nil {
			err = ctrl.StartTimer(live.Phase(data.Phase), data.TotalSeconds)
		}
	case "timer_pause":
		err = ctrl.PauseTimer()
	case "timer_resume":
		err = ctrl.ResumeTimer()
	case "timer_stop":
		err = ctrl.StopTimer()
	case "display_mode":
		var data struct {
			Mode string `json:"mode"`
		}
		if err = json.Unmarshal(msg.Data, &data); err == nil {
			err = ctrl.SetDisplayMode(live.DisplayMode(data.Mode))
		}
	case "alarm_mute":
		err = ctrl.MuteAlarm()
	case "alarm_snooze":
		var data struct {
			Minutes int `json:"minutes"`
		}
		if err = json.Unmarshal(msg.Data, &data); err == nil {
			err = ctrl.SnoozeAlarm(time.Duration(data.Minutes) * time.Minute)
		}
	case "alarm_dismiss":
		err = ctrl.DismissAlarm()
	case "complete":
		err = ctrl.Complete()
	default:
		// ignore
	}
	if err != nil {
		c.logger.Debug("control action rejected",
			zap.String("action", msg.Action),
			zap.String("workshop_id", c.WorkshopID.String()),
			zap.Error(err))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
