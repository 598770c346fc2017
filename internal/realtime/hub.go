package realtime

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brickstudio/backend/internal/live"
)

const (
	// PingInterval and PongWait (seconds) are used for websocket heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains workshop_id -> set of websocket connections and fans inbound
// channel messages out to them. The channel subscription for a workshop lives
// exactly as long as it has connected clients.
type Hub struct {
	workshops   map[uuid.UUID]map[string]*Client
	subs        map[uuid.UUID]func()
	mu          sync.RWMutex
	logger      *zap.Logger
	broadcaster live.Broadcaster
}

// NewHub creates a websocket hub on top of a broadcaster.
func NewHub(broadcaster live.Broadcaster, logger *zap.Logger) *Hub {
	return &Hub{
		workshops:   make(map[uuid.UUID]map[string]*Client),
		subs:        make(map[uuid.UUID]func()),
		logger:      logger,
		broadcaster: broadcaster,
	}
}

// Register adds a client to a workshop room, opening the upstream channel
// subscription when it is the first one.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.workshops[c.WorkshopID] == nil {
		h.workshops[c.WorkshopID] = make(map[string]*Client)
		if h.broadcaster != nil {
			wid := c.WorkshopID
			cancel, err := h.broadcaster.Subscribe(wid, func(msg live.SyncMessage) {
				h.fanOut(wid, msg)
			})
			if err != nil {
				h.logger.Warn("workshop channel subscription failed",
					zap.String("workshop_id", wid.String()), zap.Error(err))
			} else {
				h.subs[wid] = cancel
			}
		}
	}
	h.workshops[c.WorkshopID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined workshop",
		zap.String("client_id", c.ID),
		zap.String("workshop_id", c.WorkshopID.String()),
		zap.String("role", string(c.Role)))
}

// Unregister removes a client, cancelling the upstream subscription when the
// last one leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.workshops[c.WorkshopID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.workshops, c.WorkshopID)
			if cancel, ok := h.subs[c.WorkshopID]; ok {
				cancel()
				delete(h.subs, c.WorkshopID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left workshop",
		zap.String("client_id", c.ID),
		zap.String("workshop_id", c.WorkshopID.String()))
}

// AudienceCount returns the number of connected clients for a workshop.
func (h *Hub) AudienceCount(workshopID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.workshops[workshopID])
}

func (h *Hub) fanOut(workshopID uuid.UUID, msg live.SyncMessage) {
	h.mu.RLock()
	clients := h.workshops[workshopID]
	targets := make([]*Client, 0, len(clients))
	for _, c := range clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}
