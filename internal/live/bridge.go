package live

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Role determines write authority on a bridge.
type Role string

const (
	// RoleAdmin is the sole writer for a workshop.
	RoleAdmin Role = "admin"
	// RoleViewer covers read-only displays: pincode-gated remote viewers and
	// the on-site presenter screen.
	RoleViewer Role = "viewer"
)

// Broadcaster is the transport collaborator: one logical channel per workshop,
// fire-and-forget publish, best-effort delivery to all current subscribers.
type Broadcaster interface {
	Subscribe(workshopID uuid.UUID, onMessage func(SyncMessage)) (cancel func(), err error)
	Publish(workshopID uuid.UUID, msg SyncMessage) error
}

// Bridge binds one client's store to a workshop's broadcast channel. Admin
// bridges additionally register the store's publisher so local control actions
// propagate outward; viewer bridges are strictly inbound.
type Bridge struct {
	workshopID uuid.UUID
	role       Role
	store      *Store
	logger     *zap.Logger

	mu     sync.Mutex
	cancel func()
	closed bool
}

// Attach stores the initial snapshot immediately (first paint shows correct
// data before any round trip), then subscribes to the workshop's channel.
// A subscription failure leaves a degraded but usable bridge: the initial
// snapshot is retained and the error is returned for the caller to surface;
// reconnect policy belongs to the transport, not here.
func Attach(workshopID uuid.UUID, initial *WorkshopLiveState, role Role, store *Store, b Broadcaster, logger *zap.Logger) (*Bridge, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	br := &Bridge{workshopID: workshopID, role: role, store: store, logger: logger}

	if initial != nil {
		store.SetState(initial)
	}

	cancel, err := b.Subscribe(workshopID, br.onMessage)
	if err != nil {
		return br, fmt.Errorf("subscribe workshop channel: %w", err)
	}
	br.mu.Lock()
	br.cancel = cancel
	br.mu.Unlock()

	if role == RoleAdmin {
		store.SetPublisher(func(msg SyncMessage) {
			if err := b.Publish(workshopID, msg); err != nil {
				logger.Warn("publish sync message", zap.String("workshop_id", workshopID.String()), zap.Error(err))
			}
		})
	}
	return br, nil
}

// onMessage validates and applies every inbound message. All six message
// types carry a full snapshot and are applied identically; stale payloads are
// dropped by the store's last-write-wins guard.
func (br *Bridge) onMessage(msg SyncMessage) {
	br.mu.Lock()
	closed := br.closed
	br.mu.Unlock()
	if closed {
		return
	}
	if err := msg.Validate(); err != nil {
		br.logger.Debug("rejected malformed sync message",
			zap.String("workshop_id", br.workshopID.String()), zap.Error(err))
		return
	}
	if !br.store.UpdateFromMessage(msg) {
		br.logger.Debug("dropped stale sync message",
			zap.String("workshop_id", br.workshopID.String()),
			zap.String("type", string(msg.Type)))
	}
}

// Close unsubscribes from the channel and clears the registered publisher.
// Idempotent; must be called once per attach or a channel listener leaks.
func (br *Bridge) Close() {
	br.mu.Lock()
	if br.closed {
		br.mu.Unlock()
		return
	}
	br.closed = true
	cancel := br.cancel
	br.cancel = nil
	br.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if br.role == RoleAdmin {
		br.store.SetPublisher(nil)
	}
}

// Role returns the bridge's role.
func (br *Bridge) Role() Role { return br.role }
