package live

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/brickstudio/backend/internal/models"
)

// SessionSource supplies the workshop and its session plan when a room has to
// derive an idle snapshot from scratch.
type SessionSource interface {
	GetWorkshop(ctx context.Context, id uuid.UUID) (*models.Workshop, error)
	ListSessions(ctx context.Context, workshopID uuid.UUID) ([]models.WorkshopSession, error)
}

// SnapshotStore persists live snapshots so rooms rehydrate across restarts.
// Satisfied by SnapshotCache.
type SnapshotStore interface {
	Load(ctx context.Context, workshopID uuid.UUID) (*WorkshopLiveState, error)
	Save(ctx context.Context, state *WorkshopLiveState) error
	Delete(ctx context.Context, workshopID uuid.UUID) error
}

// Room is the server-side authority for one workshop: its store, the admin
// controller writing to it, and the bridge keeping it on the broadcast
// channel (so rooms on other instances converge too).
type Room struct {
	WorkshopID uuid.UUID
	Store      *Store
	Controller *Controller
	bridge     *Bridge
	unwatch    func()
}

// Manager lazily builds and caches rooms per workshop.
type Manager struct {
	mu          sync.Mutex
	rooms       map[uuid.UUID]*Room
	broadcaster Broadcaster
	snapshots   SnapshotStore
	source      SessionSource
	clock       clockwork.Clock
	cadence     time.Duration
	logger      *zap.Logger
}

// NewManager creates a room manager.
func NewManager(broadcaster Broadcaster, snapshots SnapshotStore, source SessionSource, clock clockwork.Clock, cadence time.Duration, logger *zap.Logger) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		rooms:       make(map[uuid.UUID]*Room),
		broadcaster: broadcaster,
		snapshots:   snapshots,
		source:      source,
		clock:       clock,
		cadence:     cadence,
		logger:      logger,
	}
}

// Room returns the room for a workshop, creating it on first use. The initial
// snapshot comes from the Redis cache; when none exists the room starts from
// an idle snapshot derived from the workshop's session plan.
func (m *Manager) Room(ctx context.Context, workshopID uuid.UUID) (*Room, error) {
	m.mu.Lock()
	if room, ok := m.rooms[workshopID]; ok {
		m.mu.Unlock()
		return room, nil
	}
	m.mu.Unlock()

	initial, err := m.initialState(ctx, workshopID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another caller may have won the race while we loaded
	if room, ok := m.rooms[workshopID]; ok {
		return room, nil
	}

	store := NewStoreWithClock(m.clock)
	room := &Room{WorkshopID: workshopID, Store: store}

	bridge, err := Attach(workshopID, initial, RoleAdmin, store, m.broadcaster, m.logger)
	if err != nil {
		// degraded: the room still works locally off the initial snapshot
		m.logger.Warn("live room running without channel subscription",
			zap.String("workshop_id", workshopID.String()), zap.Error(err))
	}
	room.bridge = bridge
	room.Controller = NewController(store, m.clock, m.cadence, m.logger)
	room.Controller.seedCountdown(store.State())

	if m.snapshots != nil {
		room.unwatch = store.OnChange(func(state *WorkshopLiveState) {
			if state == nil {
				return
			}
			saveCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := m.snapshots.Save(saveCtx, state); err != nil {
				m.logger.Warn("persist live snapshot", zap.Error(err))
			}
		})
	}

	m.rooms[workshopID] = room
	return room, nil
}

// Snapshot returns the current live state for a workshop, materializing the
// room if needed. This is the initial-snapshot loader for joining clients.
func (m *Manager) Snapshot(ctx context.Context, workshopID uuid.UUID) (*WorkshopLiveState, error) {
	room, err := m.Room(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	return room.Store.State(), nil
}

// ReloadSlides regenerates the deck from the session plan and pushes it to
// the room. Called after session CRUD.
func (m *Manager) ReloadSlides(ctx context.Context, workshopID uuid.UUID) error {
	room, err := m.Room(ctx, workshopID)
	if err != nil {
		return err
	}
	w, err := m.source.GetWorkshop(ctx, workshopID)
	if err != nil {
		return fmt.Errorf("load workshop: %w", err)
	}
	sessions, err := m.source.ListSessions(ctx, workshopID)
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}
	return room.Controller.ReloadSlides(BuildSlides(w, sessions))
}

// CloseRoom tears down a workshop's room and drops its cached snapshot.
func (m *Manager) CloseRoom(ctx context.Context, workshopID uuid.UUID) {
	m.mu.Lock()
	room, ok := m.rooms[workshopID]
	if ok {
		delete(m.rooms, workshopID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	room.close()
	if m.snapshots != nil {
		if err := m.snapshots.Delete(ctx, workshopID); err != nil {
			m.logger.Warn("drop live snapshot", zap.Error(err))
		}
	}
}

// Close tears down all rooms.
func (m *Manager) Close() {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for id, room := range m.rooms {
		rooms = append(rooms, room)
		delete(m.rooms, id)
	}
	m.mu.Unlock()
	for _, room := range rooms {
		room.close()
	}
}

func (m *Manager) initialState(ctx context.Context, workshopID uuid.UUID) (*WorkshopLiveState, error) {
	if m.snapshots != nil {
		cached, err := m.snapshots.Load(ctx, workshopID)
		if err != nil {
			m.logger.Warn("load cached snapshot", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}
	w, err := m.source.GetWorkshop(ctx, workshopID)
	if err != nil {
		return nil, fmt.Errorf("load workshop: %w", err)
	}
	sessions, err := m.source.ListSessions(ctx, workshopID)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	return IdleState(workshopID, BuildSlides(w, sessions), m.clock.Now().UnixMilli()), nil
}

func (r *Room) close() {
	if r.Controller != nil {
		r.Controller.Close()
	}
	if r.unwatch != nil {
		r.unwatch()
	}
	if r.bridge != nil {
		r.bridge.Close()
	}
}
