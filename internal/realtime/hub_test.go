package realtime

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brickstudio/backend/internal/live"
)

type stubBroadcaster struct {
	mu       sync.Mutex
	handlers map[uuid.UUID]func(live.SyncMessage)
	subs     int
	cancels  int
}

func newStubBroadcaster() *stubBroadcaster {
	return &stubBroadcaster{handlers: make(map[uuid.UUID]func(live.SyncMessage))}
}

func (b *stubBroadcaster) Subscribe(workshopID uuid.UUID, onMessage func(live.SyncMessage)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs++
	b.handlers[workshopID] = onMessage
	return func() {
		b.mu.Lock()
		b.cancels++
		delete(b.handlers, workshopID)
		b.mu.Unlock()
	}, nil
}

func (b *stubBroadcaster) Publish(workshopID uuid.UUID, msg live.SyncMessage) error {
	b.mu.Lock()
	fn := b.handlers[workshopID]
	b.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
	return nil
}

func newHubClient(workshopID uuid.UUID, role live.Role) *Client {
	return &Client{
		ID:         uuid.New().String(),
		WorkshopID: workshopID,
		Role:       role,
		send:       make(chan live.SyncMessage, 4),
	}
}

func TestHubSubscriptionLifecycle(t *testing.T) {
	broker := newStubBroadcaster()
	hub := NewHub(broker, zap.NewNop())
	workshopID := uuid.New()

	a := newHubClient(workshopID, live.RoleAdmin)
	b := newHubClient(workshopID, live.RoleViewer)

	hub.Register(a)
	assert.Equal(t, 1, broker.subs)
	hub.Register(b)
	// one upstream subscription per workshop, not per client
	assert.Equal(t, 1, broker.subs)
	assert.Equal(t, 2, hub.AudienceCount(workshopID))

	hub.Unregister(a)
	assert.Zero(t, broker.cancels)
	hub.Unregister(b)
	assert.Equal(t, 1, broker.cancels)
	assert.Zero(t, hub.AudienceCount(workshopID))
}

func TestHubFansOutToWorkshopClients(t *testing.T) {
	broker := newStubBroadcaster()
	hub := NewHub(broker, zap.NewNop())
	workshopID := uuid.New()
	otherID := uuid.New()

	a := newHubClient(workshopID, live.RoleViewer)
	other := newHubClient(otherID, live.RoleViewer)
	hub.Register(a)
	hub.Register(other)

	msg := live.SyncMessage{
		Type:    live.MessageStateSync,
		Payload: &live.WorkshopLiveState{WorkshopID: workshopID, Phase: live.PhaseIdle, DisplayMode: live.DisplayStandard},
	}
	require.NoError(t, broker.Publish(workshopID, msg))

	select {
	case got := <-a.send:
		assert.Equal(t, live.MessageStateSync, got.Type)
	default:
		t.Fatal("expected fan-out to workshop client")
	}
	select {
	case <-other.send:
		t.Fatal("message leaked into another workshop's room")
	default:
	}
}

func TestHubDropsWhenClientBufferFull(t *testing.T) {
	broker := newStubBroadcaster()
	hub := NewHub(broker, zap.NewNop())
	workshopID := uuid.New()

	c := newHubClient(workshopID, live.RoleViewer)
	hub.Register(c)

	msg := live.SyncMessage{Type: live.MessageTimerUpdate, Payload: &live.WorkshopLiveState{WorkshopID: workshopID}}
	for i := 0; i < cap(c.send)+3; i++ {
		require.NoError(t, broker.Publish(workshopID, msg))
	}
	// slow client loses messages instead of blocking the fan-out
	assert.Len(t, c.send, cap(c.send))
}
