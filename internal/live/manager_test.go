package live_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickstudio/backend/internal/live"
	"github.com/brickstudio/backend/internal/models"
)

type fakeSource struct {
	workshop *models.Workshop
	sessions []models.WorkshopSession
}

func (f *fakeSource) GetWorkshop(ctx context.Context, id uuid.UUID) (*models.Workshop, error) {
	return f.workshop, nil
}

func (f *fakeSource) ListSessions(ctx context.Context, workshopID uuid.UUID) ([]models.WorkshopSession, error) {
	return f.sessions, nil
}

func newTestManager(t *testing.T) (*live.Manager, *fakeSource, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	source := &fakeSource{
		workshop: &models.Workshop{ID: id, Title: "Team Day", ClientName: "Acme"},
		sessions: []models.WorkshopSession{
			{ID: uuid.New(), WorkshopID: id, Kind: models.SessionKindExercise, Title: "Warm up"},
		},
	}
	m := live.NewManager(newMemoryBroadcaster(), nil, source, clockwork.NewFakeClock(), time.Second, nil)
	t.Cleanup(m.Close)
	return m, source, id
}

func TestManagerRoomStartsIdle(t *testing.T) {
	m, _, id := newTestManager(t)

	room, err := m.Room(context.Background(), id)
	require.NoError(t, err)

	state := room.Store.State()
	require.NotNil(t, state)
	assert.Equal(t, id, state.WorkshopID)
	assert.Equal(t, live.PhaseIdle, state.Phase)
	// intro trio + one session + summary
	assert.Len(t, state.Slides, 5)
	require.NoError(t, state.Validate())
}

func TestManagerRoomIsCached(t *testing.T) {
	m, _, id := newTestManager(t)

	first, err := m.Room(context.Background(), id)
	require.NoError(t, err)
	second, err := m.Room(context.Background(), id)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestManagerReloadSlides(t *testing.T) {
	m, source, id := newTestManager(t)

	room, err := m.Room(context.Background(), id)
	require.NoError(t, err)
	require.NoError(t, room.Controller.GotoSlide(4))

	source.sessions = nil
	require.NoError(t, m.ReloadSlides(context.Background(), id))

	state := room.Store.State()
	assert.Len(t, state.Slides, 4)
	assert.Equal(t, 3, state.ActiveSlideIndex)
}

type memorySnapshots struct {
	mu     sync.Mutex
	states map[uuid.UUID]*live.WorkshopLiveState
}

func (m *memorySnapshots) Load(ctx context.Context, workshopID uuid.UUID) (*live.WorkshopLiveState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[workshopID].Clone(), nil
}

func (m *memorySnapshots) Save(ctx context.Context, state *live.WorkshopLiveState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.WorkshopID] = state.Clone()
	return nil
}

func (m *memorySnapshots) Delete(ctx context.Context, workshopID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, workshopID)
	return nil
}

func runningSnapshot(id uuid.UUID, clock clockwork.Clock, remaining int) *live.WorkshopLiveState {
	now := clock.Now().UnixMilli()
	return &live.WorkshopLiveState{
		WorkshopID: id,
		Slides: []live.SlideDescriptor{
			{ID: "session-1", Kind: live.SlideSession, Title: "Warm up"},
		},
		Phase:            live.PhaseBuild,
		TotalSeconds:     120,
		RemainingSeconds: remaining,
		TimerRunning:     true,
		LastTickAt:       now,
		DisplayMode:      live.DisplayStandard,
		UpdatedAt:        now,
	}
}

func newRehydratedManager(t *testing.T, clock *clockwork.FakeClock, id uuid.UUID, remaining int) *live.Manager {
	t.Helper()
	snaps := &memorySnapshots{states: map[uuid.UUID]*live.WorkshopLiveState{
		id: runningSnapshot(id, clock, remaining),
	}}
	source := &fakeSource{workshop: &models.Workshop{ID: id, Title: "Team Day", ClientName: "Acme"}}
	m := live.NewManager(newMemoryBroadcaster(), snaps, source, clock, 100*time.Millisecond, nil)
	t.Cleanup(m.Close)
	return m
}

func TestManagerRehydratedRoomKeepsRunningTimer(t *testing.T) {
	id := uuid.New()
	clock := clockwork.NewFakeClock()
	m := newRehydratedManager(t, clock, id, 90)

	// server was down for ten seconds mid-phase
	clock.Advance(10 * time.Second)
	room, err := m.Room(context.Background(), id)
	require.NoError(t, err)

	require.NoError(t, room.Controller.PauseTimer())
	state := room.Store.State()
	assert.Equal(t, 80, state.RemainingSeconds)
	assert.False(t, state.TimerRunning)
}

func TestManagerRehydratedRoomAlarmStillFires(t *testing.T) {
	id := uuid.New()
	clock := clockwork.NewFakeClock()
	m := newRehydratedManager(t, clock, id, 2)

	room, err := m.Room(context.Background(), id)
	require.NoError(t, err)

	clock.BlockUntil(1)
	clock.Advance(3 * time.Second)
	require.Eventually(t, func() bool {
		return room.Store.State().Alarm.Active
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, room.Store.State().RemainingSeconds)
	assert.False(t, room.Store.State().TimerRunning)
}

func TestManagerCloseRoomDropsState(t *testing.T) {
	m, _, id := newTestManager(t)

	first, err := m.Room(context.Background(), id)
	require.NoError(t, err)
	m.CloseRoom(context.Background(), id)

	second, err := m.Room(context.Background(), id)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, live.PhaseIdle, second.Store.State().Phase)
}
