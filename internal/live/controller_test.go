package live_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickstudio/backend/internal/live"
)

type captureSink struct {
	mu   sync.Mutex
	msgs []live.SyncMessage
}

func (c *captureSink) publish(msg live.SyncMessage) {
	c.mu.Lock()
	c.msgs = append(c.msgs, msg)
	c.mu.Unlock()
}

func (c *captureSink) types() []live.MessageType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]live.MessageType, 0, len(c.msgs))
	for _, m := range c.msgs {
		out = append(out, m.Type)
	}
	return out
}

func newTestController(t *testing.T) (*live.Controller, *live.Store, *captureSink, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	store := live.NewStoreWithClock(clock)
	sink := &captureSink{}
	store.SetPublisher(sink.publish)

	sessionID := uuid.New()
	store.SetState(&live.WorkshopLiveState{
		WorkshopID: uuid.New(),
		Slides: []live.SlideDescriptor{
			{ID: "intro-who", Kind: live.SlideIntroWho, Title: "Who we are"},
			{ID: "session-1", Kind: live.SlideSession, SessionID: &sessionID, Title: "Build your team"},
			{ID: "summary", Kind: live.SlideSummary, Title: "Summary"},
		},
		Phase:       live.PhaseIdle,
		DisplayMode: live.DisplayStandard,
	})

	ctrl := live.NewController(store, clock, 100*time.Millisecond, nil)
	t.Cleanup(ctrl.Close)
	return ctrl, store, sink, clock
}

func TestControllerSlideNavigation(t *testing.T) {
	ctrl, store, sink, _ := newTestController(t)

	require.NoError(t, ctrl.NextSlide())
	state := store.State()
	assert.Equal(t, 1, state.ActiveSlideIndex)
	require.NotNil(t, state.ActiveSessionID)
	assert.Contains(t, sink.types(), live.MessageSlideChange)

	require.NoError(t, ctrl.PrevSlide())
	state = store.State()
	assert.Equal(t, 0, state.ActiveSlideIndex)
	assert.Nil(t, state.ActiveSessionID)
}

func TestControllerSlideNavigationStopsAtEnds(t *testing.T) {
	ctrl, store, _, _ := newTestController(t)

	require.NoError(t, ctrl.PrevSlide())
	assert.Equal(t, 0, store.State().ActiveSlideIndex)

	require.NoError(t, ctrl.GotoSlide(2))
	require.NoError(t, ctrl.NextSlide())
	assert.Equal(t, 2, store.State().ActiveSlideIndex)
}

func TestControllerGotoSlideOutOfRange(t *testing.T) {
	ctrl, _, _, _ := newTestController(t)
	assert.ErrorIs(t, ctrl.GotoSlide(99), live.ErrSlideOutOfRange)
	assert.ErrorIs(t, ctrl.GotoSlide(-1), live.ErrSlideOutOfRange)
}

func TestControllerTimerLifecycle(t *testing.T) {
	ctrl, store, sink, clock := newTestController(t)

	require.NoError(t, ctrl.StartTimer(live.PhaseBuild, 120))
	state := store.State()
	assert.Equal(t, live.PhaseBuild, state.Phase)
	assert.Equal(t, 120, state.TotalSeconds)
	assert.Equal(t, 120, state.RemainingSeconds)
	assert.True(t, state.TimerRunning)
	assert.Equal(t, clock.Now().UnixMilli(), state.LastTickAt)
	assert.Contains(t, sink.types(), live.MessageTimerUpdate)

	clock.Advance(30 * time.Second)
	require.NoError(t, ctrl.PauseTimer())
	state = store.State()
	assert.False(t, state.TimerRunning)
	assert.Equal(t, 90, state.RemainingSeconds)

	clock.Advance(10 * time.Minute)
	require.NoError(t, ctrl.ResumeTimer())
	state = store.State()
	assert.True(t, state.TimerRunning)
	assert.Equal(t, 90, state.RemainingSeconds)

	require.NoError(t, ctrl.StopTimer())
	state = store.State()
	assert.False(t, state.TimerRunning)
	assert.Zero(t, state.RemainingSeconds)
	assert.Equal(t, live.AlarmState{}, state.Alarm)
}

func TestControllerResumeWhileRunningIsNoop(t *testing.T) {
	ctrl, store, sink, _ := newTestController(t)

	require.NoError(t, ctrl.StartTimer(live.PhaseDiscuss, 60))
	before := len(sink.types())
	require.NoError(t, ctrl.ResumeTimer())
	assert.Len(t, sink.types(), before)
	assert.True(t, store.State().TimerRunning)
}

func TestControllerDisplayMode(t *testing.T) {
	ctrl, store, sink, _ := newTestController(t)

	require.NoError(t, ctrl.SetDisplayMode(live.DisplayFocus))
	assert.Equal(t, live.DisplayFocus, store.State().DisplayMode)
	assert.Contains(t, sink.types(), live.MessageFocusMode)
}

func TestControllerAlarmFiresAtZero(t *testing.T) {
	ctrl, store, sink, clock := newTestController(t)

	require.NoError(t, ctrl.StartTimer(live.PhaseBuild, 1))
	clock.BlockUntil(1)
	clock.Advance(2 * time.Second)

	require.Eventually(t, func() bool {
		state := store.State()
		return state.Alarm.Active && !state.TimerRunning
	}, time.Second, 5*time.Millisecond)

	state := store.State()
	assert.Zero(t, state.RemainingSeconds)
	assert.Contains(t, sink.types(), live.MessageAlarm)

	require.NoError(t, ctrl.MuteAlarm())
	assert.True(t, store.State().Alarm.Muted)
	assert.True(t, store.State().Alarm.Active)

	require.NoError(t, ctrl.DismissAlarm())
	assert.Equal(t, live.AlarmState{}, store.State().Alarm)
}

func TestControllerSnoozeSuppressesRealert(t *testing.T) {
	ctrl, store, _, clock := newTestController(t)

	require.NoError(t, ctrl.SnoozeAlarm(2*time.Minute))
	state := store.State()
	assert.False(t, state.Alarm.Active)
	assert.Equal(t, clock.Now().Add(2*time.Minute).UnixMilli(), state.Alarm.SnoozeUntil)
}

func TestControllerReloadSlidesClampsIndex(t *testing.T) {
	ctrl, store, sink, _ := newTestController(t)

	require.NoError(t, ctrl.GotoSlide(2))
	require.NoError(t, ctrl.ReloadSlides([]live.SlideDescriptor{
		{ID: "intro-who", Kind: live.SlideIntroWho, Title: "Who we are"},
		{ID: "summary", Kind: live.SlideSummary, Title: "Summary"},
	}))

	state := store.State()
	assert.Equal(t, 1, state.ActiveSlideIndex)
	assert.Len(t, state.Slides, 2)
	assert.Contains(t, sink.types(), live.MessageStateSync)
}

func TestControllerComplete(t *testing.T) {
	ctrl, store, _, _ := newTestController(t)

	require.NoError(t, ctrl.StartTimer(live.PhaseBuild, 600))
	require.NoError(t, ctrl.Complete())

	state := store.State()
	assert.Equal(t, live.PhaseComplete, state.Phase)
	assert.Equal(t, len(state.Slides)-1, state.ActiveSlideIndex)
	assert.False(t, state.TimerRunning)
	assert.Nil(t, state.ActiveSessionID)
}

func TestControllerRequiresState(t *testing.T) {
	store := live.NewStore()
	ctrl := live.NewController(store, clockwork.NewFakeClock(), time.Second, nil)
	defer ctrl.Close()

	assert.ErrorIs(t, ctrl.NextSlide(), live.ErrNoState)
	assert.ErrorIs(t, ctrl.StartTimer(live.PhaseBuild, 60), live.ErrNoState)
	assert.ErrorIs(t, ctrl.SetDisplayMode(live.DisplayFocus), live.ErrNoState)
}
