package live_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickstudio/backend/internal/live"
)

func testState(workshopID uuid.UUID, updatedAt int64) *live.WorkshopLiveState {
	return &live.WorkshopLiveState{
		WorkshopID: workshopID,
		Slides: []live.SlideDescriptor{
			{ID: "intro-who", Kind: live.SlideIntroWho, Title: "Who we are"},
			{ID: "summary", Kind: live.SlideSummary, Title: "Summary"},
		},
		Phase:       live.PhaseIdle,
		DisplayMode: live.DisplayStandard,
		UpdatedAt:   updatedAt,
	}
}

func TestStoreStateReturnsCopy(t *testing.T) {
	store := live.NewStore()
	id := uuid.New()
	store.SetState(testState(id, 1))

	first := store.State()
	first.Slides[0].Title = "mutated"
	first.Phase = live.PhaseBuild

	second := store.State()
	assert.Equal(t, "Who we are", second.Slides[0].Title)
	assert.Equal(t, live.PhaseIdle, second.Phase)
}

func TestStoreUpdateFromMessageIsIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := live.NewStoreWithClock(clock)
	id := uuid.New()
	msg := live.SyncMessage{Type: live.MessageStateSync, Payload: testState(id, clock.Now().UnixMilli())}

	require.True(t, store.UpdateFromMessage(msg))
	first := store.State()

	require.True(t, store.UpdateFromMessage(msg))
	second := store.State()
	assert.Equal(t, first, second)
}

func TestStoreDropsStalePayload(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := live.NewStoreWithClock(clock)
	id := uuid.New()

	fresh := testState(id, clock.Now().UnixMilli())
	fresh.Phase = live.PhaseBuild
	require.True(t, store.UpdateFromMessage(live.SyncMessage{Type: live.MessageStateSync, Payload: fresh}))

	clock.Advance(5 * time.Second)
	stale := testState(id, clock.Now().UnixMilli()-10_000)
	stale.Phase = live.PhaseDiscuss
	assert.False(t, store.UpdateFromMessage(live.SyncMessage{Type: live.MessageTimerUpdate, Payload: stale}))
	assert.Equal(t, live.PhaseBuild, store.State().Phase)
}

func TestStoreRestampsAppliedPayload(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := live.NewStoreWithClock(clock)
	id := uuid.New()

	sent := clock.Now().UnixMilli()
	clock.Advance(3 * time.Second)
	require.True(t, store.UpdateFromMessage(live.SyncMessage{Type: live.MessageStateSync, Payload: testState(id, sent)}))
	assert.Equal(t, clock.Now().UnixMilli(), store.State().UpdatedAt)
}

func TestStorePatchAgainstUnloadedStateIsNoop(t *testing.T) {
	store := live.NewStore()
	calls := 0
	unsub := store.OnChange(func(*live.WorkshopLiveState) { calls++ })
	defer unsub()

	index := 1
	store.PatchState(live.Patch{ActiveSlideIndex: &index})

	assert.Nil(t, store.State())
	assert.Zero(t, calls)
}

func TestStorePatchMergesAndStamps(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := live.NewStoreWithClock(clock)
	id := uuid.New()
	store.SetState(testState(id, 0))

	clock.Advance(time.Second)
	index := 1
	phase := live.PhaseBuild
	store.PatchState(live.Patch{ActiveSlideIndex: &index, Phase: &phase})

	got := store.State()
	assert.Equal(t, 1, got.ActiveSlideIndex)
	assert.Equal(t, live.PhaseBuild, got.Phase)
	assert.Equal(t, live.DisplayStandard, got.DisplayMode)
	assert.Equal(t, clock.Now().UnixMilli(), got.UpdatedAt)
}

func TestStoreReset(t *testing.T) {
	store := live.NewStore()
	store.SetState(testState(uuid.New(), 1))

	var gotNil bool
	unsub := store.OnChange(func(s *live.WorkshopLiveState) { gotNil = s == nil })
	defer unsub()

	store.Reset()
	assert.Nil(t, store.State())
	assert.True(t, gotNil)
}

func TestStorePublishRequiresPublisherAndState(t *testing.T) {
	store := live.NewStore()
	var published []live.SyncMessage

	// No publisher registered: local mutations stay local.
	store.SetState(testState(uuid.New(), 1))
	store.Publish(live.MessageStateSync)
	assert.Empty(t, published)

	store.SetPublisher(func(msg live.SyncMessage) { published = append(published, msg) })
	store.Publish(live.MessageSlideChange)
	require.Len(t, published, 1)
	assert.Equal(t, live.MessageSlideChange, published[0].Type)
	require.NotNil(t, published[0].Payload)

	// Clearing the publisher stops propagation again.
	store.SetPublisher(nil)
	store.Publish(live.MessageStateSync)
	assert.Len(t, published, 1)
}

func TestStoreUnsubscribeStopsNotifications(t *testing.T) {
	store := live.NewStore()
	calls := 0
	unsub := store.OnChange(func(*live.WorkshopLiveState) { calls++ })

	store.SetState(testState(uuid.New(), 1))
	require.Equal(t, 1, calls)

	unsub()
	store.SetState(testState(uuid.New(), 2))
	assert.Equal(t, 1, calls)
}
