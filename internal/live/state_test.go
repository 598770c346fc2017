package live_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickstudio/backend/internal/live"
)

func TestStateValidate(t *testing.T) {
	valid := func() *live.WorkshopLiveState { return testState(uuid.New(), 1) }

	cases := []struct {
		name   string
		mutate func(*live.WorkshopLiveState)
	}{
		{"missing workshop id", func(s *live.WorkshopLiveState) { s.WorkshopID = uuid.Nil }},
		{"unknown phase", func(s *live.WorkshopLiveState) { s.Phase = "warp" }},
		{"unknown display mode", func(s *live.WorkshopLiveState) { s.DisplayMode = "cinema" }},
		{"negative total", func(s *live.WorkshopLiveState) { s.TotalSeconds = -1 }},
		{"slide index out of range", func(s *live.WorkshopLiveState) { s.ActiveSlideIndex = 99 }},
		{"negative slide index", func(s *live.WorkshopLiveState) { s.ActiveSlideIndex = -1 }},
		{"running without tick", func(s *live.WorkshopLiveState) { s.TimerRunning = true; s.LastTickAt = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := valid()
			require.NoError(t, s.Validate())
			tc.mutate(s)
			assert.ErrorIs(t, s.Validate(), live.ErrInvalidState)
		})
	}

	var nilState *live.WorkshopLiveState
	assert.ErrorIs(t, nilState.Validate(), live.ErrInvalidState)
}

func TestStateCloneIsDeep(t *testing.T) {
	id := uuid.New()
	sessionID := uuid.New()
	s := testState(id, 1)
	s.ActiveSessionID = &sessionID

	c := s.Clone()
	c.Slides[0].Title = "mutated"
	*c.ActiveSessionID = uuid.New()

	assert.Equal(t, "Who we are", s.Slides[0].Title)
	assert.Equal(t, sessionID, *s.ActiveSessionID)
}

func TestClampedRemaining(t *testing.T) {
	s := testState(uuid.New(), 1)
	s.TotalSeconds = 100

	s.RemainingSeconds = -5
	assert.Zero(t, s.ClampedRemaining())

	s.RemainingSeconds = 150
	assert.Equal(t, 100, s.ClampedRemaining())

	s.RemainingSeconds = 42
	assert.Equal(t, 42, s.ClampedRemaining())
}

func TestSyncMessageValidate(t *testing.T) {
	good := live.SyncMessage{Type: live.MessageStateSync, Payload: testState(uuid.New(), 1)}
	require.NoError(t, good.Validate())

	assert.Error(t, live.SyncMessage{Type: "GOSSIP", Payload: testState(uuid.New(), 1)}.Validate())
	assert.Error(t, live.SyncMessage{Type: live.MessageAlarm}.Validate())
}
