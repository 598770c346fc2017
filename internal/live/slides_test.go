package live_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickstudio/backend/internal/live"
	"github.com/brickstudio/backend/internal/models"
)

func TestBuildSlides(t *testing.T) {
	w := &models.Workshop{
		ID:         uuid.New(),
		Title:      "Team Vision 2026",
		ClientName: "Acme GmbH",
	}
	sessions := []models.WorkshopSession{
		{ID: uuid.New(), WorkshopID: w.ID, Kind: models.SessionKindExercise, Title: "Build your dream team", BuildMinutes: 10, DiscussMinutes: 5},
		{ID: uuid.New(), WorkshopID: w.ID, Kind: models.SessionKindPause, Title: "Coffee break"},
		{ID: uuid.New(), WorkshopID: w.ID, Kind: models.SessionKindExercise, Title: "Shared vision", BuildMinutes: 15, DiscussMinutes: 10},
	}

	slides := live.BuildSlides(w, sessions)
	require.Len(t, slides, 7)

	assert.Equal(t, live.SlideIntroWho, slides[0].Kind)
	assert.Equal(t, live.SlideIntroLSP, slides[1].Kind)
	assert.Equal(t, live.SlideIntroHouse, slides[2].Kind)

	assert.Equal(t, live.SlideSession, slides[3].Kind)
	require.NotNil(t, slides[3].SessionID)
	assert.Equal(t, sessions[0].ID, *slides[3].SessionID)
	assert.Equal(t, "10 min build / 5 min discuss", slides[3].Subtitle)

	assert.Equal(t, live.SlidePause, slides[4].Kind)
	assert.Equal(t, "Coffee break", slides[4].Title)

	assert.Equal(t, live.SlideSummary, slides[6].Kind)
	assert.Equal(t, "Acme GmbH", slides[6].Subtitle)
}

func TestBuildSlidesStableIDs(t *testing.T) {
	w := &models.Workshop{ID: uuid.New(), Title: "x"}
	sessions := []models.WorkshopSession{
		{ID: uuid.New(), Kind: models.SessionKindExercise, Title: "a"},
	}

	first := live.BuildSlides(w, sessions)
	second := live.BuildSlides(w, sessions)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestIdleStateIsValid(t *testing.T) {
	w := &models.Workshop{ID: uuid.New(), Title: "x"}
	slides := live.BuildSlides(w, nil)
	state := live.IdleState(w.ID, slides, 42)

	require.NoError(t, state.Validate())
	assert.Equal(t, live.PhaseIdle, state.Phase)
	assert.Equal(t, live.DisplayStandard, state.DisplayMode)
	assert.Zero(t, state.ActiveSlideIndex)
	assert.False(t, state.TimerRunning)
	assert.EqualValues(t, 42, state.UpdatedAt)
}
