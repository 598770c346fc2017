package live

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/brickstudio/backend/internal/models"
)

// BuildSlides generates the presentation deck for a workshop day: the intro
// trio, one slide per session (pauses included), and a closing summary. The
// deck is regenerated whenever sessions are added, removed, or reordered;
// slide IDs are stable across regenerations so clients can correlate.
func BuildSlides(w *models.Workshop, sessions []models.WorkshopSession) []SlideDescriptor {
	slides := []SlideDescriptor{
		{
			ID:       "intro-who",
			Kind:     SlideIntroWho,
			Title:    "Who we are",
			Subtitle: w.Title,
		},
		{
			ID:       "intro-lsp",
			Kind:     SlideIntroLSP,
			Title:    "LEGO Serious Play",
			Subtitle: "Think with your hands",
		},
		{
			ID:    "intro-house",
			Kind:  SlideIntroHouse,
			Title: "Warm-up: build a house",
		},
	}

	for _, sess := range sessions {
		sessID := sess.ID
		switch sess.Kind {
		case models.SessionKindPause:
			slides = append(slides, SlideDescriptor{
				ID:        fmt.Sprintf("pause-%s", sess.ID),
				Kind:      SlidePause,
				SessionID: &sessID,
				Title:     sess.Title,
			})
		default:
			slides = append(slides, SlideDescriptor{
				ID:          fmt.Sprintf("session-%s", sess.ID),
				Kind:        SlideSession,
				SessionID:   &sessID,
				Title:       sess.Title,
				Subtitle:    fmt.Sprintf("%d min build / %d min discuss", sess.BuildMinutes, sess.DiscussMinutes),
				Description: sess.Description,
			})
		}
	}

	slides = append(slides, SlideDescriptor{
		ID:       "summary",
		Kind:     SlideSummary,
		Title:    "What we built today",
		Subtitle: w.ClientName,
	})
	return slides
}

// IdleState derives the fallback snapshot for a workshop with no prior live
// state: first slide, idle phase, timer stopped.
func IdleState(workshopID uuid.UUID, slides []SlideDescriptor, nowMillis int64) *WorkshopLiveState {
	return &WorkshopLiveState{
		WorkshopID:       workshopID,
		ActiveSlideIndex: 0,
		Slides:           slides,
		Phase:            PhaseIdle,
		DisplayMode:      DisplayStandard,
		UpdatedAt:        nowMillis,
	}
}
