// Package live implements the workshop presentation sync core: the shared live
// state snapshot, the client-local store, the countdown derivation, and the
// bridge that binds a store to a workshop's broadcast channel.
//
// One admin-role writer per workshop owns the state; every other participant
// (presenter display, pincode viewers) only ever replaces its local copy with
// inbound snapshots. The protocol is snapshot-replacement, never field diffs:
// a stale snapshot is self-correcting once a newer one arrives, a lost diff
// would corrupt state permanently.
package live

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Phase is the timer's semantic state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseBuild      Phase = "build"
	PhaseDiscuss    Phase = "discuss"
	PhaseTransition Phase = "transition"
	PhasePause      Phase = "pause"
	PhaseComplete   Phase = "complete"
)

// DisplayMode controls presenter-side visual layout, orthogonal to Phase.
type DisplayMode string

const (
	DisplayStandard DisplayMode = "standard"
	DisplayFocus    DisplayMode = "focus"
	DisplayPause    DisplayMode = "pause"
)

// SlideKind identifies the slide template.
type SlideKind string

const (
	SlideIntroWho   SlideKind = "intro:who"
	SlideIntroLSP   SlideKind = "intro:lsp"
	SlideIntroHouse SlideKind = "intro:house"
	SlideSession    SlideKind = "session"
	SlidePause      SlideKind = "pause"
	SlideSummary    SlideKind = "summary"
)

// SlideDescriptor is one slide in the workshop deck. Immutable once generated
// for a live-state push; the admin side regenerates the deck when sessions
// change.
type SlideDescriptor struct {
	ID          string     `json:"id"`
	Kind        SlideKind  `json:"kind"`
	SessionID   *uuid.UUID `json:"session_id,omitempty"`
	Title       string     `json:"title"`
	Subtitle    string     `json:"subtitle,omitempty"`
	Description string     `json:"description,omitempty"`
}

// AlarmState signals an end-of-phase alarm condition.
type AlarmState struct {
	Active      bool  `json:"active"`
	Muted       bool  `json:"muted"`
	SnoozeUntil int64 `json:"snooze_until,omitempty"` // epoch ms; re-alerting suppressed until then
}

// WorkshopLiveState is the canonical snapshot of a workshop's presentation and
// timer status at an instant. It is a plain value contract: producers maintain
// the invariants, the type itself performs no validation on mutation. All
// timestamps are epoch milliseconds.
type WorkshopLiveState struct {
	WorkshopID       uuid.UUID         `json:"workshop_id"`
	ActiveSlideIndex int               `json:"active_slide_index"`
	Slides           []SlideDescriptor `json:"slides"`
	ActiveSessionID  *uuid.UUID        `json:"active_session_id,omitempty"`
	Phase            Phase             `json:"phase"`
	RemainingSeconds int               `json:"remaining_seconds"`
	TotalSeconds     int               `json:"total_seconds"`
	TimerRunning     bool              `json:"timer_running"`
	LastTickAt       int64             `json:"last_tick_at,omitempty"` // required whenever TimerRunning
	DisplayMode      DisplayMode       `json:"display_mode"`
	Alarm            AlarmState        `json:"alarm"`
	UpdatedAt        int64             `json:"updated_at"`
}

var validPhases = map[Phase]bool{
	PhaseIdle: true, PhaseBuild: true, PhaseDiscuss: true,
	PhaseTransition: true, PhasePause: true, PhaseComplete: true,
}

var validDisplayModes = map[DisplayMode]bool{
	DisplayStandard: true, DisplayFocus: true, DisplayPause: true,
}

// ErrInvalidState marks an inbound payload that fails the snapshot shape check.
var ErrInvalidState = errors.New("invalid live state")

// Clone returns a deep copy (the slide slice is copied, not shared).
func (s *WorkshopLiveState) Clone() *WorkshopLiveState {
	if s == nil {
		return nil
	}
	next := *s
	if s.Slides != nil {
		next.Slides = make([]SlideDescriptor, len(s.Slides))
		copy(next.Slides, s.Slides)
	}
	if s.ActiveSessionID != nil {
		id := *s.ActiveSessionID
		next.ActiveSessionID = &id
	}
	return &next
}

// ClampedRemaining returns RemainingSeconds clamped into [0, TotalSeconds].
// Clock skew between writer and reader can momentarily break the invariant;
// consumers must never display a negative value.
func (s *WorkshopLiveState) ClampedRemaining() int {
	if s.RemainingSeconds < 0 {
		return 0
	}
	if s.TotalSeconds >= 0 && s.RemainingSeconds > s.TotalSeconds {
		return s.TotalSeconds
	}
	return s.RemainingSeconds
}

// Validate checks the snapshot shape for inbound payloads. A malformed message
// must be rejected rather than merged so it cannot corrupt a client's state.
func (s *WorkshopLiveState) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil payload", ErrInvalidState)
	}
	if s.WorkshopID == uuid.Nil {
		return fmt.Errorf("%w: missing workshop id", ErrInvalidState)
	}
	if !validPhases[s.Phase] {
		return fmt.Errorf("%w: unknown phase %q", ErrInvalidState, s.Phase)
	}
	if !validDisplayModes[s.DisplayMode] {
		return fmt.Errorf("%w: unknown display mode %q", ErrInvalidState, s.DisplayMode)
	}
	if s.TotalSeconds < 0 {
		return fmt.Errorf("%w: negative total seconds", ErrInvalidState)
	}
	if len(s.Slides) > 0 && (s.ActiveSlideIndex < 0 || s.ActiveSlideIndex >= len(s.Slides)) {
		return fmt.Errorf("%w: slide index %d out of range", ErrInvalidState, s.ActiveSlideIndex)
	}
	if s.TimerRunning && s.LastTickAt == 0 {
		return fmt.Errorf("%w: running timer without last tick", ErrInvalidState)
	}
	return nil
}
