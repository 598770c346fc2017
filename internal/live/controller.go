package live

import (
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var (
	// ErrNoState is returned by control actions when no live state is loaded.
	ErrNoState = errors.New("no live state loaded")
	// ErrSlideOutOfRange is returned when a slide index is outside the deck.
	ErrSlideOutOfRange = errors.New("slide index out of range")
)

// Controller is the admin-side write authority for one workshop's live state.
// Every action mutates the store and publishes the matching typed message;
// viewers only ever see the resulting snapshots. The controller also runs a
// server-side countdown so the end-of-phase alarm fires even when no admin
// client is watching the clock.
type Controller struct {
	store     *Store
	clock     clockwork.Clock
	countdown *Countdown
	logger    *zap.Logger
}

// NewController creates a controller around a store. The countdown cadence
// bounds how often the server checks for expiry.
func NewController(store *Store, clock clockwork.Clock, cadence time.Duration, logger *zap.Logger) *Controller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{store: store, clock: clock, logger: logger}
	c.countdown = NewCountdown(clock, cadence, c.onTick)
	return c
}

// seedCountdown primes the countdown from a rehydrated snapshot so pause
// reads and the end-of-phase alarm keep working after a restart mid-phase.
func (c *Controller) seedCountdown(state *WorkshopLiveState) {
	if state == nil {
		return
	}
	c.countdown.Set(state.ClampedRemaining(), state.TimerRunning, state.LastTickAt)
}

// GotoSlide moves to the given slide and focuses its session, if any.
func (c *Controller) GotoSlide(index int) error {
	state := c.store.State()
	if state == nil {
		return ErrNoState
	}
	if index < 0 || index >= len(state.Slides) {
		return ErrSlideOutOfRange
	}
	slide := state.Slides[index]
	patch := Patch{ActiveSlideIndex: &index}
	if slide.SessionID != nil {
		patch.ActiveSessionID = slide.SessionID
	} else {
		patch.ClearActiveSession = true
	}
	c.store.PatchState(patch)
	c.store.Publish(MessageSlideChange)
	return nil
}

// NextSlide advances one slide; at the end of the deck it is a no-op.
func (c *Controller) NextSlide() error {
	state := c.store.State()
	if state == nil {
		return ErrNoState
	}
	if state.ActiveSlideIndex+1 >= len(state.Slides) {
		return nil
	}
	return c.GotoSlide(state.ActiveSlideIndex + 1)
}

// PrevSlide goes back one slide; at the start of the deck it is a no-op.
func (c *Controller) PrevSlide() error {
	state := c.store.State()
	if state == nil {
		return ErrNoState
	}
	if state.ActiveSlideIndex == 0 {
		return nil
	}
	return c.GotoSlide(state.ActiveSlideIndex - 1)
}

// StartTimer starts a fresh countdown for the given phase.
func (c *Controller) StartTimer(phase Phase, totalSeconds int) error {
	if c.store.State() == nil {
		return ErrNoState
	}
	now := c.clock.Now().UnixMilli()
	running := true
	c.store.PatchState(Patch{
		Phase:            &phase,
		TotalSeconds:     &totalSeconds,
		RemainingSeconds: &totalSeconds,
		TimerRunning:     &running,
		LastTickAt:       &now,
		Alarm:            &AlarmState{},
	})
	c.countdown.Set(totalSeconds, true, now)
	c.store.Publish(MessageTimerUpdate)
	return nil
}

// PauseTimer freezes the countdown at its current value.
func (c *Controller) PauseTimer() error {
	state := c.store.State()
	if state == nil {
		return ErrNoState
	}
	remaining := c.countdown.Remaining()
	now := c.clock.Now().UnixMilli()
	running := false
	c.store.PatchState(Patch{
		RemainingSeconds: &remaining,
		TimerRunning:     &running,
		LastTickAt:       &now,
	})
	c.countdown.Set(remaining, false, 0)
	c.store.Publish(MessageTimerControl)
	return nil
}

// ResumeTimer restarts a paused countdown from its frozen value.
func (c *Controller) ResumeTimer() error {
	state := c.store.State()
	if state == nil {
		return ErrNoState
	}
	if state.TimerRunning {
		return nil
	}
	now := c.clock.Now().UnixMilli()
	running := true
	c.store.PatchState(Patch{
		TimerRunning: &running,
		LastTickAt:   &now,
	})
	c.countdown.Set(state.ClampedRemaining(), true, now)
	c.store.Publish(MessageTimerControl)
	return nil
}

// StopTimer ends the countdown and clears any alarm.
func (c *Controller) StopTimer() error {
	if c.store.State() == nil {
		return ErrNoState
	}
	zero := 0
	running := false
	c.store.PatchState(Patch{
		RemainingSeconds: &zero,
		TimerRunning:     &running,
		Alarm:            &AlarmState{},
	})
	c.countdown.Stop()
	c.store.Publish(MessageTimerControl)
	return nil
}

// SetDisplayMode switches the presenter layout.
func (c *Controller) SetDisplayMode(mode DisplayMode) error {
	if c.store.State() == nil {
		return ErrNoState
	}
	c.store.PatchState(Patch{DisplayMode: &mode})
	c.store.Publish(MessageFocusMode)
	return nil
}

// MuteAlarm silences the active alarm without clearing it.
func (c *Controller) MuteAlarm() error {
	state := c.store.State()
	if state == nil {
		return ErrNoState
	}
	alarm := state.Alarm
	alarm.Muted = true
	c.store.PatchState(Patch{Alarm: &alarm})
	c.store.Publish(MessageAlarm)
	return nil
}

// SnoozeAlarm clears the alarm and suppresses re-alerting for the duration.
func (c *Controller) SnoozeAlarm(d time.Duration) error {
	state := c.store.State()
	if state == nil {
		return ErrNoState
	}
	alarm := state.Alarm
	alarm.Active = false
	alarm.SnoozeUntil = c.clock.Now().Add(d).UnixMilli()
	c.store.PatchState(Patch{Alarm: &alarm})
	c.store.Publish(MessageAlarm)
	return nil
}

// DismissAlarm clears the alarm entirely.
func (c *Controller) DismissAlarm() error {
	if c.store.State() == nil {
		return ErrNoState
	}
	c.store.PatchState(Patch{Alarm: &AlarmState{}})
	c.store.Publish(MessageAlarm)
	return nil
}

// ReloadSlides swaps in a regenerated deck (sessions were added, removed, or
// reordered) and clamps the active index into the new deck.
func (c *Controller) ReloadSlides(slides []SlideDescriptor) error {
	state := c.store.State()
	if state == nil {
		return ErrNoState
	}
	index := state.ActiveSlideIndex
	if index >= len(slides) {
		index = len(slides) - 1
	}
	if index < 0 {
		index = 0
	}
	c.store.PatchState(Patch{Slides: slides, ActiveSlideIndex: &index})
	c.store.Publish(MessageStateSync)
	return nil
}

// Complete marks the workshop done: summary slide, timer stopped.
func (c *Controller) Complete() error {
	state := c.store.State()
	if state == nil {
		return ErrNoState
	}
	phase := PhaseComplete
	zero := 0
	running := false
	last := len(state.Slides) - 1
	patch := Patch{
		Phase:              &phase,
		RemainingSeconds:   &zero,
		TimerRunning:       &running,
		Alarm:              &AlarmState{},
		ClearActiveSession: true,
	}
	if last >= 0 {
		patch.ActiveSlideIndex = &last
	}
	c.store.PatchState(patch)
	c.countdown.Stop()
	c.store.Publish(MessageStateSync)
	return nil
}

// Close tears down the server-side countdown.
func (c *Controller) Close() {
	c.countdown.Stop()
}

// onTick fires from the countdown loop; at zero it raises the end-of-phase
// alarm unless a snooze window is still open.
func (c *Controller) onTick(remaining int) {
	if remaining > 0 {
		return
	}
	state := c.store.State()
	if state == nil || !state.TimerRunning {
		return
	}
	alarm := state.Alarm
	if alarm.SnoozeUntil > 0 && c.clock.Now().UnixMilli() < alarm.SnoozeUntil {
		return
	}
	alarm.Active = true
	alarm.SnoozeUntil = 0
	zero := 0
	running := false
	c.store.PatchState(Patch{
		RemainingSeconds: &zero,
		TimerRunning:     &running,
		Alarm:            &alarm,
	})
	c.store.Publish(MessageAlarm)
	c.logger.Debug("phase timer expired", zap.String("workshop_id", state.WorkshopID.String()))
}
