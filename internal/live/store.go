package live

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// PublishFunc emits an outbound sync message on the workshop's channel.
type PublishFunc func(SyncMessage)

// Listener is notified synchronously after every store mutation with a copy of
// the new state (nil after Reset).
type Listener func(*WorkshopLiveState)

// Patch is a partial state update. Nil fields are left untouched.
type Patch struct {
	ActiveSlideIndex   *int
	Slides             []SlideDescriptor
	ActiveSessionID    *uuid.UUID
	ClearActiveSession bool
	Phase              *Phase
	RemainingSeconds   *int
	TotalSeconds       *int
	TimerRunning       *bool
	LastTickAt         *int64
	DisplayMode        *DisplayMode
	Alarm              *AlarmState
}

// Store is the single in-memory source of truth for one client runtime's view
// of a workshop's live state, plus the one registered outbound publisher.
// All mutations are synchronous and atomic relative to the triggering event.
type Store struct {
	mu        sync.Mutex
	state     *WorkshopLiveState
	publisher PublishFunc
	listeners map[int]Listener
	nextID    int
	clock     clockwork.Clock
}

// NewStore creates an empty store using the wall clock.
func NewStore() *Store {
	return NewStoreWithClock(clockwork.NewRealClock())
}

// NewStoreWithClock creates an empty store with an injected clock (tests).
func NewStoreWithClock(clock clockwork.Clock) *Store {
	return &Store{
		listeners: make(map[int]Listener),
		clock:     clock,
	}
}

// State returns a copy of the current state, or nil when unloaded.
func (s *Store) State() *WorkshopLiveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// SetState unconditionally replaces the state.
func (s *Store) SetState(next *WorkshopLiveState) {
	s.mu.Lock()
	s.state = next.Clone()
	snapshot, listeners := s.state.Clone(), s.snapshotListeners()
	s.mu.Unlock()
	notify(listeners, snapshot)
}

// PatchState merges the patch onto the current state and stamps UpdatedAt.
// A patch against unloaded state is a silent no-op: patches originate from
// optimistic local actions that may race with the initial load, and there is
// nothing to merge onto yet.
func (s *Store) PatchState(p Patch) {
	s.mu.Lock()
	if s.state == nil {
		s.mu.Unlock()
		return
	}
	applyPatch(s.state, p)
	s.state.UpdatedAt = s.clock.Now().UnixMilli()
	snapshot, listeners := s.state.Clone(), s.snapshotListeners()
	s.mu.Unlock()
	notify(listeners, snapshot)
}

// UpdateFromMessage replaces the state wholesale with the message payload,
// re-stamping UpdatedAt at time of receipt. A payload older than the held
// state (by UpdatedAt) is discarded: last-write-wins guards against transports
// that reorder concurrent pushes. Returns whether the payload was applied.
func (s *Store) UpdateFromMessage(msg SyncMessage) bool {
	if msg.Payload == nil {
		return false
	}
	s.mu.Lock()
	if s.state != nil && msg.Payload.UpdatedAt < s.state.UpdatedAt {
		s.mu.Unlock()
		return false
	}
	s.state = msg.Payload.Clone()
	s.state.UpdatedAt = s.clock.Now().UnixMilli()
	snapshot, listeners := s.state.Clone(), s.snapshotListeners()
	s.mu.Unlock()
	notify(listeners, snapshot)
	return true
}

// Reset clears the state to unloaded.
func (s *Store) Reset() {
	s.mu.Lock()
	s.state = nil
	listeners := s.snapshotListeners()
	s.mu.Unlock()
	notify(listeners, nil)
}

// SetPublisher registers (or clears, with nil) the outbound publisher. Only
// the admin-role bridge registers one; a store without a publisher cannot
// originate state changes beyond its own client.
func (s *Store) SetPublisher(fn PublishFunc) {
	s.mu.Lock()
	s.publisher = fn
	s.mu.Unlock()
}

// Publish emits the current state as a typed sync message through the
// registered publisher. No-op when no publisher or no state is present.
func (s *Store) Publish(t MessageType) {
	s.mu.Lock()
	fn, snapshot := s.publisher, s.state.Clone()
	s.mu.Unlock()
	if fn == nil || snapshot == nil {
		return
	}
	fn(SyncMessage{Type: t, Payload: snapshot})
}

// OnChange subscribes a listener to state mutations. The returned function
// unsubscribes it.
func (s *Store) OnChange(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l)
	}
	return out
}

func notify(listeners []Listener, state *WorkshopLiveState) {
	for _, l := range listeners {
		l(state)
	}
}

func applyPatch(s *WorkshopLiveState, p Patch) {
	if p.ActiveSlideIndex != nil {
		s.ActiveSlideIndex = *p.ActiveSlideIndex
	}
	if p.Slides != nil {
		s.Slides = make([]SlideDescriptor, len(p.Slides))
		copy(s.Slides, p.Slides)
	}
	if p.ClearActiveSession {
		s.ActiveSessionID = nil
	} else if p.ActiveSessionID != nil {
		id := *p.ActiveSessionID
		s.ActiveSessionID = &id
	}
	if p.Phase != nil {
		s.Phase = *p.Phase
	}
	if p.RemainingSeconds != nil {
		s.RemainingSeconds = *p.RemainingSeconds
	}
	if p.TotalSeconds != nil {
		s.TotalSeconds = *p.TotalSeconds
	}
	if p.TimerRunning != nil {
		s.TimerRunning = *p.TimerRunning
	}
	if p.LastTickAt != nil {
		s.LastTickAt = *p.LastTickAt
	}
	if p.DisplayMode != nil {
		s.DisplayMode = *p.DisplayMode
	}
	if p.Alarm != nil {
		s.Alarm = *p.Alarm
	}
}
