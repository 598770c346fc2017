package live

// MessageType tags a sync message for observability and routing filters. All
// types carry a full snapshot and receivers treat them identically; the tag is
// never used for differential application.
type MessageType string

const (
	MessageStateSync    MessageType = "STATE_SYNC"
	MessageSlideChange  MessageType = "SLIDE_CHANGE"
	MessageTimerUpdate  MessageType = "TIMER_UPDATE"
	MessageTimerControl MessageType = "TIMER_CONTROL"
	MessageAlarm        MessageType = "ALARM"
	MessageFocusMode    MessageType = "FOCUS_MODE"
)

// SyncMessage is the wire envelope carried on a workshop's broadcast channel.
// Payload is always the complete WorkshopLiveState; there is no delta format.
type SyncMessage struct {
	Type    MessageType        `json:"type"`
	Payload *WorkshopLiveState `json:"payload"`
}

var validMessageTypes = map[MessageType]bool{
	MessageStateSync: true, MessageSlideChange: true, MessageTimerUpdate: true,
	MessageTimerControl: true, MessageAlarm: true, MessageFocusMode: true,
}

// Validate rejects envelopes with an unknown type or a malformed payload.
func (m SyncMessage) Validate() error {
	if !validMessageTypes[m.Type] {
		return ErrInvalidState
	}
	return m.Payload.Validate()
}
