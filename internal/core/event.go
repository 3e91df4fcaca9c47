package core

import "time"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventConnected confirms a successful hello to the new participant.
	EventConnected EventKind = iota
	// EventUserList delivers the current participant roster to one client.
	EventUserList
	// EventUserJoined notifies remaining clients about a new participant.
	EventUserJoined
	// EventUserLeft notifies remaining clients about a departed participant.
	EventUserLeft
	// EventStatusChanged notifies clients about an online/away flip.
	EventStatusChanged
	// EventGroupMessage carries a group chat message.
	EventGroupMessage
	// EventPrivateMessage carries a one-to-one message.
	EventPrivateMessage
	// EventMessageStatus reports a delivery/read advance to the sender.
	EventMessageStatus
	// EventTyping signals a participant started typing.
	EventTyping
	// EventTypingStopped signals a participant stopped typing.
	EventTypingStopped
	// EventError notifies a single client about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system. All
// payloads are value snapshots; events cross goroutine boundaries.
type Event struct {
	Kind EventKind

	User      Participant
	Users     []Participant
	UserCount int

	OldStatus ParticipantStatus
	NewStatus ParticipantStatus

	Message Message
	Private PrivateMessage
	Status  *StatusUpdate

	// TypingContext is TypingTargetGroup for room-wide indicators or the
	// typing participant's own id for private ones.
	TypingContext string

	Error *CoreError
	// Close asks the transport to drop the connection after writing the
	// event; set for failed hellos.
	Close bool
}

// StatusUpdate describes a delivery/read advance reported to the original
// sender of a message.
type StatusUpdate struct {
	MessageID      string
	Status         MessageStatus
	Kind           MessageKind
	DeliveredCount int
	ReadCount      int
	RecipientID    string
	DeliveredAt    time.Time
	ReadAt         time.Time
}
