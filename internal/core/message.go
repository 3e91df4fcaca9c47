package core

import "time"

// MessageStatus tracks how far a message has progressed toward being read.
// Transitions are monotonic: sent -> delivered -> read, never backwards.
type MessageStatus string

const (
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageRead      MessageStatus = "read"
)

// MessageKind distinguishes group broadcast from one-to-one messages in
// status updates.
type MessageKind string

const (
	KindPublic  MessageKind = "public"
	KindPrivate MessageKind = "private"
)

// Message is a group broadcast message. Status aggregates across all
// recipients: the first delivery ack advances it to delivered, the first
// read ack to read. DeliveredTo and ReadBy only grow; a recipient that
// disconnects stays counted.
type Message struct {
	ID          string
	Seq         int64
	SenderID    string
	SenderName  string
	Text        string
	CreatedAt   time.Time
	Status      MessageStatus
	DeliveredTo map[string]struct{}
	ReadBy      map[string]struct{}
	DeliveredAt time.Time
	ReadAt      time.Time
}

// snapshot returns a value copy without the ack sets, safe to hand to
// other goroutines.
func (m *Message) snapshot() Message {
	c := *m
	c.DeliveredTo = nil
	c.ReadBy = nil
	return c
}

// PrivateMessage is addressed to exactly one recipient, so its status needs
// no aggregation. DeliveredAt and ReadAt are set once and never overwritten.
type PrivateMessage struct {
	ID            string
	Seq           int64
	SenderID      string
	SenderName    string
	RecipientID   string
	RecipientName string
	Text          string
	CreatedAt     time.Time
	Status        MessageStatus
	DeliveredAt   time.Time
	ReadAt        time.Time
}
