package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Ledger owns every message created during the process lifetime and advances
// their delivery/read status. History is in-memory only and unbounded; that
// is a known limitation accepted for a single-process chat.
type Ledger struct {
	mu      sync.Mutex
	group   map[string]*Message
	private map[string]*PrivateMessage
	seq     int64
	now     func() time.Time
}

// NewLedger builds an empty message ledger.
func NewLedger() *Ledger {
	return &Ledger{
		group:   make(map[string]*Message),
		private: make(map[string]*PrivateMessage),
		now:     time.Now,
	}
}

// nextSeq hands out a process-wide monotonic sequence used for display
// ordering. Ids themselves are UUIDs; wall-clock-derived ids collide under
// clock coarseness.
func (l *Ledger) nextSeq() int64 {
	l.seq++
	return l.seq
}

// CreateGroupMessage stores a new group message in sent status. Text is
// assumed pre-trimmed and non-empty; the router validates before calling.
func (l *Ledger) CreateGroupMessage(senderID, senderName, text string) Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	m := &Message{
		ID:          uuid.NewString(),
		Seq:         l.nextSeq(),
		SenderID:    senderID,
		SenderName:  senderName,
		Text:        text,
		CreatedAt:   l.now(),
		Status:      MessageSent,
		DeliveredTo: make(map[string]struct{}),
		ReadBy:      make(map[string]struct{}),
	}
	l.group[m.ID] = m
	return m.snapshot()
}

// CreatePrivateMessage stores a new one-to-one message in sent status.
func (l *Ledger) CreatePrivateMessage(senderID, senderName, recipientID, recipientName, text string) PrivateMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	m := &PrivateMessage{
		ID:            uuid.NewString(),
		Seq:           l.nextSeq(),
		SenderID:      senderID,
		SenderName:    senderName,
		RecipientID:   recipientID,
		RecipientName: recipientName,
		Text:          text,
		CreatedAt:     l.now(),
		Status:        MessageSent,
	}
	l.private[m.ID] = m
	return *m
}

// MarkGroupDelivered records a delivery ack from recipientID. Adding the
// same recipient twice is a no-op for the set and the count. The first ack
// advances status sent -> delivered. Unknown message ids report ok=false;
// acks for messages the ledger never saw are benign staleness, not errors.
func (l *Ledger) MarkGroupDelivered(msgID, recipientID string) (Message, int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.group[msgID]
	if !ok {
		return Message{}, 0, false
	}
	if _, seen := m.DeliveredTo[recipientID]; !seen {
		m.DeliveredTo[recipientID] = struct{}{}
		if m.Status == MessageSent {
			m.Status = MessageDelivered
			m.DeliveredAt = l.now()
		}
	}
	return m.snapshot(), len(m.DeliveredTo), true
}

// MarkGroupRead records a read ack from recipientID. Status jumps straight
// to read from any earlier state; a read implies delivery, so a delivery ack
// is not a prerequisite. Status never regresses.
func (l *Ledger) MarkGroupRead(msgID, recipientID string) (Message, int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.group[msgID]
	if !ok {
		return Message{}, 0, false
	}
	if _, seen := m.ReadBy[recipientID]; !seen {
		m.ReadBy[recipientID] = struct{}{}
		if m.Status != MessageRead {
			m.Status = MessageRead
			m.ReadAt = l.now()
		}
	}
	return m.snapshot(), len(m.ReadBy), true
}

// MarkPrivateDelivered sets delivered status and timestamp once. Calls after
// the first, or after the message was read, leave it unchanged.
func (l *Ledger) MarkPrivateDelivered(msgID string) (PrivateMessage, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.private[msgID]
	if !ok {
		return PrivateMessage{}, false
	}
	if m.Status == MessageSent {
		m.Status = MessageDelivered
		m.DeliveredAt = l.now()
	}
	return *m, true
}

// MarkPrivateRead sets read status and timestamp once. A reader that is not
// the stored recipient is treated the same as an unknown message id, so
// uninvolved parties learn nothing about the message.
func (l *Ledger) MarkPrivateRead(msgID, readerID string) (PrivateMessage, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.private[msgID]
	if !ok || m.RecipientID != readerID {
		return PrivateMessage{}, false
	}
	if m.Status != MessageRead {
		m.Status = MessageRead
		m.ReadAt = l.now()
	}
	return *m, true
}

// FindGroupMessage looks up a group message by id.
func (l *Ledger) FindGroupMessage(id string) (Message, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.group[id]
	if !ok {
		return Message{}, false
	}
	return m.snapshot(), true
}

// FindPrivateMessage looks up a private message by id.
func (l *Ledger) FindPrivateMessage(id string) (PrivateMessage, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.private[id]
	if !ok {
		return PrivateMessage{}, false
	}
	return *m, true
}
