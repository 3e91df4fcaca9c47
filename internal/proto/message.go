package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for frames coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound frame types. Names match the original socket.io contract.
const (
	InboundTypeHello            = "hello"
	InboundTypeMessage          = "message"
	InboundTypePrivate          = "message:private"
	InboundTypeDelivered        = "message:delivered"
	InboundTypeRead             = "message:read"
	InboundTypePrivateDelivered = "message:private:delivered"
	InboundTypePrivateRead      = "message:private:read"
	InboundTypeTypingStart      = "typing:start"
	InboundTypeTypingStop       = "typing:stop"
)

// Outbound envelope types.
const (
	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Outbound event names.
const (
	EventNameConnected     = "user:connected"
	EventNameUserList      = "users:list"
	EventNameUserJoined    = "user:joined"
	EventNameUserLeft      = "user:left"
	EventNameStatusChanged = "user:status:changed"
	EventNameMessage       = "message"
	EventNamePrivate       = "message:private"
	EventNameStatusUpdated = "message:status:updated"
	EventNameTyping        = "user:typing"
	EventNameStoppedTyping = "user:stopped:typing"
)

// HelloData introduces the client with its desired display name.
type HelloData struct {
	Username string `json:"username"`
}

// MessageData is a group chat message from the client.
type MessageData struct {
	Text string `json:"text"`
}

// PrivateData is a one-to-one message from the client.
type PrivateData struct {
	RecipientID string `json:"recipientId"`
	Text        string `json:"text"`
}

// AckData acknowledges delivery or reading of a message.
type AckData struct {
	MessageID string `json:"messageId"`
}

// TypingData optionally narrows a typing indicator to one recipient.
type TypingData struct {
	RecipientID string `json:"recipientId,omitempty"`
}

// Outbound is the envelope for frames sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// User is a participant as rendered on the wire.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Status       string    `json:"status"`
	LastActivity int64     `json:"lastActivity"`
	ConnectedAt  time.Time `json:"connectedAt"`
}

// ConnectedData confirms a successful hello.
type ConnectedData struct {
	User User `json:"user"`
}

// UserListData delivers the current roster.
type UserListData struct {
	Users []User `json:"users"`
}

// PresenceData announces a join or leave together with the new headcount.
type PresenceData struct {
	User      User `json:"user"`
	UserCount int  `json:"userCount"`
}

// StatusChangedData announces an online/away flip.
type StatusChangedData struct {
	User      User   `json:"user"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
}

// MessageEvent is a group message as rendered on the wire.
type MessageEvent struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Text      string    `json:"text"`
	SenderID  string    `json:"senderId"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

// PrivateMessageEvent is a private message as rendered on the wire; both the
// recipient and the echoing sender receive it.
type PrivateMessageEvent struct {
	ID                string    `json:"id"`
	Seq               int64     `json:"seq"`
	Text              string    `json:"text"`
	SenderID          string    `json:"senderId"`
	SenderUsername    string    `json:"senderUsername"`
	RecipientID       string    `json:"recipientId"`
	RecipientUsername string    `json:"recipientUsername"`
	Timestamp         time.Time `json:"timestamp"`
	Status            string    `json:"status"`
}

// StatusUpdateData reports a delivery/read advance to the original sender.
// Counts are set for group messages, RecipientID for private ones.
type StatusUpdateData struct {
	MessageID   string     `json:"messageId"`
	Status      string     `json:"status"`
	Type        string     `json:"type"`
	DeliveredTo int        `json:"deliveredTo,omitempty"`
	ReadBy      int        `json:"readBy,omitempty"`
	RecipientID string     `json:"recipientId,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
}

// TypingEventData identifies who is typing and in which conversation:
// context is "group" or the typist's own id for private chats.
type TypingEventData struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Context  string `json:"context"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
