package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandHello introduces the client with its desired display name.
	CommandHello CommandKind = iota
	// CommandSendMessage broadcasts a group chat message.
	CommandSendMessage
	// CommandSendPrivate delivers a message to a single recipient.
	CommandSendPrivate
	// CommandGroupDelivered acknowledges delivery of a group message.
	CommandGroupDelivered
	// CommandGroupRead acknowledges reading of a group message.
	CommandGroupRead
	// CommandPrivateDelivered acknowledges delivery of a private message.
	CommandPrivateDelivered
	// CommandPrivateRead acknowledges reading of a private message.
	CommandPrivateRead
	// CommandTypingStart signals the client began typing.
	CommandTypingStart
	// CommandTypingStop signals the client stopped typing.
	CommandTypingStop
)

// Command represents an action requested by a client. Fields are populated
// per kind: Username for hello, Text for sends, RecipientID for private
// sends and targeted typing, MessageID for acknowledgments.
type Command struct {
	Kind        CommandKind
	Username    string
	Text        string
	RecipientID string
	MessageID   string
}
