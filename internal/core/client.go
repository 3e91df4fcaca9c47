package core

// Client is a connected transport session as seen by the core layer. Name
// stays empty until a hello succeeds.
type Client struct {
	ID       string
	Name     string
	Commands chan *Command
	Events   chan *Event
}

// NewClient constructs a client with initialized channels. The id is the
// opaque connection identifier assigned by the transport.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 16),
	}
}
