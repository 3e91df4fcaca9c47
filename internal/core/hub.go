package core

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	minUsernameLen = 2
	maxUsernameLen = 20
)

// clientCommand pairs a command with the client that issued it.
type clientCommand struct {
	client *Client
	cmd    *Command
}

// typingExpiry is an internal re-entry from a fired typing timer.
type typingExpiry struct {
	clientID string
	gen      uint64
}

// Hub is the event router. It owns the participant registry and the message
// ledger for the life of the process and is the only component that mutates
// them. All inbound commands, timer expiries and the periodic away sweep are
// serialized through the Run loop, so every state transition runs to
// completion before the next one starts.
type Hub struct {
	registry *Registry
	ledger   *Ledger

	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
	expiries   chan typingExpiry
	done       chan struct{}

	sweepInterval time.Duration
	clients       map[string]*Client // hub goroutine only
	log           *zerolog.Logger
}

// NewHub constructs the router around its two owned stores.
func NewHub(registry *Registry, ledger *Ledger, sweepInterval time.Duration, logger *zerolog.Logger) *Hub {
	return &Hub{
		registry:      registry,
		ledger:        ledger,
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		commands:      make(chan clientCommand, 64),
		expiries:      make(chan typingExpiry, 64),
		done:          make(chan struct{}),
		sweepInterval: sweepInterval,
		clients:       make(map[string]*Client),
		log:           logger,
	}
}

// RegisterClient attaches a transport session and starts forwarding its
// commands into the hub loop.
func (h *Hub) RegisterClient(c *Client) {
	go h.pump(c)
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient detaches a session; the hub handles the disconnect
// semantics (name release, timer cancellation, user:left broadcast).
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Connections reports the number of admitted participants; used by the
// health probe.
func (h *Hub) Connections() int {
	return h.registry.Count()
}

// pump forwards one client's commands into the shared loop.
func (h *Hub) pump(c *Client) {
	for {
		select {
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			select {
			case h.commands <- clientCommand{client: c, cmd: cmd}:
			case <-h.done:
				return
			}
		case <-h.done:
			return
		}
	}
}

// Run processes commands one at a time until the context is cancelled. The
// away sweep ticks inside the same loop, so it can never overlap itself or
// an in-flight command.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	ticker := time.NewTicker(h.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case c := <-h.register:
			h.clients[c.ID] = c
		case c := <-h.unregister:
			h.handleDisconnect(c)
		case env := <-h.commands:
			h.dispatch(env.client, env.cmd)
		case exp := <-h.expiries:
			h.handleTypingExpired(exp)
		case <-ticker.C:
			h.handleSweep()
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) dispatch(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandHello:
		h.handleHello(c, cmd)
	case CommandSendMessage:
		h.handleSendMessage(c, cmd)
	case CommandSendPrivate:
		h.handleSendPrivate(c, cmd)
	case CommandGroupDelivered:
		h.handleGroupAck(c, cmd, false)
	case CommandGroupRead:
		h.handleGroupAck(c, cmd, true)
	case CommandPrivateDelivered:
		h.handlePrivateDelivered(c, cmd)
	case CommandPrivateRead:
		h.handlePrivateRead(c, cmd)
	case CommandTypingStart:
		h.handleTypingStart(c, cmd)
	case CommandTypingStop:
		h.handleTypingStop(c, cmd)
	default:
		h.send(c, &Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "unknown command")})
	}
}

func (h *Hub) handleHello(c *Client, cmd *Command) {
	h.clients[c.ID] = c

	username := strings.TrimSpace(cmd.Username)
	switch {
	case username == "":
		h.fail(c, ErrCodeInvalidUsername, "Username is required", true)
		return
	case utf8.RuneCountInString(username) < minUsernameLen || utf8.RuneCountInString(username) > maxUsernameLen:
		h.fail(c, ErrCodeInvalidUsername, "Username must be between 2 and 20 characters", true)
		return
	}

	if _, already := h.registry.Get(c.ID); already {
		h.fail(c, ErrCodeBadRequest, "already connected", false)
		return
	}

	p, err := h.registry.Add(c.ID, username)
	if err != nil {
		h.fail(c, ErrCodeUsernameTaken, "Username already taken", true)
		return
	}
	c.Name = p.Username

	h.log.Info().Str("client_id", c.ID).Str("username", p.Username).Msg("participant connected")

	h.send(c, &Event{Kind: EventConnected, User: p})
	h.broadcast(&Event{Kind: EventUserJoined, User: p, UserCount: h.registry.Count()}, c.ID)
	h.send(c, &Event{Kind: EventUserList, Users: h.registry.All()})
}

func (h *Hub) handleDisconnect(c *Client) {
	delete(h.clients, c.ID)

	p, ok := h.registry.Remove(c.ID)
	if !ok {
		// Never admitted (failed hello); nothing to announce.
		return
	}

	h.log.Info().Str("client_id", c.ID).Str("username", p.Username).Msg("participant disconnected")
	h.broadcast(&Event{Kind: EventUserLeft, User: p, UserCount: h.registry.Count()}, c.ID)
}

func (h *Hub) handleSendMessage(c *Client, cmd *Command) {
	p, ok := h.requireParticipant(c)
	if !ok {
		return
	}

	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		h.fail(c, ErrCodeEmptyMessage, "Message cannot be empty", false)
		return
	}

	h.registry.StopTyping(c.ID)

	if active, changed := h.registry.RecordActivity(c.ID); changed {
		h.broadcast(&Event{
			Kind:      EventStatusChanged,
			User:      active,
			OldStatus: StatusAway,
			NewStatus: StatusOnline,
		}, "")
	}

	m := h.ledger.CreateGroupMessage(c.ID, p.Username, text)
	h.broadcast(&Event{Kind: EventGroupMessage, Message: m}, "")

	h.log.Debug().Str("username", p.Username).Str("message_id", m.ID).Msg("group message")
}

func (h *Hub) handleSendPrivate(c *Client, cmd *Command) {
	p, ok := h.requireParticipant(c)
	if !ok {
		return
	}

	text := strings.TrimSpace(cmd.Text)
	if cmd.RecipientID == "" || text == "" {
		h.fail(c, ErrCodeInvalidPrivate, "Invalid private message format", false)
		return
	}

	recipient, found := h.registry.Get(cmd.RecipientID)
	if !found {
		h.fail(c, ErrCodeRecipientGone, "Recipient not found", false)
		return
	}
	if cmd.RecipientID == c.ID {
		h.fail(c, ErrCodeSelfMessage, "Cannot send message to yourself", false)
		return
	}

	m := h.ledger.CreatePrivateMessage(c.ID, p.Username, recipient.ID, recipient.Username, text)

	ev := &Event{Kind: EventPrivateMessage, Private: m}
	h.sendTo(recipient.ID, ev)
	h.send(c, ev)

	h.log.Debug().
		Str("from", p.Username).
		Str("to", recipient.Username).
		Str("message_id", m.ID).
		Msg("private message")
}

// handleGroupAck covers both delivery and read acknowledgments for group
// messages; unknown message ids are benign staleness and stay silent.
func (h *Hub) handleGroupAck(c *Client, cmd *Command, read bool) {
	if _, ok := h.requireParticipant(c); !ok {
		return
	}
	if cmd.MessageID == "" {
		h.log.Warn().Str("client_id", c.ID).Msg("ack without message id")
		return
	}

	var (
		m     Message
		count int
		ok    bool
	)
	if read {
		m, count, ok = h.ledger.MarkGroupRead(cmd.MessageID, c.ID)
	} else {
		m, count, ok = h.ledger.MarkGroupDelivered(cmd.MessageID, c.ID)
	}
	if !ok {
		return
	}

	status := &StatusUpdate{
		MessageID:   m.ID,
		Status:      m.Status,
		Kind:        KindPublic,
		DeliveredAt: m.DeliveredAt,
		ReadAt:      m.ReadAt,
	}
	if read {
		status.ReadCount = count
	} else {
		status.DeliveredCount = count
	}
	h.sendTo(m.SenderID, &Event{Kind: EventMessageStatus, Status: status})
}

func (h *Hub) handlePrivateDelivered(c *Client, cmd *Command) {
	if _, ok := h.requireParticipant(c); !ok {
		return
	}
	if cmd.MessageID == "" {
		h.log.Warn().Str("client_id", c.ID).Msg("ack without message id")
		return
	}

	m, ok := h.ledger.MarkPrivateDelivered(cmd.MessageID)
	if !ok {
		return
	}

	h.sendTo(m.SenderID, &Event{Kind: EventMessageStatus, Status: &StatusUpdate{
		MessageID:   m.ID,
		Status:      m.Status,
		Kind:        KindPrivate,
		RecipientID: m.RecipientID,
		DeliveredAt: m.DeliveredAt,
	}})
}

func (h *Hub) handlePrivateRead(c *Client, cmd *Command) {
	if _, ok := h.requireParticipant(c); !ok {
		return
	}
	if cmd.MessageID == "" {
		h.log.Warn().Str("client_id", c.ID).Msg("ack without message id")
		return
	}

	// A reader that is not the recipient gets the same silence as an
	// unknown id; nothing leaks to uninvolved parties.
	m, ok := h.ledger.MarkPrivateRead(cmd.MessageID, c.ID)
	if !ok {
		return
	}

	h.sendTo(m.SenderID, &Event{Kind: EventMessageStatus, Status: &StatusUpdate{
		MessageID:   m.ID,
		Status:      m.Status,
		Kind:        KindPrivate,
		RecipientID: m.RecipientID,
		ReadAt:      m.ReadAt,
	}})
}

func (h *Hub) handleTypingStart(c *Client, cmd *Command) {
	if _, ok := h.requireParticipant(c); !ok {
		return
	}

	target := TypingTargetGroup
	if cmd.RecipientID != "" {
		if _, found := h.registry.Get(cmd.RecipientID); !found {
			return // recipient already gone; stale indicator, drop it
		}
		target = cmd.RecipientID
	}

	id := c.ID
	p, ok := h.registry.SetTyping(id, target, func(gen uint64) {
		select {
		case h.expiries <- typingExpiry{clientID: id, gen: gen}:
		case <-h.done:
		}
	})
	if !ok {
		return
	}

	h.emitTyping(EventTyping, p, target)
}

func (h *Hub) handleTypingStop(c *Client, cmd *Command) {
	if _, ok := h.requireParticipant(c); !ok {
		return
	}

	p, ok := h.registry.StopTyping(c.ID)
	if !ok {
		return
	}

	target := TypingTargetGroup
	if cmd.RecipientID != "" {
		target = cmd.RecipientID
	}
	h.emitTyping(EventTypingStopped, p, target)
}

func (h *Hub) handleTypingExpired(exp typingExpiry) {
	p, ok := h.registry.ExpireTyping(exp.clientID, exp.gen)
	if !ok {
		return // superseded by a newer burst or the participant left
	}

	h.log.Debug().Str("username", p.Username).Msg("typing auto-expired")
	h.emitTyping(EventTypingStopped, p, p.TypingTarget)
}

// emitTyping routes typing indicators: private bursts go to the one peer
// tagged with the typist's id, group bursts go to everyone else.
func (h *Hub) emitTyping(kind EventKind, p Participant, target string) {
	ev := &Event{Kind: kind, User: p}
	if target != "" && target != TypingTargetGroup {
		ev.TypingContext = p.ID
		h.sendTo(target, ev)
		return
	}
	ev.TypingContext = TypingTargetGroup
	h.broadcast(ev, p.ID)
}

func (h *Hub) handleSweep() {
	for _, p := range h.registry.SweepInactive() {
		h.log.Debug().Str("username", p.Username).Msg("participant away")
		h.broadcast(&Event{
			Kind:      EventStatusChanged,
			User:      p,
			OldStatus: StatusOnline,
			NewStatus: StatusAway,
		}, "")
	}
}

// requireParticipant resolves the sender or rejects the command; commands
// other than hello are only valid once admitted.
func (h *Hub) requireParticipant(c *Client) (Participant, bool) {
	p, ok := h.registry.Get(c.ID)
	if !ok {
		h.fail(c, ErrCodeUnauthorized, "not connected", false)
		return Participant{}, false
	}
	return p, true
}

// fail emits an error event to the offending client only. Validation
// failures never mutate state and never broadcast.
func (h *Hub) fail(c *Client, code, msg string, closeConn bool) {
	h.send(c, &Event{Kind: EventError, Error: coreError(code, msg), Close: closeConn})
}

// send delivers an event to one client, dropping it if the consumer is
// stuck so one slow connection cannot stall the loop.
func (h *Hub) send(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
		h.log.Warn().Str("client_id", c.ID).Msg("dropping event for slow consumer")
	}
}

// sendTo delivers an event to an admitted participant by connection id;
// silently skipped when the participant already disconnected.
func (h *Hub) sendTo(id string, ev *Event) {
	if c, ok := h.clients[id]; ok {
		if _, admitted := h.registry.Get(id); admitted {
			h.send(c, ev)
		}
	}
}

// broadcast fans an event out to every admitted participant except the
// given connection id.
func (h *Hub) broadcast(ev *Event, except string) {
	for id, c := range h.clients {
		if id == except {
			continue
		}
		if _, admitted := h.registry.Get(id); !admitted {
			continue
		}
		h.send(c, ev)
	}
}
