package core

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// hubTunables configures the short timings used by hub tests.
type hubTunables struct {
	awayThreshold time.Duration
	typingExpiry  time.Duration
	sweepInterval time.Duration
}

func defaultTunables() hubTunables {
	return hubTunables{
		awayThreshold: time.Minute,
		typingExpiry:  time.Minute,
		sweepInterval: time.Minute,
	}
}

func newTestHub(t *testing.T, tun hubTunables) *Hub {
	t.Helper()

	logger := zerolog.Nop()
	registry := NewRegistry(tun.awayThreshold, tun.typingExpiry)
	hub := NewHub(registry, NewLedger(), tun.sweepInterval, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	return hub
}

// connect registers a client and completes the hello handshake.
func connect(t *testing.T, hub *Hub, id, name string) *Client {
	t.Helper()

	c := NewClient(id)
	hub.RegisterClient(c)
	c.Commands <- &Command{Kind: CommandHello, Username: name}

	ev := mustEvent(t, c.Events, EventConnected)
	if ev.User.Username != name {
		t.Fatalf("connected as %q, want %q", ev.User.Username, name)
	}
	mustEvent(t, c.Events, EventUserList)
	return c
}

// mustEvent waits for the next event of the given kind, discarding others.
func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNoEvent fails if an event of the given kind shows up within wait.
func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind, wait time.Duration) {
	t.Helper()

	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}
