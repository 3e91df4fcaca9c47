package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func benchmarkGroupBroadcast(b *testing.B, recipients int) {
	logger := zerolog.Nop()
	registry := NewRegistry(time.Hour, time.Hour)
	hub := NewHub(registry, NewLedger(), time.Hour, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	hello := func(c *Client, name string) {
		hub.RegisterClient(c)
		c.Commands <- &Command{Kind: CommandHello, Username: name}
	}

	sender := NewClient("sender")
	hello(sender, "sender")
	go func() {
		for range sender.Events {
		}
	}()

	clients := make([]*Client, 0, recipients)
	for i := 0; i < recipients; i++ {
		c := NewClient(fmt.Sprintf("c%d", i))
		hello(c, fmt.Sprintf("user%d", i))
		clients = append(clients, c)
	}

	// Drain events for all but the first recipient to avoid channel backpressure.
	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{Kind: CommandSendMessage, Text: "payload"}
		for {
			ev := <-target.Events
			if ev.Kind == EventGroupMessage {
				break
			}
		}
	}
}

func BenchmarkGroupBroadcast_10(b *testing.B)  { benchmarkGroupBroadcast(b, 10) }
func BenchmarkGroupBroadcast_100(b *testing.B) { benchmarkGroupBroadcast(b, 100) }
func BenchmarkGroupBroadcast_500(b *testing.B) { benchmarkGroupBroadcast(b, 500) }
