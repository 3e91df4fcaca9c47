package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/pulsechat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run connects, introduces itself, sends one group message and waits for
// the broadcast to come back, acking delivery and read along the way.
func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "tester", "username to announce with hello")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(frameType string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", frameType, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: frameType, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", frameType, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeHello, proto.HelloData{Username: *user}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeMessage, proto.MessageData{Text: *text}); err != nil {
		return err
	}

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received outbound: type=%s", outbound.Type)
		if outbound.Event != "" {
			fmt.Printf(" event=%s", outbound.Event)
		}
		fmt.Println()

		if outbound.Error != nil {
			return fmt.Errorf("server error: %s (%s)", outbound.Error.Msg, outbound.Error.Code)
		}

		switch outbound.Event {
		case proto.EventNameConnected:
			var evt proto.ConnectedData
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				return fmt.Errorf("unmarshal user:connected: %w", err)
			}
			fmt.Printf("Connected: id=%s username=%s status=%s\n",
				evt.User.ID, evt.User.Username, evt.User.Status)
		case proto.EventNameUserList:
			var evt proto.UserListData
			if err := json.Unmarshal(outbound.Data, &evt); err == nil {
				fmt.Printf("Roster: %d participant(s)\n", len(evt.Users))
			}
		case proto.EventNameMessage:
			var evt proto.MessageEvent
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				fmt.Printf("Raw data: %s\n", string(outbound.Data))
				return fmt.Errorf("unmarshal message: %w", err)
			}
			fmt.Printf("Message: id=%s user=%s text=%q status=%s\n",
				evt.ID, evt.Username, evt.Text, evt.Status)
			// Exercise the delivery tracking path before leaving.
			if err := send(proto.InboundTypeDelivered, proto.AckData{MessageID: evt.ID}); err != nil {
				return err
			}
			if err := send(proto.InboundTypeRead, proto.AckData{MessageID: evt.ID}); err != nil {
				return err
			}
			return nil
		}
	}
}
