package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsechat-server/internal/config"
	"github.com/vovakirdan/pulsechat-server/internal/core"
	"github.com/vovakirdan/pulsechat-server/internal/proto"
)

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	cfg.SweepInterval = time.Hour // keep presence sweeps out of these tests

	logger := zerolog.Nop()
	registry := core.NewRegistry(cfg.AwayThreshold, cfg.TypingExpiry)
	hub := core.NewHub(registry, core.NewLedger(), cfg.SweepInterval, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := NewServer(hub, cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts
}

func dial(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, frameType string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", frameType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: frameType, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", frameType, err)
	}
}

// readUntilEvent discards frames until one with the given event name shows up.
func readUntilEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			t.Fatalf("read waiting for %s: %v", event, err)
		}
		if outbound.Type == proto.OutboundTypeEvent && outbound.Event == event {
			return outbound.Data
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "OK" || health.Environment != "development" {
		t.Fatalf("unexpected health payload: %+v", health)
	}
	if health.Connections != 0 {
		t.Fatalf("expected zero connections, got %d", health.Connections)
	}
}

func TestWebSocketHelloAndGroupMessage(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dial(t, ctx, ts)
	connB := dial(t, ctx, ts)

	sendFrame(t, ctx, connA, proto.InboundTypeHello, proto.HelloData{Username: "alice"})
	data := readUntilEvent(t, ctx, connA, proto.EventNameConnected)

	var connected proto.ConnectedData
	if err := json.Unmarshal(data, &connected); err != nil {
		t.Fatalf("unmarshal user:connected: %v", err)
	}
	if connected.User.Username != "alice" || connected.User.Status != "online" {
		t.Fatalf("unexpected connected payload: %+v", connected)
	}

	sendFrame(t, ctx, connB, proto.InboundTypeHello, proto.HelloData{Username: "bob"})
	readUntilEvent(t, ctx, connB, proto.EventNameUserList)

	// Alice learns about bob via the join broadcast.
	data = readUntilEvent(t, ctx, connA, proto.EventNameUserJoined)
	var joined proto.PresenceData
	if err := json.Unmarshal(data, &joined); err != nil {
		t.Fatalf("unmarshal user:joined: %v", err)
	}
	if joined.User.Username != "bob" || joined.UserCount != 2 {
		t.Fatalf("unexpected join payload: %+v", joined)
	}

	sendFrame(t, ctx, connA, proto.InboundTypeMessage, proto.MessageData{Text: "hi there"})

	data = readUntilEvent(t, ctx, connB, proto.EventNameMessage)
	var msg proto.MessageEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}
	if msg.Text != "hi there" || msg.Username != "alice" || msg.Status != "sent" {
		t.Fatalf("unexpected message payload: %+v", msg)
	}

	// Bob acks delivery; alice gets the status update.
	sendFrame(t, ctx, connB, proto.InboundTypeDelivered, proto.AckData{MessageID: msg.ID})

	data = readUntilEvent(t, ctx, connA, proto.EventNameStatusUpdated)
	var status proto.StatusUpdateData
	if err := json.Unmarshal(data, &status); err != nil {
		t.Fatalf("unmarshal status update: %v", err)
	}
	if status.Status != "delivered" || status.DeliveredTo != 1 || status.Type != "public" {
		t.Fatalf("unexpected status update: %+v", status)
	}
}

func TestWebSocketDuplicateUsernameClosesConnection(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dial(t, ctx, ts)
	sendFrame(t, ctx, connA, proto.InboundTypeHello, proto.HelloData{Username: "alice"})
	readUntilEvent(t, ctx, connA, proto.EventNameConnected)

	connB := dial(t, ctx, ts)
	sendFrame(t, ctx, connB, proto.InboundTypeHello, proto.HelloData{Username: "alice"})

	var outbound struct {
		Type  string       `json:"type"`
		Error *proto.Error `json:"error"`
	}
	if err := wsjson.Read(ctx, connB, &outbound); err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	if outbound.Type != proto.OutboundTypeError || outbound.Error == nil || outbound.Error.Code != core.ErrCodeUsernameTaken {
		t.Fatalf("unexpected frame: %+v", outbound)
	}

	// The server drops the rejected connection; the next read must fail.
	var discard json.RawMessage
	if err := wsjson.Read(ctx, connB, &discard); err == nil {
		t.Fatal("expected connection to be closed after failed hello")
	}
}

func TestWebSocketPrivateMessageEcho(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dial(t, ctx, ts)
	sendFrame(t, ctx, connA, proto.InboundTypeHello, proto.HelloData{Username: "alice"})
	data := readUntilEvent(t, ctx, connA, proto.EventNameConnected)
	var connected proto.ConnectedData
	if err := json.Unmarshal(data, &connected); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	connB := dial(t, ctx, ts)
	sendFrame(t, ctx, connB, proto.InboundTypeHello, proto.HelloData{Username: "bob"})
	data = readUntilEvent(t, ctx, connB, proto.EventNameConnected)
	var bobConnected proto.ConnectedData
	if err := json.Unmarshal(data, &bobConnected); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	sendFrame(t, ctx, connA, proto.InboundTypePrivate, proto.PrivateData{
		RecipientID: bobConnected.User.ID,
		Text:        "psst",
	})

	for _, conn := range []*websocket.Conn{connB, connA} {
		data = readUntilEvent(t, ctx, conn, proto.EventNamePrivate)
		var pm proto.PrivateMessageEvent
		if err := json.Unmarshal(data, &pm); err != nil {
			t.Fatalf("unmarshal private message: %v", err)
		}
		if pm.Text != "psst" || pm.RecipientUsername != "bob" || pm.SenderUsername != "alice" {
			t.Fatalf("unexpected private message: %+v", pm)
		}
	}
}
