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

	"github.com/vovakirdan/wirechat-relay/internal/auth"
	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/log"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
	"github.com/vovakirdan/wirechat-relay/internal/store/memory"
)

func startTestServer(t *testing.T, mutate func(*config.Config)) (*httptest.Server, *core.Hub) {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	if mutate != nil {
		mutate(&cfg)
	}

	hasher, err := auth.NewHasher(cfg.PasswordHash)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	authService := auth.NewService(memory.New(), hasher)

	logger := log.Nop()
	hub := core.NewHub(authService, core.Options{
		HistorySize:   cfg.HistorySize,
		TypingTimeout: cfg.TypingTimeout,
		Logger:        logger,
	})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	server := NewServer(hub, cfg, logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, hub
}

func dialTest(ctx context.Context, t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })

	// every connection is greeted with the presence snapshot
	readEvent(ctx, t, conn, proto.EventUserList)
	return conn
}

func sendInbound(ctx context.Context, t *testing.T, conn *websocket.Conn, kind string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", kind, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: kind, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", kind, err)
	}
}

type rawOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func readOutbound(ctx context.Context, t *testing.T, conn *websocket.Conn) rawOutbound {
	t.Helper()

	var out rawOutbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return out
}

// readEvent skips outbound frames until an event with the given name arrives.
func readEvent(ctx context.Context, t *testing.T, conn *websocket.Conn, name string) json.RawMessage {
	t.Helper()

	for {
		out := readOutbound(ctx, t, conn)
		if out.Type == proto.OutboundTypeEvent && out.Event == name {
			return out.Data
		}
	}
}

// readError skips outbound frames until an error frame arrives.
func readError(ctx context.Context, t *testing.T, conn *websocket.Conn) *proto.Error {
	t.Helper()

	for {
		out := readOutbound(ctx, t, conn)
		if out.Type == proto.OutboundTypeError {
			if out.Error == nil {
				t.Fatalf("error frame without body")
			}
			return out.Error
		}
	}
}

func loginTest(ctx context.Context, t *testing.T, conn *websocket.Conn, username, password string) {
	t.Helper()

	sendInbound(ctx, t, conn, proto.InboundTypeLogin, proto.LoginData{Username: username, Password: password})
	readEvent(ctx, t, conn, proto.EventLoginSuccess)
}
