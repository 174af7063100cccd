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

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

type outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:5000/ws", "WebSocket address")
	user := flag.String("user", "tester", "username to log in with")
	password := flag.String("password", "tester", "password (registers the user on first use)")
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

	send := func(kind string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", kind, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: kind, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", kind, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeLogin, proto.LoginData{
		Username: *user,
		Password: *password,
		Protocol: proto.ProtocolVersion,
	}); err != nil {
		return err
	}

	for {
		var out outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received outbound: type=%s", out.Type)
		if out.Event != "" {
			fmt.Printf(" event=%s", out.Event)
		}
		fmt.Println()

		if out.Error != nil {
			return fmt.Errorf("server error %s: %s", out.Error.Code, out.Error.Msg)
		}

		switch out.Event {
		case proto.EventLoginError:
			var evt proto.EventLoginErrorData
			_ = json.Unmarshal(out.Data, &evt)
			return fmt.Errorf("login rejected: %s", evt.Reason)
		case proto.EventLoginSuccess:
			if err := send(proto.InboundTypeMessage, proto.MessageData{Text: *text}); err != nil {
				return err
			}
		case proto.EventMessageHistory:
			var evt proto.EventHistory
			if err := json.Unmarshal(out.Data, &evt); err == nil {
				fmt.Printf("History: %d messages\n", len(evt.Messages))
			}
		case proto.EventMessage:
			var evt proto.MessagePayload
			if err := json.Unmarshal(out.Data, &evt); err != nil {
				fmt.Printf("Raw data: %s\n", string(out.Data))
				return fmt.Errorf("unmarshal message: %w", err)
			}
			if evt.User == *user && evt.Text == *text {
				fmt.Printf("EventMessage: user=%s text=%q time=%s\n", evt.User, evt.Text, evt.Time)
				return nil
			}
		default:
			// keep looping for our message
		}
	}
}
