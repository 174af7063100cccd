package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

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
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:5000/ws", "WebSocket address")
	user := flag.String("user", "cli-user", "username")
	password := flag.String("password", "cli-user", "password (registers the user on first use)")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := send(ctx, conn, proto.InboundTypeLogin, proto.LoginData{
		Username: *user,
		Password: *password,
		Protocol: proto.ProtocolVersion,
	}); err != nil {
		return err
	}

	fmt.Printf("Connected to %s as %s\n", *addr, *user)
	fmt.Println("Type messages and press Enter to send. /typing, /stop, /online, /away, /offline. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func send(ctx context.Context, conn *websocket.Conn, kind string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: kind, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", kind, err)
	}
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var out outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			case websocket.StatusPolicyViolation:
				fmt.Println("disconnected: logged in from another connection")
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if out.Error != nil {
			fmt.Printf("error %s: %s\n", out.Error.Code, out.Error.Msg)
			continue
		}
		printEvent(out)
	}
}

func printEvent(out outbound) {
	switch out.Event {
	case proto.EventMessage:
		var evt proto.MessagePayload
		if err := json.Unmarshal(out.Data, &evt); err != nil {
			log.Printf("unmarshal message: %v", err)
			return
		}
		fmt.Printf("[%s] %s: %s\n", evt.Time, evt.User, evt.Text)
	case proto.EventMessageHistory:
		var evt proto.EventHistory
		if err := json.Unmarshal(out.Data, &evt); err != nil {
			log.Printf("unmarshal history: %v", err)
			return
		}
		for _, msg := range evt.Messages {
			fmt.Printf("[%s] %s: %s\n", msg.Time, msg.User, msg.Text)
		}
	case proto.EventUserList, proto.EventUserStatuses:
		var evt proto.EventUsers
		if err := json.Unmarshal(out.Data, &evt); err != nil {
			log.Printf("unmarshal users: %v", err)
			return
		}
		parts := make([]string, 0, len(evt.Users))
		for _, u := range evt.Users {
			parts = append(parts, u.Username+"("+u.Status+")")
		}
		fmt.Printf("online: %s\n", strings.Join(parts, ", "))
	case proto.EventUserTyping:
		var evt proto.UserTypingPayload
		if err := json.Unmarshal(out.Data, &evt); err != nil {
			log.Printf("unmarshal typing: %v", err)
			return
		}
		if evt.IsTyping {
			fmt.Printf("%s is typing...\n", evt.User)
		} else {
			fmt.Printf("%s stopped typing\n", evt.User)
		}
	case proto.EventLoginSuccess:
		fmt.Println("logged in")
	case proto.EventLoginError:
		var evt proto.EventLoginErrorData
		_ = json.Unmarshal(out.Data, &evt)
		fmt.Printf("login failed: %s\n", evt.Reason)
	default:
		fmt.Printf("event=%s data=%s\n", out.Event, string(out.Data))
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			var err error
			switch text {
			case "/typing":
				err = send(ctx, conn, proto.InboundTypeTyping, proto.TypingData{IsTyping: true})
			case "/stop":
				err = send(ctx, conn, proto.InboundTypeTyping, proto.TypingData{IsTyping: false})
			case "/online", "/away", "/offline":
				err = send(ctx, conn, proto.InboundTypeSetStatus, proto.SetStatusData{Status: strings.TrimPrefix(text, "/")})
			default:
				err = send(ctx, conn, proto.InboundTypeMessage, proto.MessageData{Text: text})
			}
			if err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
