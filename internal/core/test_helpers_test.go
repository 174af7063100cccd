package core

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vovakirdan/wirechat-relay/internal/auth"
	"github.com/vovakirdan/wirechat-relay/internal/store/memory"
)

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

// expectNoEvent fails if an event of the given kind shows up within wait.
func expectNoEvent(t *testing.T, ch <-chan *Event, kind EventKind, wait time.Duration) {
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

func startTestHub(t *testing.T, clk clock.Clock) *Hub {
	t.Helper()

	hub, _ := startTestHubWithStore(t, clk)
	return hub
}

func startTestHubWithStore(t *testing.T, clk clock.Clock) (*Hub, *memory.MemoryStore) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	credentials := memory.New()
	hasher, _ := auth.NewHasher(auth.HashBlake2b)
	hub := NewHub(auth.NewService(credentials, hasher), Options{Clock: clk})
	go hub.Run(ctx)
	return hub, credentials
}

func connect(t *testing.T, hub *Hub, id string) *Client {
	t.Helper()

	c := NewClient(id, 0)
	hub.RegisterClient(c)
	mustEvent(t, c.Events, EventUserList)
	return c
}

func login(t *testing.T, c *Client, username, password string) *Event {
	t.Helper()

	c.Commands <- &Command{Kind: CommandLogin, Username: username, Password: password}
	return mustEvent(t, c.Events, EventLoginSuccess)
}

func presenceNames(users []Presence) []string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return names
}
