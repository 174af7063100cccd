package core

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/auth"
)

// Authenticator checks login credentials.
type Authenticator interface {
	RegisterOrVerify(ctx context.Context, username, password string) (auth.Result, error)
}

// Options tunes a Hub. Zero values fall back to defaults.
type Options struct {
	HistorySize   int
	TypingTimeout time.Duration
	Clock         clock.Clock
	Logger        *zerolog.Logger
}

// Stats is a read-only view for health reporting.
type Stats struct {
	Connections int
	ActiveUsers int
}

type envelope struct {
	client *Client
	cmd    *Command
}

type typingExpiry struct {
	connID string
	gen    uint64
}

// Hub coordinates sessions, presence, history and typing for all connections.
// A single goroutine (Run) applies every command, so each logical operation
// is atomic with respect to the others.
type Hub struct {
	auth  Authenticator
	clock clock.Clock
	log   *zerolog.Logger

	registry *Registry
	history  *History
	typing   *Debouncer
	conns    *Fanout

	register   chan *Client
	unregister chan *Client
	inbox      chan envelope
	expired    chan typingExpiry
	quit       chan struct{}

	connections atomic.Int64
}

// NewHub creates a new chat hub instance.
func NewHub(authenticator Authenticator, opts Options) *Hub {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	h := &Hub{
		auth:       authenticator,
		clock:      opts.Clock,
		log:        opts.Logger,
		registry:   NewRegistry(),
		history:    NewHistory(opts.HistorySize),
		conns:      NewFanout(opts.Logger),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbox:      make(chan envelope, 64),
		expired:    make(chan typingExpiry, 16),
		quit:       make(chan struct{}),
	}
	h.typing = NewDebouncer(opts.Clock, opts.TypingTimeout, h.postTypingExpiry)
	return h
}

// Run processes hub events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.handleRegister(ctx, c)
		case c := <-h.unregister:
			h.handleUnregister(c)
		case env := <-h.inbox:
			h.handleCommand(env.client, env.cmd)
		case exp := <-h.expired:
			h.handleTypingExpiry(exp)
		}
	}
}

// RegisterClient attaches a freshly connected client.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.quit:
		c.close()
	}
}

// UnregisterClient detaches a client whose transport closed. Safe to call
// more than once and for clients that were already replaced.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// Stats reports connection and session counts. Safe from any goroutine.
func (h *Hub) Stats() Stats {
	return Stats{
		Connections: int(h.connections.Load()),
		ActiveUsers: h.registry.Len(),
	}
}

// Presence returns the current presence snapshot. Safe from any goroutine.
func (h *Hub) Presence() []Presence {
	return h.registry.Snapshot()
}

func (h *Hub) handleRegister(ctx context.Context, c *Client) {
	if !h.conns.Add(c) {
		return
	}
	h.connections.Add(1)
	h.log.Debug().Str("client_id", c.ID).Msg("client connected")

	go h.pump(ctx, c)

	h.conns.Send(c, &Event{Kind: EventUserList, Users: h.registry.Snapshot()})
}

func (h *Hub) handleUnregister(c *Client) {
	if _, ok := h.conns.Remove(c.ID); !ok {
		return
	}
	h.connections.Add(-1)
	c.close()

	h.typing.Cancel(c.ID)
	s, ok := h.registry.EndSession(c.ID)
	if !ok {
		h.log.Debug().Str("client_id", c.ID).Msg("client disconnected before login")
		return
	}

	h.log.Info().Str("client_id", c.ID).Str("username", s.Username).Msg("user left")
	h.broadcastPresence()
}

// pump forwards a client's commands to the hub loop in order. Credential
// checks run here so slow hashing never stalls other connections.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			if cmd.Kind == CommandLogin {
				// An authenticated connection gets "already logged in" from the
				// hub; its credentials must not reach the store.
				if !c.authenticated.Load() {
					h.authenticate(ctx, cmd)
				}
				cmd.handled = make(chan struct{})
			}
			select {
			case h.inbox <- envelope{client: c, cmd: cmd}:
			case <-c.done:
				return
			case <-h.quit:
				return
			}
			if cmd.handled == nil {
				continue
			}
			// Logins are applied one at a time so the next one sees the verdict.
			select {
			case <-cmd.handled:
			case <-c.done:
				return
			case <-h.quit:
				return
			}
		case <-c.done:
			return
		case <-h.quit:
			return
		}
	}
}

func (h *Hub) authenticate(ctx context.Context, cmd *Command) {
	if h.auth == nil {
		cmd.authErr = errors.New("no authenticator configured")
		return
	}
	res, err := h.auth.RegisterOrVerify(ctx, cmd.Username, cmd.Password)
	if err != nil {
		cmd.authErr = err
		return
	}
	cmd.Username = res.Username
	if res.Registered {
		h.log.Info().Str("username", res.Username).Msg("registered new user")
	}
}

func (h *Hub) handleCommand(c *Client, cmd *Command) {
	defer cmd.finish()

	if _, ok := h.conns.Get(c.ID); !ok {
		return
	}

	switch cmd.Kind {
	case CommandLogin:
		h.handleLogin(c, cmd)
	case CommandSendMessage:
		h.handleMessage(c, cmd)
	case CommandTyping:
		h.handleTyping(c, cmd)
	case CommandSetStatus:
		h.handleSetStatus(c, cmd)
	}
}

func (h *Hub) handleLogin(c *Client, cmd *Command) {
	if _, ok := h.registry.Lookup(c.ID); ok {
		h.conns.Send(c, &Event{Kind: EventLoginError, Reason: ReasonAlreadyLoggedIn})
		return
	}
	if cmd.authErr != nil {
		reason := loginErrorReason(cmd.authErr)
		if reason == ReasonInternal {
			h.log.Error().Err(cmd.authErr).Str("client_id", c.ID).Msg("login failed")
		} else {
			h.log.Debug().Err(cmd.authErr).Str("client_id", c.ID).Msg("login rejected")
		}
		h.conns.Send(c, &Event{Kind: EventLoginError, Reason: reason})
		return
	}

	if evictedID, ok := h.registry.BeginSession(c.ID, cmd.Username); ok {
		h.evict(evictedID, cmd.Username)
	}
	c.authenticated.Store(true)

	h.log.Info().Str("client_id", c.ID).Str("username", cmd.Username).Msg("user logged in")

	h.conns.Send(c, &Event{Kind: EventHistory, Messages: h.history.Snapshot()})
	h.conns.Send(c, &Event{Kind: EventLoginSuccess, User: cmd.Username})
	h.broadcastPresence()
}

// evict detaches a connection whose session was taken over by a newer login.
// The registry entry is already gone by the time this runs.
func (h *Hub) evict(connID, username string) {
	h.typing.Cancel(connID)

	old, ok := h.conns.Remove(connID)
	if !ok {
		return
	}
	h.connections.Add(-1)

	old.replaced.Store(true)
	h.conns.Send(old, &Event{Kind: EventSessionReplaced, User: username})
	old.close()

	h.log.Info().Str("client_id", connID).Str("username", username).Msg("session replaced by newer login")
}

func (h *Hub) handleMessage(c *Client, cmd *Command) {
	s, ok := h.registry.Lookup(c.ID)
	if !ok {
		h.log.Debug().Str("client_id", c.ID).Msg("ignoring message from unauthenticated client")
		return
	}
	if strings.TrimSpace(cmd.Text) == "" {
		return
	}

	msg := Message{
		ID:     uuid.NewString(),
		Author: s.Username,
		Text:   cmd.Text,
		SentAt: h.clock.Now().UTC(),
	}
	h.history.Append(msg)
	h.conns.All(&Event{Kind: EventMessage, User: s.Username, Message: msg})
}

func (h *Hub) handleTyping(c *Client, cmd *Command) {
	s, ok := h.registry.Lookup(c.ID)
	if !ok {
		h.log.Debug().Str("client_id", c.ID).Msg("ignoring typing from unauthenticated client")
		return
	}
	if h.typing.Signal(c.ID, s.Username, cmd.IsTyping) {
		h.conns.Others(c.ID, &Event{Kind: EventTyping, User: s.Username, IsTyping: cmd.IsTyping})
	}
}

func (h *Hub) handleSetStatus(c *Client, cmd *Command) {
	found, changed := h.registry.SetStatus(c.ID, cmd.Status)
	if !found {
		h.log.Debug().Str("client_id", c.ID).Msg("ignoring status from unauthenticated client")
		return
	}
	if changed {
		h.broadcastPresence()
	}
}

func (h *Hub) handleTypingExpiry(exp typingExpiry) {
	user, ok := h.typing.Expire(exp.connID, exp.gen)
	if !ok {
		return
	}
	h.conns.Others(exp.connID, &Event{Kind: EventTyping, User: user, IsTyping: false})
}

// postTypingExpiry runs on a timer goroutine and hands the expiry to Run.
func (h *Hub) postTypingExpiry(connID string, gen uint64) {
	select {
	case h.expired <- typingExpiry{connID: connID, gen: gen}:
	case <-h.quit:
	}
}

func (h *Hub) broadcastPresence() {
	h.conns.All(&Event{Kind: EventPresence, Users: h.registry.Snapshot()})
}

func (h *Hub) shutdown() {
	close(h.quit)
	h.typing.Stop()
	h.conns.Each(func(c *Client) { c.close() })
	h.log.Info().Int("clients", h.conns.Len()).Msg("hub stopped")
}

func loginErrorReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return ReasonInvalidPassword
	case errors.Is(err, auth.ErrInvalidUsername):
		return ReasonInvalidUsername
	case errors.Is(err, auth.ErrInvalidPassword):
		return ReasonMissingPassword
	default:
		return ReasonInternal
	}
}
