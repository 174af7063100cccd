package core

import (
	"sync"
	"sync/atomic"
)

// DefaultClientBuffer is the event buffer size used when none is given.
const DefaultClientBuffer = 64

// Client is a connection as seen by the core layer.
// The transport writes to Commands and drains Events.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	done          chan struct{}
	closeOnce     sync.Once
	replaced      atomic.Bool
	authenticated atomic.Bool
}

// NewClient constructs a client with initialized channels.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, buffer),
		done:     make(chan struct{}),
	}
}

// Done is closed once the hub no longer serves this client: after it was
// unregistered, replaced by a newer login, or the hub stopped.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Replaced reports whether the client lost its session to a newer login.
func (c *Client) Replaced() bool {
	return c.replaced.Load()
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}
