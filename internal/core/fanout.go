package core

import "github.com/rs/zerolog"

// Fanout is the set of live connections events are delivered to.
// It is owned by the hub loop and not safe for concurrent use.
type Fanout struct {
	clients map[string]*Client
	log     *zerolog.Logger
}

// NewFanout constructs an empty fan-out set.
func NewFanout(logger *zerolog.Logger) *Fanout {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Fanout{
		clients: make(map[string]*Client),
		log:     logger,
	}
}

// Add inserts a client. Returns true if newly added.
func (f *Fanout) Add(c *Client) bool {
	if _, exists := f.clients[c.ID]; exists {
		return false
	}
	f.clients[c.ID] = c
	return true
}

// Remove deletes a client by id and returns it.
func (f *Fanout) Remove(id string) (*Client, bool) {
	c, ok := f.clients[id]
	if !ok {
		return nil, false
	}
	delete(f.clients, id)
	return c, true
}

// Get returns the client with the given id.
func (f *Fanout) Get(id string) (*Client, bool) {
	c, ok := f.clients[id]
	return c, ok
}

// Len returns the number of live clients.
func (f *Fanout) Len() int {
	return len(f.clients)
}

// Send delivers an event to one client without blocking.
func (f *Fanout) Send(c *Client, event *Event) bool {
	select {
	case c.Events <- event:
		return true
	default:
		// Drop if slow consumer.
		f.log.Debug().Str("client_id", c.ID).Int("kind", int(event.Kind)).Msg("dropped event for slow client")
		return false
	}
}

// All delivers an event to every client, the originator included.
func (f *Fanout) All(event *Event) {
	for _, c := range f.clients {
		f.Send(c, event)
	}
}

// Others delivers an event to every client except the one with exceptID.
func (f *Fanout) Others(exceptID string, event *Event) {
	for id, c := range f.clients {
		if id == exceptID {
			continue
		}
		f.Send(c, event)
	}
}

// Each calls fn for every client.
func (f *Fanout) Each(fn func(*Client)) {
	for _, c := range f.clients {
		fn(c)
	}
}
