package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventUserList delivers the presence snapshot to a freshly connected client.
	EventUserList EventKind = iota
	// EventLoginError tells the requester its login was refused.
	EventLoginError
	// EventHistory replays recent messages to a client that just logged in.
	EventHistory
	// EventLoginSuccess confirms the login to the requester.
	EventLoginSuccess
	// EventPresence broadcasts the presence snapshot after any change.
	EventPresence
	// EventMessage carries a chat message.
	EventMessage
	// EventTyping notifies peers that a user started or stopped typing.
	EventTyping
	// EventSessionReplaced is the last event a connection sees before a newer
	// login for the same username closes it.
	EventSessionReplaced
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind     EventKind
	User     string
	Users    []Presence // EventUserList, EventPresence
	Message  Message
	Messages []Message // EventHistory
	IsTyping bool
	Reason   string // EventLoginError
}
