package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandLogin authenticates the connection with a username and password.
	CommandLogin CommandKind = iota
	// CommandSendMessage broadcasts a chat message.
	CommandSendMessage
	// CommandTyping reports a typing start/stop signal.
	CommandTyping
	// CommandSetStatus changes the advertised presence status.
	CommandSetStatus
)

// Command represents an action requested by a client.
type Command struct {
	Kind     CommandKind
	Username string
	Password string
	Text     string
	IsTyping bool
	Status   Status

	// authErr is the credential check outcome, filled in by the client's pump.
	authErr error
	// handled is closed by the hub loop once it has applied the command.
	handled chan struct{}
}

func (c *Command) finish() {
	if c.handled != nil {
		close(c.handled)
	}
}
