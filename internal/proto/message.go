package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeLogin     = "login"
	InboundTypeMessage   = "message"
	InboundTypeTyping    = "typing"
	InboundTypeSetStatus = "setStatus"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventUserList        = "userList"
	EventLoginError      = "loginError"
	EventMessageHistory  = "messageHistory"
	EventLoginSuccess    = "loginSuccess"
	EventUserStatuses    = "userStatuses"
	EventMessage         = "message"
	EventUserTyping      = "userTyping"
	EventSessionReplaced = "sessionReplaced"

	// TimeLayout matches JavaScript's Date.toISOString.
	TimeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// LoginData authenticates the connection. Unknown usernames are registered.
type LoginData struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Protocol int    `json:"protocol,omitempty"`
}

// MessageData is a chat message from the client.
type MessageData struct {
	Text string `json:"text"`
}

// TypingData starts or stops the typing indicator.
type TypingData struct {
	IsTyping bool `json:"isTyping"`
}

// SetStatusData changes the advertised presence status.
type SetStatusData struct {
	Status string `json:"status"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// UserStatus is one entry of a presence snapshot.
type UserStatus struct {
	Username string `json:"username"`
	Status   string `json:"status"`
}

// EventUsers carries a presence snapshot (userList and userStatuses).
type EventUsers struct {
	Users []UserStatus `json:"users"`
}

// EventLoginErrorData tells the requester why its login failed.
type EventLoginErrorData struct {
	Reason string `json:"reason"`
}

// EventLoginSuccessData confirms a login.
type EventLoginSuccessData struct {
	Username string `json:"username"`
}

// MessagePayload is a chat message broadcast to everyone.
type MessagePayload struct {
	ID   string `json:"id,omitempty"`
	User string `json:"user"`
	Text string `json:"text"`
	Time string `json:"time"`
}

// EventHistory replays recent messages after login.
type EventHistory struct {
	Messages []MessagePayload `json:"messages"`
}

// UserTypingPayload notifies that a user started or stopped typing.
type UserTypingPayload struct {
	User     string `json:"user"`
	IsTyping bool   `json:"isTyping"`
}

// EventSessionReplacedData is sent before a connection is closed in favour of a newer login.
type EventSessionReplacedData struct {
	Username string `json:"username"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
