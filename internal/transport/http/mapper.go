package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeLogin:
		var login proto.LoginData
		if err := json.Unmarshal(inbound.Data, &login); err != nil {
			return nil, invalidData(inbound.Type, err)
		}
		if login.Protocol != 0 && login.Protocol != proto.ProtocolVersion {
			return nil, &proto.Error{
				Code: core.ErrCodeUnsupportedProtocol,
				Msg:  fmt.Sprintf("unsupported protocol version %d, server speaks %d", login.Protocol, proto.ProtocolVersion),
			}
		}
		return &core.Command{
			Kind:     core.CommandLogin,
			Username: strings.TrimSpace(login.Username),
			Password: login.Password,
		}, nil
	case proto.InboundTypeMessage:
		var msg proto.MessageData
		// Plain string payloads are accepted as the message text.
		if isJSONString(inbound.Data) {
			if err := json.Unmarshal(inbound.Data, &msg.Text); err != nil {
				return nil, invalidData(inbound.Type, err)
			}
		} else if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, invalidData(inbound.Type, err)
		}
		if strings.TrimSpace(msg.Text) == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "text is required"}
		}
		return &core.Command{Kind: core.CommandSendMessage, Text: msg.Text}, nil
	case proto.InboundTypeTyping:
		var typing proto.TypingData
		// Bare booleans are accepted as the isTyping flag.
		if err := json.Unmarshal(inbound.Data, &typing.IsTyping); err != nil {
			if err := json.Unmarshal(inbound.Data, &typing); err != nil {
				return nil, invalidData(inbound.Type, err)
			}
		}
		return &core.Command{Kind: core.CommandTyping, IsTyping: typing.IsTyping}, nil
	case proto.InboundTypeSetStatus:
		var data proto.SetStatusData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, invalidData(inbound.Type, err)
		}
		status := core.Status(strings.ToLower(strings.TrimSpace(data.Status)))
		if !status.Valid() {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: fmt.Sprintf("unknown status %q", data.Status)}
		}
		return &core.Command{Kind: core.CommandSetStatus, Status: status}, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unknown message type"}
	}
}

func invalidData(kind string, err error) *proto.Error {
	return &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: fmt.Sprintf("invalid %s payload: %v", kind, err)}
}

func isJSONString(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventUserList:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUserList,
			Data:  proto.EventUsers{Users: userStatuses(event.Users)},
		}
	case core.EventPresence:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUserStatuses,
			Data:  proto.EventUsers{Users: userStatuses(event.Users)},
		}
	case core.EventLoginError:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventLoginError,
			Data:  proto.EventLoginErrorData{Reason: event.Reason},
		}
	case core.EventHistory:
		messages := make([]proto.MessagePayload, 0, len(event.Messages))
		for _, msg := range event.Messages {
			messages = append(messages, eventMessage(msg))
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessageHistory,
			Data:  proto.EventHistory{Messages: messages},
		}
	case core.EventLoginSuccess:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventLoginSuccess,
			Data:  proto.EventLoginSuccessData{Username: event.User},
		}
	case core.EventMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessage,
			Data:  eventMessage(event.Message),
		}
	case core.EventTyping:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUserTyping,
			Data:  proto.UserTypingPayload{User: event.User, IsTyping: event.IsTyping},
		}
	case core.EventSessionReplaced:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventSessionReplaced,
			Data:  proto.EventSessionReplacedData{Username: event.User},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func eventMessage(msg core.Message) proto.MessagePayload {
	return proto.MessagePayload{
		ID:   msg.ID,
		User: msg.Author,
		Text: msg.Text,
		Time: msg.SentAt.UTC().Format(proto.TimeLayout),
	}
}

func userStatuses(users []core.Presence) []proto.UserStatus {
	out := make([]proto.UserStatus, 0, len(users))
	for _, u := range users {
		out = append(out, proto.UserStatus{Username: u.Username, Status: string(u.Status)})
	}
	return out
}
