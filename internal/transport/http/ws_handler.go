package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
	"github.com/vovakirdan/wirechat-relay/internal/utils"
)

var (
	errSessionReplaced = errors.New("session replaced")
	errHubStopped      = errors.New("server shutting down")
)

const flushTimeout = time.Second

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub *core.Hub
	cfg config.Config
	log *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, cfg config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, h.acceptOptions())
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	client := core.NewClient(utils.NewID(), h.cfg.ClientBuffer)
	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh

	status, reason := h.closeStatus(client, err)
	// Close while the read loop is still running so it consumes the peer's
	// close frame; cancelling first would drop the connection without one.
	conn.Close(status, reason)
	cancel()
	<-errCh
}

func (h *WSHandler) acceptOptions() *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{}
	for _, origin := range h.cfg.AllowedOrigins {
		if origin == "*" {
			opts.InsecureSkipVerify = true
			return opts
		}
	}
	opts.OriginPatterns = h.cfg.AllowedOrigins
	return opts
}

func (h *WSHandler) closeStatus(client *core.Client, err error) (websocket.StatusCode, string) {
	switch {
	case errors.Is(err, errSessionReplaced):
		return websocket.StatusPolicyViolation, errSessionReplaced.Error()
	case errors.Is(err, errHubStopped):
		return websocket.StatusGoingAway, errHubStopped.Error()
	}

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}
	return status, reason
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.cfg.RateLimitPerMinute, time.Minute)

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("read ws inbound")
			return err
		}

		if !limiter.allow(time.Now()) {
			if err := h.writeError(ctx, conn, &proto.Error{Code: core.ErrCodeRateLimited, Msg: "too many messages"}); err != nil {
				return err
			}
			continue
		}

		cmd, protoErr := inboundToCommand(inbound)
		if protoErr != nil {
			if err := h.writeError(ctx, conn, protoErr); err != nil {
				return err
			}
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-client.Done():
			return doneReason(client)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event := <-client.Events:
			if err := h.writeEvent(ctx, conn, client, event); err != nil {
				return err
			}
		case <-client.Done():
			// Deliver whatever the hub queued before letting go, such as
			// the sessionReplaced notice.
			flushCtx, cancel := context.WithTimeout(ctx, flushTimeout)
			err := h.flush(flushCtx, conn, client)
			cancel()
			if err != nil {
				return err
			}
			return doneReason(client)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) flush(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event := <-client.Events:
			if err := h.writeEvent(ctx, conn, client, event); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (h *WSHandler) writeEvent(ctx context.Context, conn *websocket.Conn, client *core.Client, event *core.Event) error {
	if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
		h.log.Debug().Err(err).Str("client_id", client.ID).Msg("write ws event")
		return err
	}
	return nil
}

func (h *WSHandler) writeError(ctx context.Context, conn *websocket.Conn, protoErr *proto.Error) error {
	return wsjson.Write(ctx, conn, proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: protoErr,
	})
}

func doneReason(client *core.Client) error {
	if client.Replaced() {
		return errSessionReplaced
	}
	return errHubStopped
}
