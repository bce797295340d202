package reactormq

import (
	"time"

	"github.com/reactormq/reactormq/internal/packets"
)

const closeDeadline = 5 * time.Second

// closingState drives a graceful shutdown: send DISCONNECT, ask the socket
// to close, and wait (bounded) for confirmation before falling back to
// Disconnected regardless.
type closingState struct {
	baseState
	token    *token
	opts     DisconnectOptions
	deadline time.Time
}

func newClosingState(tok *token, opts DisconnectOptions) *closingState {
	return &closingState{token: tok, opts: opts}
}

func (s *closingState) name() string { return "Closing" }

func (s *closingState) onEnter(ctx *Context) transition {
	pkt := &packets.DisconnectPacket{
		ReasonCode: uint8(s.opts.ReasonCode),
		Properties: toInternalProperties(s.opts.Properties),
		Version:    ctx.protocolVersion,
	}
	_ = ctx.send(pkt)
	if ctx.socket != nil {
		ctx.socket.Disconnect(true)
	}
	s.deadline = time.Now().Add(closeDeadline)
	return stay()
}

func (s *closingState) onExit(ctx *Context) {
	s.token.complete(nil)
	ctx.fireOnDisconnect(true)
}

func (s *closingState) handleCommand(ctx *Context, cmd command) transition {
	if d, ok := cmd.(disconnectCommand); ok {
		d.token.complete(nil)
		return stay()
	}
	failCommandToken(cmd, &MqttError{Message: "cannot process command while closing"})
	return stay()
}

func (s *closingState) onSocketDisconnected(ctx *Context, wasGraceful bool) transition {
	return goTo(newDisconnectedState(true))
}

func (s *closingState) onTick(ctx *Context, now time.Time) transition {
	if now.Before(s.deadline) {
		return stay()
	}
	if ctx.socket != nil {
		ctx.socket.Disconnect(true)
	}
	return goTo(newDisconnectedState(true))
}
