package reactormq

import "time"

// disconnectedState is the idle/retry state. It owns the reconnect
// schedule: it is entered both on a clean initial start and every time the
// socket drops, and decides whether and when to synthesize the next
// reconnect attempt.
type disconnectedState struct {
	baseState
	wasGraceful   bool
	nextRetryTime time.Time
	hasSchedule   bool
}

func newDisconnectedState(wasGraceful bool) *disconnectedState {
	return &disconnectedState{wasGraceful: wasGraceful}
}

func (s *disconnectedState) name() string { return "Disconnected" }

func (s *disconnectedState) onEnter(ctx *Context) transition {
	ctx.socket = nil

	if ctx.settings.AutoReconnect && !s.wasGraceful {
		delay := ctx.backoff.next()
		s.nextRetryTime = time.Now().Add(delay)
		s.hasSchedule = true
		ctx.logger.Debug("scheduling reconnect", "delay", delay)
	}
	return stay()
}

func (s *disconnectedState) handleCommand(ctx *Context, cmd command) transition {
	switch c := cmd.(type) {
	case connectCommand:
		s.hasSchedule = false
		ctx.backoff.reset()
		return goTo(newConnectingState(c.cleanSession, c.token))
	case disconnectCommand:
		c.token.complete(nil)
		return stay()
	default:
		failCommandToken(cmd, ErrNotConnected)
		return stay()
	}
}

func (s *disconnectedState) onTick(ctx *Context, now time.Time) transition {
	if !s.hasSchedule {
		return stay()
	}
	if now.Before(s.nextRetryTime) {
		return stay()
	}
	s.hasSchedule = false
	return goTo(newConnectingState(ctx.settings.CleanSession, newToken()))
}
