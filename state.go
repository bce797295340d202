package reactormq

import "time"

// transition describes what a state hook wants to happen next: stay in the
// current state, or replace it with a new one. A nil State means "stay".
type transition struct {
	next state
}

func stay() transition { return transition{} }

func goTo(s state) transition { return transition{next: s} }

func (t transition) isTransition() bool { return t.next != nil }

// state is the seven-hook contract every reactor state implements. Every
// hook except onExit returns a transition; the reactor chains transitions to a fixed
// point (on_enter of the new state may itself request another transition)
// before moving on.
type state interface {
	// name identifies the state for logging and tests.
	name() string

	onEnter(ctx *Context) transition
	onExit(ctx *Context)
	handleCommand(ctx *Context, cmd command) transition
	onSocketConnected(ctx *Context, err error) transition
	onSocketDisconnected(ctx *Context, wasGraceful bool) transition
	onDataReceived(ctx *Context, data []byte) transition
	onTick(ctx *Context, now time.Time) transition
}

// baseState provides no-op defaults for every hook; concrete states embed
// it and override only what they need, matching the source's
// intentionally-partial per-state overrides.
type baseState struct{}

func (baseState) onEnter(*Context) transition                           { return stay() }
func (baseState) onExit(*Context)                                       {}
func (baseState) handleCommand(*Context, command) transition            { return stay() }
func (baseState) onSocketConnected(*Context, error) transition          { return stay() }
func (baseState) onSocketDisconnected(*Context, bool) transition        { return stay() }
func (baseState) onDataReceived(*Context, []byte) transition            { return stay() }
func (baseState) onTick(*Context, time.Time) transition                 { return stay() }

// failCommandToken fails the token a command carries, if any, tolerating
// the inbound-ack pseudo-commands that carry no token.
func failCommandToken(cmd command, err error) {
	switch c := cmd.(type) {
	case connectCommand:
		c.token.complete(err)
	case publishCommand:
		c.token.complete(err)
	case subscribeCommand:
		c.token.complete(err)
	case unsubscribeCommand:
		c.token.complete(err)
	case disconnectCommand:
		c.token.complete(err)
	}
}
