package reactormq

import (
	"sync"
	"time"
)

// Reactor drives the MQTT session: a single mutable current state, the
// shared Context, and a mutex-guarded command queue that arbitrary user
// goroutines may push into. Only Run's goroutine ever touches current or
// ctx directly; everything else communicates by enqueueing a command.
type Reactor struct {
	mu      sync.Mutex
	queue   []command

	current state
	ctx     *Context
}

// NewReactor builds a Reactor in the Disconnected state, ready to accept a
// Connect command.
func NewReactor(settings *Settings, factory SocketFactory) *Reactor {
	ctx := newContext(settings, factory)
	r := &Reactor{
		current: newDisconnectedState(true),
		ctx:     ctx,
	}
	r.current.onEnter(ctx)
	r.setupSocketCallbacks()
	return r
}

// enqueue pushes a command onto the queue. Safe to call from any goroutine.
func (r *Reactor) enqueue(cmd command) {
	r.mu.Lock()
	r.queue = append(r.queue, cmd)
	r.mu.Unlock()
}

// transitionTo runs current.onExit, swaps in next, and runs next.onEnter,
// chasing any transition onEnter itself requests to a fixed point. Socket
// callbacks are (re)installed after onEnter runs, since it is onEnter
// (Connecting's, in particular) that actually creates the socket for this
// state — wiring callbacks any earlier would target a nil or stale socket.
func (r *Reactor) transitionTo(next state) {
	for {
		r.current.onExit(r.ctx)
		r.ctx.logger.Debug("state transition", "from", r.current.name(), "to", next.name())
		r.current = next
		t := r.current.onEnter(r.ctx)
		r.setupSocketCallbacks()
		if !t.isTransition() {
			return
		}
		next = t.next
	}
}

func (r *Reactor) apply(t transition) {
	if t.isTransition() {
		r.transitionTo(t.next)
	}
}

// setupSocketCallbacks installs the reactor's callback shims on whatever
// socket the current state owns. Called on every transition since a fresh
// socket is created per connection attempt.
func (r *Reactor) setupSocketCallbacks() {
	sock := r.ctx.socket
	if sock == nil {
		return
	}
	sock.SetCallbacks(SocketCallbacks{
		OnConnected: func(err error) {
			r.apply(r.current.onSocketConnected(r.ctx, err))
		},
		OnDisconnected: func(wasGraceful bool) {
			if !wasGraceful {
				r.ctx.fireOnDisconnect(false)
			}
			r.apply(r.current.onSocketDisconnected(r.ctx, wasGraceful))
		},
		OnDataReceived: func(data []byte) {
			r.apply(r.current.onDataReceived(r.ctx, data))
		},
	})
}

// Tick drains the command queue into the current state, runs its on_tick,
// then advances the socket, applying any transition each step produces.
func (r *Reactor) Tick() {
	r.mu.Lock()
	pending := r.queue
	r.queue = nil
	r.mu.Unlock()

	for _, cmd := range pending {
		r.apply(r.current.handleCommand(r.ctx, cmd))
	}

	r.apply(r.current.onTick(r.ctx, time.Now()))

	if r.ctx.socket != nil {
		r.ctx.socket.Tick()
	}
}

// stateName reports the current state's name, for tests and diagnostics.
func (r *Reactor) stateName() string {
	return r.current.name()
}
