package reactormq

// SocketCallbacks are the events a Socket reports back to whatever owns it.
// A Socket implementation must only invoke these from a single goroutine at
// a time per callback type is not required; the Reactor marshals every
// invocation onto its own command queue before acting on it, so Socket
// implementations may call back from any goroutine.
type SocketCallbacks struct {
	OnConnected    func(err error)
	OnDisconnected func(wasGraceful bool)
	OnDataReceived func(data []byte)
}

// Socket abstracts the byte-stream transport the reactor drives. The core
// never assumes TCP, TLS, or any particular dial semantics; it only needs
// connect/send/disconnect plus a tick it can call to let the socket make
// progress (e.g. drain a background reader).
type Socket interface {
	// SetCallbacks installs the callbacks the socket should invoke as
	// connection lifecycle and data events occur. The reactor calls it after
	// the state that created the socket has already called Connect, and again
	// after every later state transition.
	SetCallbacks(cb SocketCallbacks)

	// Connect begins an asynchronous connection attempt to addr. The result
	// is reported via the OnConnected callback, never returned directly.
	Connect(addr string) error

	// Send writes a fully-encoded packet's bytes to the transport.
	Send(data []byte) error

	// Disconnect closes the underlying connection. wasGraceful distinguishes
	// a deliberate close from a teardown following a failure.
	Disconnect(wasGraceful bool)

	// Tick gives the socket an opportunity to deliver buffered events
	// (e.g. drain a channel fed by a background reader goroutine) without
	// blocking. Called once per Reactor.Tick.
	Tick()
}

// SocketFactory constructs a fresh Socket for each connection attempt. The
// reactor calls it once per Connect command, and again for every automatic
// reconnect, since a Socket is not expected to be reusable after it reports
// a disconnection.
type SocketFactory interface {
	NewSocket() Socket
}

// SocketFactoryFunc adapts a function to SocketFactory.
type SocketFactoryFunc func() Socket

// NewSocket implements SocketFactory.
func (f SocketFactoryFunc) NewSocket() Socket {
	return f()
}
