package reactormq

import "sync"

// fakeSocket is a deterministic, in-memory Socket double. Connect and
// Disconnect never fire callbacks synchronously; tests drive the lifecycle
// explicitly by calling completeConnect/deliver/completeDisconnect, so a
// test can assert on reactor state in between installing callbacks and the
// socket actually reporting anything back.
type fakeSocket struct {
	mu sync.Mutex

	dialedAddr string
	sent       [][]byte
	cb         SocketCallbacks
	disconnects []bool
}

func newFakeSocket() *fakeSocket { return &fakeSocket{} }

func (s *fakeSocket) SetCallbacks(cb SocketCallbacks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cb = cb
}

func (s *fakeSocket) Connect(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialedAddr = addr
	return nil
}

func (s *fakeSocket) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.sent = append(s.sent, cp)
	return nil
}

func (s *fakeSocket) Disconnect(wasGraceful bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects = append(s.disconnects, wasGraceful)
}

func (s *fakeSocket) Tick() {}

// callbacksInstalled reports whether SetCallbacks has run against this
// socket, independent of whether any event has actually been delivered.
func (s *fakeSocket) callbacksInstalled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cb.OnConnected != nil
}

func (s *fakeSocket) completeConnect(err error) {
	s.mu.Lock()
	cb := s.cb
	s.mu.Unlock()
	if cb.OnConnected != nil {
		cb.OnConnected(err)
	}
}

func (s *fakeSocket) deliver(data []byte) {
	s.mu.Lock()
	cb := s.cb
	s.mu.Unlock()
	if cb.OnDataReceived != nil {
		cb.OnDataReceived(data)
	}
}

func (s *fakeSocket) completeDisconnect(wasGraceful bool) {
	s.mu.Lock()
	cb := s.cb
	s.mu.Unlock()
	if cb.OnDisconnected != nil {
		cb.OnDisconnected(wasGraceful)
	}
}

func (s *fakeSocket) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *fakeSocket) lastSent() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return nil
	}
	return s.sent[len(s.sent)-1]
}

// fakeSocketFactory hands out a single pre-built fakeSocket, so a test can
// keep a reference to it before the reactor ever calls NewSocket.
type fakeSocketFactory struct {
	socket *fakeSocket
}

func newFakeSocketFactory(s *fakeSocket) *fakeSocketFactory {
	return &fakeSocketFactory{socket: s}
}

func (f *fakeSocketFactory) NewSocket() Socket { return f.socket }
