package transport

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	"github.com/reactormq/reactormq"
)

const readBufferSize = 4096

// Socket is the default reactormq.Socket, a thin non-blocking wrapper over
// net.Conn. Connect dials on its own goroutine and reports the outcome via
// OnConnected; a second goroutine blocks on reads and pushes raw bytes onto
// a channel that Tick drains without blocking, mirroring the teacher's
// readLoop/writeLoop split but leaving packet framing to the reactor side.
type Socket struct {
	dialer         *Dialer
	connectTimeout time.Duration

	mu       sync.Mutex
	conn     net.Conn
	writer   *bufio.Writer
	cb       reactormq.SocketCallbacks
	incoming chan []byte
	stop     chan struct{}
	closed   bool
}

// NewSocket builds a Socket dialing through dialer, bounding the connection
// attempt at connectTimeout (0 means no deadline).
func NewSocket(dialer *Dialer, connectTimeout time.Duration) *Socket {
	if dialer == nil {
		dialer = &Dialer{}
	}
	return &Socket{
		dialer:         dialer,
		connectTimeout: connectTimeout,
		incoming:       make(chan []byte, 64),
		stop:           make(chan struct{}),
	}
}

// SetCallbacks implements reactormq.Socket.
func (s *Socket) SetCallbacks(cb reactormq.SocketCallbacks) {
	s.mu.Lock()
	s.cb = cb
	s.mu.Unlock()
}

// Connect implements reactormq.Socket. It dials in a goroutine so the
// reactor's tick loop never blocks on network latency; the result surfaces
// through OnConnected, observed only from the tick thread as the engine
// requires.
func (s *Socket) Connect(addr string) error {
	go func() {
		ctx := context.Background()
		var cancel context.CancelFunc
		if s.connectTimeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, s.connectTimeout)
			defer cancel()
		}
		conn, err := s.dialer.dial(ctx, addr)
		s.mu.Lock()
		cb := s.cb
		if err == nil {
			s.conn = conn
			s.writer = bufio.NewWriter(conn)
		}
		s.mu.Unlock()
		if cb.OnConnected != nil {
			cb.OnConnected(err)
		}
		if err == nil {
			go s.readLoop(conn)
		}
	}()
	return nil
}

// readLoop blocks on conn.Read and forwards each chunk onto incoming. It
// exits once the connection errors or Disconnect closes it.
func (s *Socket) readLoop(conn net.Conn) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.incoming <- chunk:
			case <-s.stop:
				return
			}
		}
		if err != nil {
			s.teardown(false)
			return
		}
	}
}

// Send implements reactormq.Socket.
func (s *Socket) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer == nil {
		return reactormq.ErrNotConnected
	}
	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	return s.writer.Flush()
}

// Disconnect implements reactormq.Socket.
func (s *Socket) Disconnect(wasGraceful bool) {
	s.teardown(wasGraceful)
}

func (s *Socket) teardown(wasGraceful bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conn := s.conn
	cb := s.cb
	s.mu.Unlock()

	close(s.stop)
	if conn != nil {
		_ = conn.Close()
	}
	if cb.OnDisconnected != nil {
		cb.OnDisconnected(wasGraceful)
	}
}

// Tick implements reactormq.Socket: drains whatever the background reader
// has buffered, without blocking.
func (s *Socket) Tick() {
	s.mu.Lock()
	cb := s.cb
	s.mu.Unlock()
	if cb.OnDataReceived == nil {
		return
	}
	for {
		select {
		case chunk := <-s.incoming:
			cb.OnDataReceived(chunk)
		default:
			return
		}
	}
}

// Factory builds a fresh Socket for every connection attempt, as
// reactormq.SocketFactory requires.
type Factory struct {
	Dialer         *Dialer
	ConnectTimeout time.Duration
}

// NewFactory builds a Factory. dialer may be nil to use plain TCP with no
// custom dial logic.
func NewFactory(dialer *Dialer, connectTimeout time.Duration) *Factory {
	return &Factory{Dialer: dialer, ConnectTimeout: connectTimeout}
}

// NewSocket implements reactormq.SocketFactory.
func (f *Factory) NewSocket() reactormq.Socket {
	return NewSocket(f.Dialer, f.ConnectTimeout)
}
