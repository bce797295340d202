package reactormq

import (
	"bytes"
	"errors"
	"io"
	"time"

	"github.com/reactormq/reactormq/internal/packets"
)

// delegates holds the user-visible callbacks a Context fans commands and
// incoming packets out to: one function per event, and registering again
// replaces the previous one. Every invocation is wrapped by the
// configured CallbackExecutor before it runs.
type delegates struct {
	onConnect    func(success bool)
	onDisconnect func(wasGraceful bool)
	onMessage    func(msg Message)
}

// Context is the mutable per-connection state the reactor's states read and
// write. It is owned entirely by the reactor goroutine except for the
// packet-id pool, which user goroutines may touch indirectly by enqueueing
// commands.
type Context struct {
	socket        Socket
	socketFactory SocketFactory
	settings      *Settings
	logger        Logger

	protocolVersion uint8
	assignedClientID string

	packetIDs *packetIDPool

	pendingPublishes    map[uint16]*publishCommand
	pendingSubscribes   map[uint16]*subscribeCommand
	pendingUnsubscribes map[uint16]*unsubscribeCommand

	pendingIncomingQoS2 map[uint16]Message
	incomingPacketIDs   map[uint16]struct{}

	publishSentTimes map[uint16]time.Time

	lastActivity time.Time
	pingPending  bool

	outboundQueueSize int

	delegates delegates
	routes    routeTable

	inBuf []byte

	backoff *backoff
}

func newContext(settings *Settings, factory SocketFactory) *Context {
	return &Context{
		socketFactory:       factory,
		settings:            settings,
		logger:              settings.Logger,
		protocolVersion:     settings.ProtocolVersion,
		packetIDs:           newPacketIDPool(),
		pendingPublishes:    make(map[uint16]*publishCommand),
		pendingSubscribes:   make(map[uint16]*subscribeCommand),
		pendingUnsubscribes: make(map[uint16]*unsubscribeCommand),
		pendingIncomingQoS2: make(map[uint16]Message),
		incomingPacketIDs:   make(map[uint16]struct{}),
		publishSentTimes:    make(map[uint16]time.Time),
		backoff:             newBackoff(settings.BackoffInitial, settings.BackoffMax, settings.BackoffMultiplier),
	}
}

// recordActivity stamps the last-activity clock, used by keepalive tracking.
func (c *Context) recordActivity() {
	c.lastActivity = time.Now()
}

// pendingCommandsCount is the count against which WithMaxPendingCommands is
// enforced: every outstanding publish, subscribe, and unsubscribe.
func (c *Context) pendingCommandsCount() int {
	return len(c.pendingPublishes) + len(c.pendingSubscribes) + len(c.pendingUnsubscribes)
}

func (c *Context) canAddPendingCommand() bool {
	max := c.settings.MaxPendingCommands
	if max <= 0 {
		return true
	}
	return c.pendingCommandsCount() < max
}

// canAddToOutboundQueue reports whether n more bytes fit under the
// configured outbound byte budget. A zero budget means unbounded.
func (c *Context) canAddToOutboundQueue(n int) bool {
	max := c.settings.MaxOutboundQueueBytes
	if max <= 0 {
		return true
	}
	return c.outboundQueueSize+n <= max
}

func (c *Context) addToOutboundQueue(n int) {
	c.outboundQueueSize += n
}

func (c *Context) subtractFromOutboundQueue(n int) {
	c.outboundQueueSize -= n
	if c.outboundQueueSize < 0 {
		c.outboundQueueSize = 0
	}
}

// send encodes and writes a packet to the current socket, accounting for
// outbound queue bytes around the write.
func (c *Context) send(pkt packets.Packet) error {
	var buf bytes.Buffer
	if _, err := pkt.WriteTo(&buf); err != nil {
		return err
	}
	n := buf.Len()
	c.addToOutboundQueue(n)
	defer c.subtractFromOutboundQueue(n)
	if err := c.socket.Send(buf.Bytes()); err != nil {
		return err
	}
	c.recordActivity()
	return nil
}

// feed appends freshly-received bytes to the inbound buffer and decodes as
// many complete packets as are now available, leaving any trailing partial
// packet buffered for the next call.
func (c *Context) feed(data []byte) ([]packets.Packet, error) {
	c.inBuf = append(c.inBuf, data...)

	var out []packets.Packet
	for len(c.inBuf) > 0 {
		r := bytes.NewReader(c.inBuf)
		pkt, err := packets.ReadPacket(r, c.protocolVersion, c.settings.MaxIncomingPacket)
		if err != nil {
			if isIncompleteRead(err) {
				break
			}
			return out, err
		}
		consumed := len(c.inBuf) - r.Len()
		c.inBuf = c.inBuf[consumed:]
		out = append(out, pkt)
	}
	return out, nil
}

func isIncompleteRead(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// resetSession discards every piece of per-session bookkeeping. Called on a
// clean-session (re)connect; a resumed session keeps pendingPublishes so
// they can be retransmitted with DUP=1.
func (c *Context) resetSession() {
	c.packetIDs.reset()
	c.pendingPublishes = make(map[uint16]*publishCommand)
	c.pendingSubscribes = make(map[uint16]*subscribeCommand)
	c.pendingUnsubscribes = make(map[uint16]*unsubscribeCommand)
	c.pendingIncomingQoS2 = make(map[uint16]Message)
	c.incomingPacketIDs = make(map[uint16]struct{})
	c.publishSentTimes = make(map[uint16]time.Time)
	c.outboundQueueSize = 0
	c.inBuf = nil
}

// dispatchMessage hands an inbound Message first to the generic on_message
// delegate, then to every matching route in the local topic route table,
// and to the default publish handler when no route matches.
func (c *Context) dispatchMessage(msg Message) {
	c.settings.CallbackExecutor.Execute(func() {
		if c.delegates.onMessage != nil {
			c.delegates.onMessage(msg)
		}
		c.routes.dispatch(msg)
		if c.settings.DefaultPublishHandler == nil {
			return
		}
		for _, r := range c.routes.routes {
			if MatchTopic(r.filter, msg.Topic) {
				return
			}
		}
		c.settings.DefaultPublishHandler(msg)
	})
}

func (c *Context) fireOnConnect(success bool) {
	c.settings.CallbackExecutor.Execute(func() {
		if c.delegates.onConnect != nil {
			c.delegates.onConnect(success)
		}
		if success && c.settings.OnConnect != nil {
			c.settings.OnConnect()
		}
	})
}

func (c *Context) fireOnDisconnect(wasGraceful bool) {
	c.settings.CallbackExecutor.Execute(func() {
		if c.delegates.onDisconnect != nil {
			c.delegates.onDisconnect(wasGraceful)
		}
		if !wasGraceful && c.settings.OnConnectionLost != nil {
			c.settings.OnConnectionLost(ErrConnectionInterrupted)
		}
	})
}
