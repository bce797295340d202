package reactormq

import (
	"context"
	"time"
)

// tickInterval is how often Run ticks the reactor. Small enough that keepalive and publish-timeout
// supervision stay responsive; large enough not to burn a core spinning.
const tickInterval = 10 * time.Millisecond

// Client is the public facade over a Reactor: it translates blocking-style
// calls (Publish, Subscribe, ...) into commands on the reactor's queue and
// hands back a Token the caller can wait on.
type Client struct {
	reactor *Reactor
}

// New constructs a Client. It does not connect; call Connect (or Run, which
// a caller typically pairs with an initial Connect) to begin a session.
// New installs no default socket factory: without WithSocketFactory the
// first connection attempt panics when the Connecting state asks the nil
// factory for a Socket.
func New(opts ...Option) *Client {
	settings := defaultSettings()
	for _, opt := range opts {
		opt(settings)
	}
	return &Client{reactor: NewReactor(settings, settings.socketFactory)}
}

// Run repeatedly ticks the reactor until ctx is cancelled. It is meant to
// run on its own goroutine; every other Client method is safe to call
// concurrently with it.
func (c *Client) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.reactor.Tick()
		}
	}
}

// Connect asynchronously starts (or restarts) the connection sequence.
func (c *Client) Connect(cleanSession bool) Token {
	tok := newToken()
	c.reactor.enqueue(connectCommand{cleanSession: cleanSession, token: tok})
	return tok
}

// Publish sends a message, returning a Token resolved once the delivery
// guarantee for qos has been satisfied (immediately for QoS 0).
func (c *Client) Publish(topic string, payload []byte, qos QoS, retained bool, properties ...*Properties) Token {
	tok := newToken()
	var props *Properties
	if len(properties) > 0 {
		props = properties[0]
	}
	if err := validatePublishTopic(topic, c.reactor.ctx.settings.MaxTopicLength); err != nil {
		tok.complete(err)
		return tok
	}
	if err := validatePayload(payload, c.reactor.ctx.settings.MaxPayloadSize); err != nil {
		tok.complete(err)
		return tok
	}
	c.reactor.enqueue(publishCommand{
		topic:      topic,
		payload:    payload,
		qos:        uint8(qos),
		retained:   retained,
		properties: props,
		token:      tok,
	})
	return tok
}

// Subscribe registers handler for every inbound PUBLISH matching filter,
// once the broker grants the subscription.
func (c *Client) Subscribe(filter string, qos QoS, handler MessageHandler) Token {
	return c.SubscribeMany([]SubscribeFilter{{Filter: filter, QoS: qos, Handler: handler}})
}

// SubscribeFilter is one entry of a (possibly batched) Subscribe call.
type SubscribeFilter struct {
	Filter  string
	QoS     QoS
	Handler MessageHandler
}

// SubscribeMany issues a single SUBSCRIBE packet covering every filter.
func (c *Client) SubscribeMany(filters []SubscribeFilter) Token {
	tok := newToken()
	maxLen := c.reactor.ctx.settings.MaxTopicLength
	internal := make([]subscribeFilter, 0, len(filters))
	for _, f := range filters {
		if err := validateSubscribeTopic(f.Filter, maxLen); err != nil {
			tok.complete(err)
			return tok
		}
		internal = append(internal, subscribeFilter{filter: f.Filter, qos: uint8(f.QoS), handler: f.Handler})
	}
	c.reactor.enqueue(subscribeCommand{filters: internal, token: tok})
	return tok
}

// Unsubscribe removes one or more topic filters.
func (c *Client) Unsubscribe(filters ...string) Token {
	tok := newToken()
	c.reactor.enqueue(unsubscribeCommand{filters: filters, token: tok})
	return tok
}

// Disconnect initiates a graceful close.
func (c *Client) Disconnect(opts ...DisconnectOption) Token {
	tok := newToken()
	var o DisconnectOptions
	for _, opt := range opts {
		opt(&o)
	}
	c.reactor.enqueue(disconnectCommand{opts: o, token: tok})
	return tok
}

// OnConnect registers a delegate fired after every successful connect
// (initial or reconnect), in addition to any WithOnConnect hook.
func (c *Client) OnConnect(fn func(success bool)) {
	c.reactor.ctx.delegates.onConnect = fn
}

// OnDisconnect registers a delegate fired whenever the connection ends.
func (c *Client) OnDisconnect(fn func(wasGraceful bool)) {
	c.reactor.ctx.delegates.onDisconnect = fn
}

// OnMessage registers the generic inbound-message delegate, fired for
// every PUBLISH regardless of topic-route registration.
func (c *Client) OnMessage(fn func(msg Message)) {
	c.reactor.ctx.delegates.onMessage = fn
}

// State reports the reactor's current lifecycle state name, mainly useful
// in tests.
func (c *Client) State() string {
	return c.reactor.stateName()
}
