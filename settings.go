package reactormq

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"
)

// ContextDialer lets callers plug in custom network dialing logic (proxies,
// WebSocket-wrapped connections, Unix sockets) without the transport package
// depending on them.
type ContextDialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// DialFunc adapts a function to ContextDialer.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// DialContext implements ContextDialer.
func (f DialFunc) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	return f(ctx, network, addr)
}

// LimitPolicy determines how the engine enforces a server-advertised or
// self-imposed limit once it is reached.
type LimitPolicy int

const (
	// LimitPolicyIgnore logs a warning once per connection but keeps going.
	LimitPolicyIgnore LimitPolicy = iota

	// LimitPolicyStrict disconnects with the matching MQTT v5.0 reason code.
	LimitPolicyStrict
)

const (
	// ProtocolV311 is MQTT version 3.1.1.
	ProtocolV311 uint8 = 4
	// ProtocolV50 is MQTT version 5.0 (default).
	ProtocolV50 uint8 = 5
)

// willMessage is the Last Will and Testament carried in CONNECT.
type willMessage struct {
	Topic      string
	Payload    []byte
	QoS        uint8
	Retained   bool
	Properties *Properties
}

// Settings holds every tunable the engine and its default collaborators
// read. It is built from functional Options and never mutated after a
// Client is constructed.
type Settings struct {
	Host string
	Port int

	ClientID string

	Credentials   CredentialsProvider
	Authenticator Authenticator

	KeepAlive      time.Duration
	CleanSession   bool
	AutoReconnect  bool
	ConnectTimeout time.Duration

	TLSConfig *tls.Config
	Dialer    ContextDialer

	Logger           Logger
	CallbackExecutor CallbackExecutor
	socketFactory    SocketFactory

	MaxTopicLength        int
	MaxPayloadSize        int
	MaxIncomingPacket     int
	MaxPendingCommands    int
	MaxOutboundQueueBytes int

	will *willMessage

	OnConnect        func()
	OnConnectionLost func(error)
	OnServerRedirect func(serverURI string)

	ProtocolVersion uint8

	RequestProblemInformation  bool
	RequestResponseInformation bool
	TopicAliasMaximum          uint16
	ReceiveMaximum             uint16
	ReceiveMaximumPolicy       LimitPolicy
	SessionExpiryInterval      uint32
	SessionExpirySet           bool
	ConnectUserProperties      map[string]string

	DefaultPublishHandler MessageHandler

	// BackoffInitial, BackoffMax, and BackoffMultiplier parameterize the
	// reconnect Backoff. Zero values fall back to the Backoff defaults.
	BackoffInitial    time.Duration
	BackoffMax        time.Duration
	BackoffMultiplier float64
}

// Option configures Settings.
type Option func(*Settings)

// defaultSettings returns the engine defaults, mirroring MQTT spec defaults
// for anything left unconfigured.
func defaultSettings() *Settings {
	return &Settings{
		KeepAlive:          60 * time.Second,
		CleanSession:       true,
		AutoReconnect:      true,
		ConnectTimeout:     30 * time.Second,
		ProtocolVersion:    ProtocolV50,
		Logger:             noopLogger{},
		CallbackExecutor:   InlineExecutor{},
		MaxPendingCommands: 1024,
		BackoffInitial:     500 * time.Millisecond,
		BackoffMax:         60 * time.Second,
		BackoffMultiplier:  2.0,
	}
}

// WithClientID sets the MQTT client identifier.
func WithClientID(id string) Option {
	return func(s *Settings) { s.ClientID = id }
}

// WithServer sets the transport target. port defaults to 1883 (or 8883
// when TLSConfig is set) when 0.
func WithServer(host string, port int) Option {
	return func(s *Settings) {
		s.Host = host
		s.Port = port
	}
}

// dialAddr returns the host:port string the default transport dials.
func (s *Settings) dialAddr() string {
	port := s.Port
	if port == 0 {
		if s.TLSConfig != nil {
			port = 8883
		} else {
			port = 1883
		}
	}
	return net.JoinHostPort(s.Host, strconv.Itoa(port))
}

// WithCredentials sets a plain username/password CredentialsProvider.
func WithCredentials(username, password string) Option {
	return func(s *Settings) { s.Credentials = staticCredentials{username, password} }
}

// WithCredentialsProvider sets a custom CredentialsProvider.
func WithCredentialsProvider(p CredentialsProvider) Option {
	return func(s *Settings) { s.Credentials = p }
}

// WithAuthenticator enables MQTT v5.0 enhanced authentication.
func WithAuthenticator(a Authenticator) Option {
	return func(s *Settings) { s.Authenticator = a }
}

// WithKeepAlive sets the MQTT keepalive interval (default: 60s).
func WithKeepAlive(d time.Duration) Option {
	return func(s *Settings) { s.KeepAlive = d }
}

// WithCleanSession sets the clean start/session flag.
func WithCleanSession(clean bool) Option {
	return func(s *Settings) { s.CleanSession = clean }
}

// WithAutoReconnect enables or disables automatic reconnection (default: true).
func WithAutoReconnect(enable bool) Option {
	return func(s *Settings) { s.AutoReconnect = enable }
}

// WithConnectTimeout sets the CONNECT-to-CONNACK handshake deadline.
func WithConnectTimeout(d time.Duration) Option {
	return func(s *Settings) { s.ConnectTimeout = d }
}

// WithTLS stores a TLS configuration in Settings.TLSConfig. Its only effect
// is the default port (8883 instead of 1883); the transport package's
// Factory does not read Settings and dials TLS only through its own
// Dialer.TLSConfig or a tls://, ssl:// or mqtts:// address.
func WithTLS(config *tls.Config) Option {
	return func(s *Settings) { s.TLSConfig = config }
}

// WithDialer stores d in Settings.Dialer. Neither the reactor nor the
// transport package reads that field; the transport package's Factory takes
// a custom dial function through its own Dialer.Custom.
func WithDialer(d ContextDialer) Option {
	return func(s *Settings) { s.Dialer = d }
}

// WithSocketFactory installs the SocketFactory the reactor uses to build a
// fresh Socket for every connection attempt. Required: New itself accepts
// a missing factory, but the tick that processes the first Connect then
// panics when the Connecting state calls NewSocket on the nil factory.
func WithSocketFactory(f SocketFactory) Option {
	return func(s *Settings) { s.socketFactory = f }
}

// WithProtocolVersion selects ProtocolV50 (default) or ProtocolV311.
func WithProtocolVersion(version uint8) Option {
	return func(s *Settings) { s.ProtocolVersion = version }
}

// WithLogger installs a custom Logger.
func WithLogger(l Logger) Option {
	return func(s *Settings) { s.Logger = l }
}

// WithCallbackExecutor installs a custom CallbackExecutor.
func WithCallbackExecutor(e CallbackExecutor) Option {
	return func(s *Settings) { s.CallbackExecutor = e }
}

// WithWill sets the Last Will and Testament message.
func WithWill(topic string, payload []byte, qos uint8, retained bool, properties ...*Properties) Option {
	return func(s *Settings) {
		w := &willMessage{Topic: topic, Payload: payload, QoS: qos, Retained: retained}
		if len(properties) > 0 {
			w.Properties = properties[0]
		}
		s.will = w
	}
}

// WithOnConnect sets the hook invoked after every successful connect, initial or reconnect.
func WithOnConnect(fn func()) Option {
	return func(s *Settings) { s.OnConnect = fn }
}

// WithOnConnectionLost sets the hook invoked when the connection drops.
func WithOnConnectionLost(fn func(error)) Option {
	return func(s *Settings) { s.OnConnectionLost = fn }
}

// WithOnServerRedirect sets the hook invoked when the broker supplies a
// Server Reference (MQTT v5.0).
func WithOnServerRedirect(fn func(serverURI string)) Option {
	return func(s *Settings) { s.OnServerRedirect = fn }
}

// WithRequestProblemInformation requests detailed problem information in
// error responses (MQTT v5.0 only).
func WithRequestProblemInformation(request bool) Option {
	return func(s *Settings) { s.RequestProblemInformation = request }
}

// WithRequestResponseInformation requests a Response Information string in
// CONNACK (MQTT v5.0 only).
func WithRequestResponseInformation(request bool) Option {
	return func(s *Settings) { s.RequestResponseInformation = request }
}

// WithTopicAliasMaximum sets the maximum number of inbound topic aliases
// the client will accept (MQTT v5.0 only).
func WithTopicAliasMaximum(max uint16) Option {
	return func(s *Settings) { s.TopicAliasMaximum = max }
}

// WithReceiveMaximum bounds concurrent unacknowledged QoS 1/2 deliveries
// (MQTT v5.0 only).
func WithReceiveMaximum(max uint16, policy LimitPolicy) Option {
	return func(s *Settings) {
		s.ReceiveMaximum = max
		s.ReceiveMaximumPolicy = policy
	}
}

// WithSessionExpiryInterval sets how long the broker retains session state
// after disconnect (MQTT v5.0 only).
func WithSessionExpiryInterval(seconds uint32) Option {
	return func(s *Settings) {
		s.SessionExpiryInterval = seconds
		s.SessionExpirySet = true
	}
}

// WithConnectUserProperties sets CONNECT's User Properties (MQTT v5.0 only).
func WithConnectUserProperties(props map[string]string) Option {
	return func(s *Settings) {
		if s.ConnectUserProperties == nil {
			s.ConnectUserProperties = make(map[string]string)
		}
		for k, v := range props {
			s.ConnectUserProperties[k] = v
		}
	}
}

// WithDefaultPublishHandler sets the fallback handler for inbound PUBLISH
// packets matching no registered topic route.
func WithDefaultPublishHandler(handler MessageHandler) Option {
	return func(s *Settings) { s.DefaultPublishHandler = handler }
}

// WithBackoff overrides the reconnect Backoff parameters.
func WithBackoff(initial, max time.Duration, multiplier float64) Option {
	return func(s *Settings) {
		s.BackoffInitial = initial
		s.BackoffMax = max
		s.BackoffMultiplier = multiplier
	}
}

// WithLimits overrides the MQTT spec default limits for topic length,
// outgoing payload size, and incoming packet size. 0 keeps the default.
func WithLimits(maxTopicLength, maxPayloadSize, maxIncomingPacket int) Option {
	return func(s *Settings) {
		s.MaxTopicLength = maxTopicLength
		s.MaxPayloadSize = maxPayloadSize
		s.MaxIncomingPacket = maxIncomingPacket
	}
}

// DisconnectOptions configures a graceful disconnect.
type DisconnectOptions struct {
	ReasonCode uint8
	Properties *Properties
}

// DisconnectOption configures a DisconnectOptions.
type DisconnectOption func(*DisconnectOptions)

// WithReason sets the DISCONNECT reason code (MQTT v5.0 only).
func WithReason(code uint8) DisconnectOption {
	return func(o *DisconnectOptions) { o.ReasonCode = code }
}

// WithDisconnectProperties sets the DISCONNECT properties (MQTT v5.0 only).
func WithDisconnectProperties(props *Properties) DisconnectOption {
	return func(o *DisconnectOptions) { o.Properties = props }
}
