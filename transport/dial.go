// Package transport provides the default TCP/TLS reactormq.Socket. It
// depends on the root reactormq package for the Socket/SocketCallbacks
// contract; reactormq never imports transport back, so callers wire a
// factory in explicitly via reactormq.WithSocketFactory.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"

	"github.com/reactormq/reactormq"
)

// DialString resolves addr into a network and host:port pair, applying
// scheme-based default ports when addr carries no explicit port:
// tcp:// and mqtt:// default to 1883, tls://, ssl://, and mqtts:// default
// to 8883. A bare "host:port" or "host" with no scheme is treated as tcp.
func DialString(addr string) (network, hostport string, useTLS bool, err error) {
	u, err := url.Parse(addr)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "tcp", addr, false, nil
	}

	switch u.Scheme {
	case "tls", "ssl", "mqtts":
		useTLS = true
	case "tcp", "mqtt":
		useTLS = false
	default:
		return "", "", false, fmt.Errorf("transport: unsupported scheme %q (want tcp, mqtt, tls, ssl, mqtts)", u.Scheme)
	}

	host := u.Host
	if u.Port() == "" {
		if useTLS {
			host = net.JoinHostPort(host, "8883")
		} else {
			host = net.JoinHostPort(host, "1883")
		}
	}
	return "tcp", host, useTLS, nil
}

// Dialer establishes the raw net.Conn for a connection attempt, wrapping
// either a plain net.Dialer or a tls.Dialer depending on scheme/config.
type Dialer struct {
	TLSConfig *tls.Config
	Custom    reactormq.ContextDialer
}

func (d *Dialer) dial(ctx context.Context, addr string) (net.Conn, error) {
	if d.Custom != nil {
		return d.Custom.DialContext(ctx, "tcp", addr)
	}

	network, hostport, useTLS, err := DialString(addr)
	if err != nil {
		return nil, err
	}
	if useTLS || d.TLSConfig != nil {
		cfg := d.TLSConfig
		if cfg == nil {
			cfg = &tls.Config{}
		}
		td := &tls.Dialer{NetDialer: &net.Dialer{}, Config: cfg}
		return td.DialContext(ctx, network, hostport)
	}
	var nd net.Dialer
	return nd.DialContext(ctx, network, hostport)
}
