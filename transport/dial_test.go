package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialStringDefaultPorts(t *testing.T) {
	cases := []struct {
		addr     string
		network  string
		hostport string
		tls      bool
	}{
		{"tcp://broker.example:9000", "tcp", "broker.example:9000", false},
		{"mqtt://broker.example", "tcp", "broker.example:1883", false},
		{"tls://broker.example", "tcp", "broker.example:8883", true},
		{"ssl://broker.example:8884", "tcp", "broker.example:8884", true},
		{"mqtts://broker.example", "tcp", "broker.example:8883", true},
		{"localhost:1883", "tcp", "localhost:1883", false},
	}
	for _, c := range cases {
		network, hostport, useTLS, err := DialString(c.addr)
		require.NoError(t, err, c.addr)
		assert.Equal(t, c.network, network, c.addr)
		assert.Equal(t, c.hostport, hostport, c.addr)
		assert.Equal(t, c.tls, useTLS, c.addr)
	}
}

func TestDialStringUnsupportedScheme(t *testing.T) {
	_, _, _, err := DialString("ws://broker.example")
	assert.Error(t, err)
}
