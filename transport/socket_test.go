package transport

import (
	"net"
	"testing"
	"time"

	"github.com/reactormq/reactormq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocketConnectSendReceive(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serverConnCh := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			serverConnCh <- conn
		}
	}()

	sock := NewSocket(&Dialer{}, 2*time.Second)

	connectedCh := make(chan error, 1)
	var received []byte
	dataCh := make(chan struct{}, 1)
	sock.SetCallbacks(reactormq.SocketCallbacks{
		OnConnected: func(err error) { connectedCh <- err },
		OnDataReceived: func(data []byte) {
			received = append(received, data...)
			dataCh <- struct{}{}
		},
	})

	require.NoError(t, sock.Connect(ln.Addr().String()))

	select {
	case err := <-connectedCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnConnected")
	}

	serverConn := <-serverConnCh
	defer serverConn.Close()

	require.NoError(t, sock.Send([]byte("ping")))
	buf := make([]byte, 4)
	_, err = serverConn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))

	_, err = serverConn.Write([]byte("pong"))
	require.NoError(t, err)

	select {
	case <-dataCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for buffered data")
	}
	sock.Tick()
	assert.Equal(t, "pong", string(received))
}

func TestSocketDisconnectReportsUngraceful(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serverConnCh := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			serverConnCh <- conn
		}
	}()

	sock := NewSocket(&Dialer{}, 2*time.Second)
	connectedCh := make(chan error, 1)
	disconnectedCh := make(chan bool, 1)
	sock.SetCallbacks(reactormq.SocketCallbacks{
		OnConnected:    func(err error) { connectedCh <- err },
		OnDisconnected: func(wasGraceful bool) { disconnectedCh <- wasGraceful },
	})
	require.NoError(t, sock.Connect(ln.Addr().String()))
	require.NoError(t, <-connectedCh)

	serverConn := <-serverConnCh
	serverConn.Close()

	select {
	case wasGraceful := <-disconnectedCh:
		assert.False(t, wasGraceful)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnDisconnected")
	}
}
