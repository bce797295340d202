package reactormq

import (
	"bytes"
	"testing"
	"time"

	"github.com/reactormq/reactormq/internal/packets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectingStateOnEnterCreatesSocketAndDials(t *testing.T) {
	settings := testSettings()
	sock := newFakeSocket()
	ctx := newContext(settings, newFakeSocketFactory(sock))

	s := newConnectingState(true, newToken())
	tr := s.onEnter(ctx)

	assert.False(t, tr.isTransition())
	assert.Same(t, sock, ctx.socket)
	assert.Equal(t, "broker.example:1883", sock.dialedAddr)
}

func TestConnectingStateOnSocketConnectedSendsConnectWithCredentials(t *testing.T) {
	settings := testSettings()
	settings.Credentials = staticCredentials{username: "alice", password: "secret"}
	sock := newFakeSocket()
	ctx := newContext(settings, newFakeSocketFactory(sock))
	ctx.socket = sock

	s := newConnectingState(true, newToken())
	tr := s.onSocketConnected(ctx, nil)

	require.False(t, tr.isTransition())
	require.Equal(t, 1, sock.sentCount())

	pkt, err := packets.ReadPacket(bytes.NewReader(sock.lastSent()), ProtocolV50, 0)
	require.NoError(t, err)
	connect, ok := pkt.(*packets.ConnectPacket)
	require.True(t, ok)
	assert.True(t, connect.UsernameFlag)
	assert.Equal(t, "alice", connect.Username)
	assert.True(t, connect.PasswordFlag)
	assert.False(t, s.handshakeDeadline.IsZero())
}

func TestConnectingStateOnSocketConnectedFailureFailsTokenAndGoesDisconnected(t *testing.T) {
	settings := testSettings()
	ctx := newContext(settings, newFakeSocketFactory(newFakeSocket()))

	tok := newToken()
	s := newConnectingState(true, tok)
	tr := s.onSocketConnected(ctx, assert.AnError)

	require.True(t, tr.isTransition())
	assert.Equal(t, "Disconnected", tr.next.name())
	assert.Equal(t, assert.AnError, tok.Error())
}

func TestConnectingStateConnackSuccessGoesReadyAndResetsFreshSession(t *testing.T) {
	settings := testSettings()
	ctx := newContext(settings, newFakeSocketFactory(newFakeSocket()))
	ctx.pendingPublishes[7] = &publishCommand{token: newToken()}

	tok := newToken()
	s := newConnectingState(true, tok)

	var buf bytes.Buffer
	_, err := (&packets.ConnackPacket{SessionPresent: false, ReturnCode: 0}).WriteTo(&buf)
	require.NoError(t, err)

	tr := s.onDataReceived(ctx, buf.Bytes())

	require.True(t, tr.isTransition())
	assert.Equal(t, "Ready", tr.next.name())
	assert.NoError(t, tok.Error())
	assert.Empty(t, ctx.pendingPublishes, "a fresh session (SessionPresent=false) should clear prior pending state")
}

func TestConnectingStateConnackSessionPresentKeepsPendingPublishes(t *testing.T) {
	settings := testSettings()
	ctx := newContext(settings, newFakeSocketFactory(newFakeSocket()))
	ctx.pendingPublishes[7] = &publishCommand{token: newToken()}

	tok := newToken()
	s := newConnectingState(false, tok)

	var buf bytes.Buffer
	_, err := (&packets.ConnackPacket{SessionPresent: true, ReturnCode: 0}).WriteTo(&buf)
	require.NoError(t, err)

	tr := s.onDataReceived(ctx, buf.Bytes())

	require.True(t, tr.isTransition())
	assert.Equal(t, "Ready", tr.next.name())
	assert.Len(t, ctx.pendingPublishes, 1, "a resumed session should retain publishes pending retransmission")
}

func TestConnectingStateHandshakeTimeout(t *testing.T) {
	settings := testSettings()
	ctx := newContext(settings, newFakeSocketFactory(newFakeSocket()))

	tok := newToken()
	s := newConnectingState(true, tok)
	s.handshakeDeadline = time.Now().Add(-time.Millisecond)

	tr := s.onTick(ctx, time.Now())

	require.True(t, tr.isTransition())
	assert.Equal(t, "Disconnected", tr.next.name())
	assert.Equal(t, ErrHandshakeTimeout, tok.Error())
}

func TestConnectingStateRejectsCommands(t *testing.T) {
	settings := testSettings()
	ctx := newContext(settings, newFakeSocketFactory(newFakeSocket()))
	s := newConnectingState(true, newToken())

	pubTok := newToken()
	tr := s.handleCommand(ctx, publishCommand{topic: "t", token: pubTok})

	assert.False(t, tr.isTransition())
	assert.Equal(t, ErrNotConnected, pubTok.Error())
}
