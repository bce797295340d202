package reactormq

import (
	"bytes"
	"testing"
	"time"

	"github.com/reactormq/reactormq/internal/packets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClosingStateOnEnterSendsDisconnectAndClosesSocket(t *testing.T) {
	settings := testSettings()
	sock := newFakeSocket()
	ctx := newContext(settings, newFakeSocketFactory(sock))
	ctx.socket = sock

	tok := newToken()
	s := newClosingState(tok, DisconnectOptions{})
	s.onEnter(ctx)

	require.Equal(t, 1, sock.sentCount())
	pkt, err := packets.ReadPacket(bytes.NewReader(sock.lastSent()), ctx.protocolVersion, 0)
	require.NoError(t, err)
	_, ok := pkt.(*packets.DisconnectPacket)
	assert.True(t, ok)
	require.Len(t, sock.disconnects, 1)
	assert.True(t, sock.disconnects[0])
}

func TestClosingStateOnExitResolvesTokenAndFiresDisconnect(t *testing.T) {
	settings := testSettings()
	var gotGraceful *bool
	settings.OnConnectionLost = func(error) {}
	ctx := newContext(settings, newFakeSocketFactory(newFakeSocket()))
	ctx.delegates.onDisconnect = func(wasGraceful bool) { gotGraceful = &wasGraceful }

	tok := newToken()
	s := newClosingState(tok, DisconnectOptions{})
	s.onExit(ctx)

	require.NoError(t, tok.Error())
	require.NotNil(t, gotGraceful)
	assert.True(t, *gotGraceful)
}

func TestClosingStateOnTickForcesDisconnectPastDeadline(t *testing.T) {
	settings := testSettings()
	sock := newFakeSocket()
	ctx := newContext(settings, newFakeSocketFactory(sock))
	ctx.socket = sock

	s := &closingState{token: newToken(), deadline: time.Now().Add(-time.Millisecond)}
	tr := s.onTick(ctx, time.Now())

	require.True(t, tr.isTransition())
	assert.Equal(t, "Disconnected", tr.next.name())
	require.Len(t, sock.disconnects, 1)
}

func TestClosingStateRejectsCommandsExceptDisconnect(t *testing.T) {
	settings := testSettings()
	ctx := newContext(settings, newFakeSocketFactory(newFakeSocket()))
	s := newClosingState(newToken(), DisconnectOptions{})

	pubTok := newToken()
	s.handleCommand(ctx, publishCommand{topic: "t", token: pubTok})
	assert.Error(t, pubTok.Error())

	discTok := newToken()
	s.handleCommand(ctx, disconnectCommand{token: discTok})
	assert.NoError(t, discTok.Error())
}
