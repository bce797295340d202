package reactormq

import (
	"bytes"
	"testing"
	"time"

	"github.com/reactormq/reactormq/internal/packets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyFixture(t *testing.T) (*Context, *fakeSocket) {
	t.Helper()
	settings := testSettings()
	sock := newFakeSocket()
	ctx := newContext(settings, newFakeSocketFactory(sock))
	ctx.socket = sock
	return ctx, sock
}

func TestReadyStateHandlePublishQoS0CompletesImmediately(t *testing.T) {
	ctx, sock := readyFixture(t)
	s := newReadyState()

	tok := newToken()
	s.handleCommand(ctx, publishCommand{topic: "t", payload: []byte("hi"), qos: 0, token: tok})

	require.NoError(t, tok.Error())
	assert.Equal(t, 1, sock.sentCount())
	assert.Empty(t, ctx.pendingPublishes)
}

func TestReadyStateHandlePublishQoS1WaitsForAck(t *testing.T) {
	ctx, sock := readyFixture(t)
	s := newReadyState()

	tok := newToken()
	s.handleCommand(ctx, publishCommand{topic: "t", payload: []byte("hi"), qos: 1, token: tok})

	select {
	case <-tok.Done():
		t.Fatal("token should not resolve before PUBACK arrives")
	default:
	}
	require.Len(t, ctx.pendingPublishes, 1)
	assert.Equal(t, 1, sock.sentCount())
}

func TestReadyStateResolvePublishAckCompletesTokenAndFreesPacketID(t *testing.T) {
	ctx, _ := readyFixture(t)
	s := newReadyState()

	tok := newToken()
	id, _ := ctx.packetIDs.acquire()
	ctx.pendingPublishes[id] = &publishCommand{token: tok}

	s.resolvePublishAck(ctx, id)

	assert.NoError(t, tok.Error())
	assert.Empty(t, ctx.pendingPublishes)
	assert.Equal(t, 0, ctx.packetIDs.len())
}

func TestReadyStateHandleIncomingPublishQoS1AcksAndDedupes(t *testing.T) {
	ctx, sock := readyFixture(t)
	s := newReadyState()

	var delivered int
	ctx.delegates.onMessage = func(Message) { delivered++ }

	p := &packets.PublishPacket{Topic: "t", Payload: []byte("x"), QoS: 1, PacketID: 5}
	s.handleIncomingPublish(ctx, p)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, sock.sentCount())

	pkt, err := packets.ReadPacket(bytes.NewReader(sock.lastSent()), ProtocolV50, 0)
	require.NoError(t, err)
	puback, ok := pkt.(*packets.PubackPacket)
	require.True(t, ok)
	assert.Equal(t, uint16(5), puback.PacketID)

	// incomingPacketIDs is cleared right after the PUBACK is sent, so a
	// same-id redelivery right after is treated as fresh, not a duplicate.
	s.handleIncomingPublish(ctx, p)
	assert.Equal(t, 2, delivered)
}

func TestReadyStateHandleIncomingPublishQoS2StagesUntilPubrel(t *testing.T) {
	ctx, sock := readyFixture(t)
	s := newReadyState()

	var delivered int
	ctx.delegates.onMessage = func(Message) { delivered++ }

	p := &packets.PublishPacket{Topic: "t", Payload: []byte("x"), QoS: 2, PacketID: 9}
	s.handleIncomingPublish(ctx, p)

	assert.Equal(t, 0, delivered, "QoS2 delivery waits for PUBREL")
	require.Contains(t, ctx.pendingIncomingQoS2, uint16(9))
	assert.Equal(t, 1, sock.sentCount(), "PUBREC should have been sent")

	tr := s.dispatchPacket(ctx, &packets.PubrelPacket{PacketID: 9})
	assert.False(t, tr.isTransition())
	assert.Equal(t, 1, delivered)
	assert.NotContains(t, ctx.pendingIncomingQoS2, uint16(9))
	assert.Equal(t, 2, sock.sentCount(), "PUBCOMP should have been sent")
}

func TestReadyStateDisconnectCommandGoesToClosing(t *testing.T) {
	ctx, _ := readyFixture(t)
	s := newReadyState()

	tok := newToken()
	tr := s.handleCommand(ctx, disconnectCommand{token: tok, opts: DisconnectOptions{}})

	require.True(t, tr.isTransition())
	assert.Equal(t, "Closing", tr.next.name())
}

func TestReadyStateKeepaliveSendsPingThenDisconnectsOnUnresponsiveBroker(t *testing.T) {
	ctx, sock := readyFixture(t)
	ctx.settings.KeepAlive = 10 * time.Millisecond
	ctx.recordActivity()
	s := newReadyState()

	s.checkKeepalive(ctx, ctx.lastActivity.Add(15*time.Millisecond))
	assert.True(t, ctx.pingPending)
	assert.Equal(t, 1, sock.sentCount())

	s.checkKeepalive(ctx, ctx.lastActivity.Add(50*time.Millisecond))
	require.Len(t, sock.disconnects, 1)
	assert.False(t, sock.disconnects[0])
}

func TestReadyStateCheckPublishTimeoutsFailsToken(t *testing.T) {
	ctx, _ := readyFixture(t)
	s := newReadyState()

	tok := newToken()
	id, _ := ctx.packetIDs.acquire()
	ctx.pendingPublishes[id] = &publishCommand{token: tok}
	ctx.publishSentTimes[id] = time.Now().Add(-publishTimeout - time.Second)

	s.checkPublishTimeouts(ctx, time.Now())

	assert.Equal(t, ErrPublishTimeout, tok.Error())
	assert.Empty(t, ctx.pendingPublishes)
}

func TestReadyStateOnSocketDisconnectedGoesToDisconnected(t *testing.T) {
	ctx, _ := readyFixture(t)
	s := newReadyState()

	tr := s.onSocketDisconnected(ctx, false)
	require.True(t, tr.isTransition())
	assert.Equal(t, "Disconnected", tr.next.name())
}
