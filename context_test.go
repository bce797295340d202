package reactormq

import (
	"bytes"
	"testing"

	"github.com/reactormq/reactormq/internal/packets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextSendTracksOutboundQueueBytes(t *testing.T) {
	settings := testSettings()
	ctx := newContext(settings, nil)
	sock := newFakeSocket()
	ctx.socket = sock

	require.NoError(t, ctx.send(&packets.PingreqPacket{}))
	assert.Equal(t, 0, ctx.outboundQueueSize, "outbound bytes should be credited back after the write completes")
	assert.Equal(t, 1, sock.sentCount())
}

func TestContextFeedReturnsOnePacketPerCompleteFrame(t *testing.T) {
	settings := testSettings()
	ctx := newContext(settings, nil)

	var buf bytes.Buffer
	_, err := (&packets.PingreqPacket{}).WriteTo(&buf)
	require.NoError(t, err)
	_, err = (&packets.PingrespPacket{}).WriteTo(&buf)
	require.NoError(t, err)

	full := buf.Bytes()

	// Feed everything except the last byte: the first frame is complete, the second is still partial.
	pkts, err := ctx.feed(full[:len(full)-1])
	require.NoError(t, err)
	assert.Len(t, pkts, 1, "the first complete frame should decode even though the second is still partial")

	pkts, err = ctx.feed(full[len(full)-1:])
	require.NoError(t, err)
	assert.Len(t, pkts, 1, "the trailing byte should complete the second frame")
}

func TestContextFeedSurfacesMalformedPacketError(t *testing.T) {
	settings := testSettings()
	ctx := newContext(settings, nil)

	// A PUBLISH fixed header claiming more remaining length than MaxIncomingPacket
	// allows the reader to reject outright rather than wait for more bytes.
	settings.MaxIncomingPacket = 4
	garbage := []byte{0x30, 0xFF, 0xFF, 0xFF, 0x7F}
	_, err := ctx.feed(garbage)
	assert.Error(t, err)
}

func TestContextResetSessionClearsPendingState(t *testing.T) {
	settings := testSettings()
	ctx := newContext(settings, nil)

	ctx.pendingPublishes[1] = &publishCommand{token: newToken()}
	ctx.incomingPacketIDs[2] = struct{}{}
	ctx.outboundQueueSize = 128
	ctx.packetIDs.acquire()

	ctx.resetSession()

	assert.Empty(t, ctx.pendingPublishes)
	assert.Empty(t, ctx.incomingPacketIDs)
	assert.Equal(t, 0, ctx.outboundQueueSize)
	assert.Equal(t, 0, ctx.packetIDs.len())
}

func TestContextCanAddToOutboundQueueRespectsBudget(t *testing.T) {
	settings := testSettings()
	settings.MaxOutboundQueueBytes = 10
	ctx := newContext(settings, nil)

	assert.True(t, ctx.canAddToOutboundQueue(10))
	assert.False(t, ctx.canAddToOutboundQueue(11))
	ctx.addToOutboundQueue(10)
	assert.False(t, ctx.canAddToOutboundQueue(1))
	ctx.subtractFromOutboundQueue(10)
	assert.True(t, ctx.canAddToOutboundQueue(10))
}
