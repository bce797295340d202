package reactormq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSubscribeAckV5GrantedAndFailed(t *testing.T) {
	filters := []subscribeFilter{{filter: "a/1", qos: 1}, {filter: "a/2", qos: 2}}
	codes := []uint8{0x01, 0x80}

	results := resolveSubscribeAck(ProtocolV50, filters, codes)
	assert.True(t, results[0].Success)
	assert.Equal(t, uint8(1), results[0].QoS)
	assert.False(t, results[1].Success)
	assert.True(t, anySubscribeFailed(results))
}

func TestResolveSubscribeAckV311TreatsOnly0x80AsFailure(t *testing.T) {
	filters := []subscribeFilter{{filter: "a/1"}}
	codes := []uint8{0x02}

	results := resolveSubscribeAck(ProtocolV311, filters, codes)
	assert.True(t, results[0].Success)
	assert.False(t, anySubscribeFailed(results))
}

func TestResolveUnsubscribeAckV311AlwaysSucceeds(t *testing.T) {
	results := resolveUnsubscribeAck(ProtocolV311, []string{"a/1", "a/2"}, nil)
	assert.Len(t, results, 2)
	assert.False(t, anySubscribeFailed(results))
}

func TestResolveUnsubscribeAckV5HonorsReasonCodes(t *testing.T) {
	results := resolveUnsubscribeAck(ProtocolV50, []string{"a/1", "a/2"}, []uint8{0x00, 0x8F})
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.True(t, anySubscribeFailed(results))
}
