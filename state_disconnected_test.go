package reactormq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisconnectedStateSchedulesReconnectAfterUngracefulDrop(t *testing.T) {
	settings := testSettings()
	settings.AutoReconnect = true
	ctx := newContext(settings, newFakeSocketFactory(newFakeSocket()))

	s := newDisconnectedState(false)
	s.onEnter(ctx)

	assert.True(t, s.hasSchedule)
	assert.True(t, s.nextRetryTime.After(time.Now()))
}

func TestDisconnectedStateNoScheduleAfterGracefulClose(t *testing.T) {
	settings := testSettings()
	settings.AutoReconnect = true
	ctx := newContext(settings, newFakeSocketFactory(newFakeSocket()))

	s := newDisconnectedState(true)
	s.onEnter(ctx)

	assert.False(t, s.hasSchedule)
}

func TestDisconnectedStateOnTickFiresConnectOnceScheduleElapses(t *testing.T) {
	settings := testSettings()
	settings.AutoReconnect = true
	settings.BackoffInitial = time.Millisecond
	ctx := newContext(settings, newFakeSocketFactory(newFakeSocket()))

	s := newDisconnectedState(false)
	s.onEnter(ctx)
	require.True(t, s.hasSchedule)

	time.Sleep(5 * time.Millisecond)
	tr := s.onTick(ctx, time.Now())

	require.True(t, tr.isTransition())
	assert.Equal(t, "Connecting", tr.next.name())
	assert.False(t, s.hasSchedule)
}

func TestDisconnectedStateConnectCommandTransitionsToConnecting(t *testing.T) {
	settings := testSettings()
	ctx := newContext(settings, newFakeSocketFactory(newFakeSocket()))
	s := newDisconnectedState(true)

	tok := newToken()
	tr := s.handleCommand(ctx, connectCommand{cleanSession: true, token: tok})

	require.True(t, tr.isTransition())
	assert.Equal(t, "Connecting", tr.next.name())
}

func TestDisconnectedStateRejectsOtherCommands(t *testing.T) {
	settings := testSettings()
	ctx := newContext(settings, newFakeSocketFactory(newFakeSocket()))
	s := newDisconnectedState(true)

	tok := newToken()
	tr := s.handleCommand(ctx, publishCommand{topic: "t", token: tok})

	assert.False(t, tr.isTransition())
	assert.Equal(t, ErrNotConnected, tok.Error())
}
