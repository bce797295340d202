package dispatch

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInlineRunsSynchronously(t *testing.T) {
	ran := false
	Inline{}.Execute(func() { ran = true })
	assert.True(t, ran)
}

func TestPoolRunsQueuedWork(t *testing.T) {
	p := NewPool(2, 8)
	defer p.Close()

	var n int32
	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 5; i++ {
		p.Execute(func() {
			atomic.AddInt32(&n, 1)
			wg.Done()
		})
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pool to run queued work")
	}
	assert.EqualValues(t, 5, atomic.LoadInt32(&n))
}

func TestPoolDropsWhenQueueFull(t *testing.T) {
	block := make(chan struct{})
	p := NewPool(1, 1)
	defer func() {
		close(block)
		p.Close()
	}()

	// Occupy the single worker so the queue backs up.
	p.Execute(func() { <-block })

	var accepted int32
	for i := 0; i < 10; i++ {
		acceptedBefore := atomic.LoadInt32(&accepted)
		p.Execute(func() { atomic.AddInt32(&accepted, 1) })
		_ = acceptedBefore
	}
	// With the worker blocked and a queue depth of 1, at most one of the
	// ten extra jobs can have been accepted; Execute must not block the
	// caller regardless.
	assert.LessOrEqual(t, atomic.LoadInt32(&accepted), int32(1))
}

func TestNewPoolClampsMinimums(t *testing.T) {
	p := NewPool(0, 0)
	defer p.Close()
	assert.NotNil(t, p)
}
