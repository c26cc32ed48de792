package workerpool_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multidelivery/painel/pkg/workerpool"
)

// Event listeners for a burst of new orders all run.
func TestSubmitWaitRunsEveryTask(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Shutdown()

	const pedidos = 100
	var delivered atomic.Int64
	var wg sync.WaitGroup
	wg.Add(pedidos)

	for range pedidos {
		require.NoError(t, pool.SubmitWait(func() {
			defer wg.Done()
			delivered.Add(1)
		}))
	}

	wg.Wait()
	assert.EqualValues(t, pedidos, delivered.Load())
}

func TestSubmitRejectsWhenQueueIsFull(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	blocker := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.SubmitWait(func() {
		close(started)
		<-blocker
	}))
	<-started

	// One worker buffers two tasks.
	require.NoError(t, pool.Submit(func() {}))
	require.NoError(t, pool.Submit(func() {}))
	assert.Equal(t, 2, pool.Pending())

	assert.ErrorIs(t, pool.Submit(func() {}), workerpool.ErrPoolFull)
	close(blocker)
}

func TestSubmitAfterShutdown(t *testing.T) {
	pool := workerpool.New(2)
	pool.Shutdown()

	assert.ErrorIs(t, pool.Submit(func() {}), workerpool.ErrPoolClosed)
	assert.ErrorIs(t, pool.SubmitWait(func() {}), workerpool.ErrPoolClosed)
}

// A listener that panics must not take its worker down with it.
func TestPanickingTaskKeepsWorkerAlive(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	require.NoError(t, pool.SubmitWait(func() { panic("listener quebrou") }))

	next := make(chan struct{})
	require.NoError(t, pool.SubmitWait(func() { close(next) }))

	select {
	case <-next:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panic")
	}
}

func TestShutdownDrainsQueuedTasks(t *testing.T) {
	pool := workerpool.New(1)

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.SubmitWait(func() {
		close(started)
		<-release
	}))
	<-started

	var ran atomic.Int32
	for range 2 {
		require.NoError(t, pool.Submit(func() { ran.Add(1) }))
	}

	close(release)
	pool.Shutdown()
	assert.EqualValues(t, 2, ran.Load())
}
