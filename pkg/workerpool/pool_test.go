package workerpool_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perennia/storefront/pkg/workerpool"
)

func TestPool_SubmitAndExecute(t *testing.T) {
	pool := workerpool.New(4)

	const n = 100
	var count atomic.Int64
	for i := 0; i < n; i++ {
		require.NoError(t, pool.SubmitWait(func() { count.Add(1) }))
	}
	pool.Shutdown()

	assert.Equal(t, int64(n), count.Load())
}

func TestPool_ErrPoolFull(t *testing.T) {
	pool := workerpool.New(1)
	blocker := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, pool.SubmitWait(func() {
		close(started)
		<-blocker
	}))
	<-started

	require.NoError(t, pool.Submit(func() {}))
	require.NoError(t, pool.Submit(func() {}))
	assert.ErrorIs(t, pool.Submit(func() {}), workerpool.ErrPoolFull)

	close(blocker)
	pool.Shutdown()
}

func TestPool_ErrPoolClosed(t *testing.T) {
	pool := workerpool.New(2)
	pool.Shutdown()
	pool.Shutdown()

	assert.ErrorIs(t, pool.Submit(func() {}), workerpool.ErrPoolClosed)
	assert.ErrorIs(t, pool.SubmitWait(func() {}), workerpool.ErrPoolClosed)
}

func TestPool_PanicRecovery(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	var wg sync.WaitGroup
	wg.Add(1)
	_ = pool.SubmitWait(func() {
		defer wg.Done()
		panic("boom")
	})
	wg.Wait()

	done := make(chan struct{})
	_ = pool.SubmitWait(func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panic")
	}
}
