package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_SubmitRunsTasks(t *testing.T) {
	p, err := New(context.Background(), "test", 4)
	require.NoError(t, err)
	defer p.Shutdown(time.Second)

	var (
		wg    sync.WaitGroup
		count atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(func(ctx context.Context) {
			defer wg.Done()
			count.Add(1)
		}))
	}
	wg.Wait()

	assert.Equal(t, int32(10), count.Load())
	assert.Equal(t, 4, p.Metrics()["cap"])
}

func TestPool_RecoversPanics(t *testing.T) {
	p, err := New(context.Background(), "test", 1)
	require.NoError(t, err)
	defer p.Shutdown(time.Second)

	require.NoError(t, p.Submit(func(ctx context.Context) {
		panic("boom")
	}))

	done := make(chan struct{})
	require.NoError(t, p.Submit(func(ctx context.Context) {
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool stopped running tasks after a panic")
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	p, err := New(context.Background(), "test", 1)
	require.NoError(t, err)
	p.Shutdown(time.Second)

	err = p.Submit(func(ctx context.Context) {})
	assert.ErrorIs(t, err, ErrPoolClosed)
}
