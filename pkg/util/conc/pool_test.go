package conc

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolSubmit(t *testing.T) {
	pool, err := NewPool[int](4)
	require.NoError(t, err)
	defer pool.Release()
	assert.Equal(t, 4, pool.Cap())

	futures := make([]*Future[int], 0, 16)
	for i := 0; i < 16; i++ {
		futures = append(futures, pool.Submit(func() (int, error) {
			return i * i, nil
		}))
	}
	require.NoError(t, AwaitAll(futures...))
	for i, f := range futures {
		assert.True(t, f.Done())
		assert.Equal(t, i*i, f.Value())
	}
}

func TestPoolSubmitError(t *testing.T) {
	pool, err := NewPool[struct{}](1)
	require.NoError(t, err)
	defer pool.Release()

	boom := errors.New("boom")
	f := pool.Submit(func() (struct{}, error) { return struct{}{}, boom })
	assert.ErrorIs(t, f.Err(), boom)
	assert.ErrorIs(t, AwaitAll(f), boom)
}

func TestPoolConcealPanic(t *testing.T) {
	var handled atomic.Int32
	pool, err := NewPool[int](1, WithConcealPanic(true), WithPanicHandler(func(any) {
		handled.Add(1)
	}))
	require.NoError(t, err)
	defer pool.Release()

	f := pool.Submit(func() (int, error) { panic("bad record") })
	assert.ErrorContains(t, f.Err(), "bad record")
	assert.Eventually(t, func() bool { return handled.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestPoolPreHandler(t *testing.T) {
	var calls atomic.Int32
	pool, err := NewPool[int](2, WithPreHandler(func() { calls.Add(1) }))
	require.NoError(t, err)
	defer pool.Release()

	require.NoError(t, AwaitAll(
		pool.Submit(func() (int, error) { return 1, nil }),
		pool.Submit(func() (int, error) { return 2, nil }),
	))
	assert.EqualValues(t, 2, calls.Load())
}

func TestGo(t *testing.T) {
	f := Go(func() (string, error) { return "done", nil })
	v, err := f.Await()
	assert.NoError(t, err)
	assert.Equal(t, "done", v)
	<-f.Inner()
}
