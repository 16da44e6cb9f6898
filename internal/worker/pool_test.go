package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcResult struct {
	value int
	err   error
}

func (r funcResult) GetError() error { return r.err }

// funcJob adapts a closure to Job
type funcJob func(ctx context.Context) Result

func (f funcJob) Execute(ctx context.Context) Result { return f(ctx) }

func sleepJob(d time.Duration, value int) Job {
	return funcJob(func(ctx context.Context) Result {
		select {
		case <-time.After(d):
			return funcResult{value: value}
		case <-ctx.Done():
			return funcResult{value: value, err: ctx.Err()}
		}
	})
}

func TestNewPool_ClampsWorkers(t *testing.T) {
	for in, want := range map[int]int{5: 5, 0: 1, -3: 1} {
		assert.Equal(t, want, NewPool(in).workers, "NewPool(%d)", in)
	}
}

func TestPool_RunsEverySubmittedJob(t *testing.T) {
	var ran atomic.Int32
	pool := NewPool(3)
	pool.Start()

	for i := 0; i < 25; i++ {
		require.True(t, pool.Submit(funcJob(func(context.Context) Result {
			ran.Add(1)
			return funcResult{}
		})))
	}

	assert.Len(t, pool.Wait(), 25)
	assert.EqualValues(t, 25, ran.Load())
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const workers = 4
	var inFlight, peak atomic.Int32

	pool := NewPool(workers)
	pool.Start()
	for i := 0; i < 40; i++ {
		pool.Submit(funcJob(func(context.Context) Result {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return funcResult{}
		}))
	}
	pool.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(workers))
	assert.Positive(t, peak.Load())
}

func TestPool_CollectsErrors(t *testing.T) {
	pool := NewPool(2)
	pool.Start()
	pool.Submit(funcJob(func(context.Context) Result { return funcResult{err: errors.New("search backend down")} }))
	pool.Submit(funcJob(func(context.Context) Result { return funcResult{} }))

	results := pool.Wait()
	require.Len(t, results, 2)

	failed := 0
	for _, r := range results {
		if r.GetError() != nil {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestPool_SubmitAfterShutdownReturnsFalse(t *testing.T) {
	pool := NewPool(1)
	pool.Start()
	pool.Shutdown()

	done := make(chan bool, 1)
	go func() { done <- pool.Submit(sleepJob(0, 0)) }()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Submit blocked after Shutdown")
	}
}

func TestPool_ShutdownCancelsRunningJob(t *testing.T) {
	pool := NewPool(1)
	pool.Start()

	started := make(chan struct{})
	pool.Submit(funcJob(func(ctx context.Context) Result {
		close(started)
		<-ctx.Done()
		return funcResult{err: ctx.Err()}
	}))
	<-started

	finished := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not return")
	}
	require.Len(t, pool.collected, 1)
	assert.ErrorIs(t, pool.collected[0].GetError(), context.Canceled)
}

func TestPool_MoreJobsThanBuffer(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	done := make(chan int, 1)
	go func() {
		for i := 0; i < 300; i++ {
			pool.Submit(sleepJob(0, i))
		}
		done <- len(pool.Wait())
	}()

	select {
	case n := <-done:
		assert.Equal(t, 300, n)
	case <-time.After(5 * time.Second):
		t.Fatal("pool deadlocked")
	}
}

func TestPoolContext_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPoolContext(ctx, 1)
	pool.Start()

	started := make(chan struct{})
	pool.Submit(funcJob(func(ctx context.Context) Result {
		close(started)
		<-ctx.Done()
		return funcResult{err: ctx.Err()}
	}))
	<-started
	cancel()

	results := pool.Wait()
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].GetError(), context.Canceled)
}

func TestRunOrdered(t *testing.T) {
	jobs := make([]Job, 8)
	for i := range jobs {
		// later jobs finish first
		jobs[i] = sleepJob(time.Duration(len(jobs)-i)*time.Millisecond, i)
	}

	results := RunOrdered(context.Background(), 4, jobs)
	require.Len(t, results, len(jobs))
	for i, r := range results {
		require.IsType(t, funcResult{}, r)
		assert.Equal(t, i, r.(funcResult).value)
	}

	assert.Empty(t, RunOrdered(context.Background(), 2, nil))
}

func TestRunOrdered_CancelledLeavesNilSlots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := RunOrdered(ctx, 1, []Job{sleepJob(0, 1), sleepJob(0, 2)})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Nil(t, r)
	}
}
