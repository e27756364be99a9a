package worker_test

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/neetprep/backend/internal/worker"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_RunsEveryJob(t *testing.T) {
	ctx := context.Background()
	p := worker.NewPool[int](ctx, 3, 10)

	var got []int
	done := make(chan struct{})
	go func() {
		for r := range p.Results() {
			got = append(got, r.Output)
		}
		close(done)
	}()

	for i := 1; i <= 20; i++ {
		n := i
		require.NoError(t, p.Submit(ctx, "job", func(context.Context) int { return n * n }))
	}
	p.Close()
	<-done

	sort.Ints(got)
	require.Len(t, got, 20)
	assert.Equal(t, 1, got[0])
	assert.Equal(t, 400, got[19])
}

func TestPool_SubmitAfterClose(t *testing.T) {
	ctx := context.Background()
	p := worker.NewPool[string](ctx, 1, 1)
	p.Close()
	p.Close()

	err := p.Submit(ctx, "late", func(context.Context) string { return "" })
	assert.ErrorIs(t, err, worker.ErrClosed)
}

func TestPool_SubmitHonoursContext(t *testing.T) {
	p := worker.NewPool[int](context.Background(), 1, 0)
	block := make(chan struct{})

	go func() {
		for range p.Results() {
		}
	}()
	require.NoError(t, p.Submit(context.Background(), "busy", func(context.Context) int { <-block; return 0 }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Submit(ctx, "queued", func(context.Context) int { return 1 })
	assert.ErrorIs(t, err, context.Canceled)

	close(block)
	p.Close()
}

func TestPool_RecoversPanics(t *testing.T) {
	ctx := context.Background()
	p := worker.NewPool[int](ctx, 1, 4)

	require.NoError(t, p.Submit(ctx, "bad", func(context.Context) int { panic("boom") }))
	require.NoError(t, p.Submit(ctx, "good", func(context.Context) int { return 7 }))
	p.Close()

	got := map[string]worker.Result[int]{}
	for r := range p.Results() {
		got[r.JobID] = r
	}

	var pe *worker.PanicError
	require.ErrorAs(t, got["bad"].Err, &pe)
	assert.Equal(t, "boom", pe.Value)
	assert.Zero(t, got["bad"].Output)

	assert.NoError(t, got["good"].Err)
	assert.Equal(t, 7, got["good"].Output)
}
