package processor_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MasterOfBinary/batchexec/processor"
)

func double(_ context.Context, n int, _ struct{}) (int, error) {
	return n * 2, nil
}

func failOn(bad int) processor.MapFunc[int, int, struct{}] {
	return func(_ context.Context, n int, _ struct{}) (int, error) {
		if n == bad {
			return 0, errors.New("bad input")
		}
		return n * 2, nil
	}
}

func TestMap(t *testing.T) {
	p := processor.Map(double)

	out, err := p.Process(context.Background(), []int{1, 2, 3}, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, out)

	out, err = p.Process(context.Background(), nil, struct{}{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMap_StopsAtFirstError(t *testing.T) {
	var calls int32
	p := processor.Map(func(ctx context.Context, n int, s struct{}) (int, error) {
		atomic.AddInt32(&calls, 1)
		return failOn(3)(ctx, n, s)
	})

	out, err := p.Process(context.Background(), []int{1, 2, 3, 4, 5}, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, out)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestMap_ReportsItemError(t *testing.T) {
	var gotIndex int
	var gotErr error
	p := processor.Map(failOn(3), processor.OnItemError(func(index int, err error) {
		gotIndex, gotErr = index, err
	}))

	out, err := p.Process(context.Background(), []int{1, 2, 3, 4}, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, out)
	assert.Equal(t, 2, gotIndex)
	assert.EqualError(t, gotErr, "bad input")
}

func TestMap_LogItemErrors(t *testing.T) {
	logger := &captureLogger{}
	p := processor.Map(failOn(1), processor.LogItemErrors(logger))

	_, err := p.Process(context.Background(), []int{1}, struct{}{})
	require.NoError(t, err)
	assert.True(t, logger.contains("WARN", "Input 0 of batch failed: bad input"))
}

func TestMap_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := processor.Map(double).Process(ctx, []int{1}, struct{}{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMap_PassesStream(t *testing.T) {
	p := processor.Map(func(_ context.Context, n int, offset int) (int, error) {
		return n + offset, nil
	})
	out, err := p.Process(context.Background(), []int{1, 2}, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{11, 12}, out)
}

func TestParallelMap(t *testing.T) {
	p := processor.ParallelMap(3, func(_ context.Context, n int, _ struct{}) (int, error) {
		// Later inputs finish first.
		time.Sleep(time.Duration(10-n) * time.Millisecond)
		return n * 2, nil
	})

	out, err := p.Process(context.Background(), []int{1, 2, 3, 4, 5, 6}, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6, 8, 10, 12}, out)
}

func TestParallelMap_RespectsLimit(t *testing.T) {
	var inFlight, peak int32
	p := processor.ParallelMap(2, func(_ context.Context, n int, _ struct{}) (int, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return n, nil
	})

	out, err := p.Process(context.Background(), []int{1, 2, 3, 4, 5, 6, 7, 8}, struct{}{})
	require.NoError(t, err)
	assert.Len(t, out, 8)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestParallelMap_LongestSuccessfulPrefix(t *testing.T) {
	p := processor.ParallelMap(1, failOn(4))

	out, err := p.Process(context.Background(), []int{1, 2, 3, 4, 5}, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, out)

	out, err = p.Process(context.Background(), []int{4, 5}, struct{}{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestParallelMap_ReportsItemError(t *testing.T) {
	var calls int32
	var gotIndex int
	var gotErr error
	p := processor.ParallelMap(1, failOn(4), processor.OnItemError(func(index int, err error) {
		atomic.AddInt32(&calls, 1)
		gotIndex, gotErr = index, err
	}))

	out, err := p.Process(context.Background(), []int{1, 2, 3, 4, 5}, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, out)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 3, gotIndex)
	assert.EqualError(t, gotErr, "bad input")

	_, err = p.Process(context.Background(), []int{1, 2}, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestParallelMap_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := processor.ParallelMap(0, double).Process(ctx, []int{1, 2}, struct{}{})
	assert.ErrorIs(t, err, context.Canceled)
}
