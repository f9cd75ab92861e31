package pipeline

import (
	"context"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrent_BoundAndLiveness(t *testing.T) {
	const n, m = 3, 20
	var inflight, peak atomic.Int32
	work := WorkFunc[int, int](func(_ context.Context, v int) (int, error) {
		cur := inflight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inflight.Add(-1)
		return v * 2, nil
	})

	items := make([]int, m)
	for i := range items {
		items[i] = i
	}
	got, err := Collect[int](context.Background(), Concurrent[int, int](FromSlice(items), work, n))
	require.NoError(t, err)

	sort.Ints(got)
	want := make([]int, m)
	for i := range want {
		want[i] = i * 2
	}
	assert.Equal(t, want, got)
	assert.LessOrEqual(t, peak.Load(), int32(n))
	assert.Greater(t, peak.Load(), int32(1), "work should overlap")
}

func TestConcurrent_PullsOnlyWithFreeSlot(t *testing.T) {
	const n = 2
	var pulled atomic.Int32
	src := Tap[int](FromSlice([]int{1, 2, 3, 4, 5}), func(context.Context, int) error {
		pulled.Add(1)
		return nil
	})
	release := make(chan struct{})
	work := WorkFunc[int, int](func(_ context.Context, v int) (int, error) {
		<-release
		return v, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	iter := Concurrent[int, int](src, work, n).Iter(ctx)
	defer iter.Close()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(n), pulled.Load())

	close(release)
	var count int
	for {
		_, ok, err := iter.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, 5, count)
}

func TestConcurrent_ForwardsFailures(t *testing.T) {
	src := FromResults([]Result[int]{Ok(1), Fail[int](errBoom), Ok(2)})
	w := WorkFunc[int, int](func(_ context.Context, v int) (int, error) {
		if v == 2 {
			return 0, errBoom
		}
		return v, nil
	})
	got := collectAll[int](t, Concurrent[int, int](src, w, 4))

	var ok, failed int
	for _, r := range got {
		if r.Err != nil {
			failed++
		} else {
			ok++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 2, failed)
}

func TestConcurrent_ZeroBoundIsSequential(t *testing.T) {
	got, err := Collect[int](context.Background(), Concurrent[int, int](FromSlice([]int{1, 2, 3}), inc(), 0))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, got)
}

func TestConcurrent_CloseStopsWork(t *testing.T) {
	var started atomic.Int32
	block := WorkFunc[int, int](func(ctx context.Context, v int) (int, error) {
		started.Add(1)
		<-ctx.Done()
		return 0, ctx.Err()
	})
	iter := Concurrent[int, int](FromSlice([]int{1, 2, 3}), block, 2).Iter(context.Background())
	require.Eventually(t, func() bool { return started.Load() == 2 }, time.Second, time.Millisecond)
	require.NoError(t, iter.Close())
}

func TestSpawn_ProducesAhead(t *testing.T) {
	var pulled atomic.Int32
	src := Tap[int](FromSlice([]int{1, 2, 3, 4}), func(context.Context, int) error {
		pulled.Add(1)
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	iter := Spawn[int](src, 0).Iter(ctx)
	defer iter.Close()

	require.Eventually(t, func() bool { return pulled.Load() == 4 }, time.Second, time.Millisecond)

	var got []int
	for {
		v, ok, err := iter.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, got)
}

func TestSpawn_BoundedBuffer(t *testing.T) {
	var pulled atomic.Int32
	items := make([]int, 50)
	src := Tap[int](FromSlice(items), func(context.Context, int) error {
		pulled.Add(1)
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	iter := Spawn[int](src, 5).Iter(ctx)
	defer iter.Close()

	time.Sleep(20 * time.Millisecond)
	// buffer plus the item waiting to be sent
	assert.LessOrEqual(t, pulled.Load(), int32(6))
}

func TestSpawn_ForwardsFailures(t *testing.T) {
	got := collectAll[int](t, Spawn[int](FromResults([]Result[int]{Fail[int](errBoom), Ok(1)}), 2))
	require.Len(t, got, 2)
	assert.ErrorIs(t, got[0].Err, errBoom)
	assert.Equal(t, 1, got[1].Value)
}

func TestMerge(t *testing.T) {
	got, err := Collect[int](context.Background(), Merge[int](FromSlice([]int{1, 2}), FromSlice([]int{3}), Empty[int]()))
	require.NoError(t, err)
	sort.Ints(got)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestMerge_None(t *testing.T) {
	got, err := Collect[int](context.Background(), Merge[int]())
	require.NoError(t, err)
	assert.Empty(t, got)
}
