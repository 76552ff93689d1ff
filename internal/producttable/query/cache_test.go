package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func counting(values ...int) (FetchFunc[int], *atomic.Int32) {
	var calls atomic.Int32
	return func(context.Context) (int, error) {
		n := calls.Add(1)
		if int(n) <= len(values) {
			return values[n-1], nil
		}
		return values[len(values)-1], nil
	}, &calls
}

func TestCache_GetCachesUntilInvalidated(t *testing.T) {
	// given
	c := NewCache[int]()
	fetch, calls := counting(1, 2)
	ctx := context.Background()

	// when
	first, err := c.Get(ctx, "products", fetch)
	require.NoError(t, err)
	second, err := c.Get(ctx, "products", fetch)
	require.NoError(t, err)
	c.Invalidate("products")
	third, err := c.Get(ctx, "products", fetch)
	require.NoError(t, err)

	// then
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, 2, third)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCache_FailedFetchKeepsPreviousData(t *testing.T) {
	// given
	c := NewCache[int]()
	ctx := context.Background()
	_, err := c.Get(ctx, "k", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	c.Invalidate("k")
	boom := errors.New("boom")

	// when
	_, err = c.Get(ctx, "k", func(context.Context) (int, error) { return 0, boom })

	// then
	assert.ErrorIs(t, err, boom)
	data, fresh, ok := c.Peek("k")
	assert.True(t, ok)
	assert.False(t, fresh)
	assert.Equal(t, 7, data)
}

func TestCache_ConcurrentGetsShareOneFetch(t *testing.T) {
	// given
	c := NewCache[int]()
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	// when
	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Get(context.Background(), "k", fetch)
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	// then
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []int{42, 42, 42, 42, 42}, results)
}

func TestCache_InvalidationDuringFetchIsNotStoredFresh(t *testing.T) {
	// given
	c := NewCache[int]()
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(context.Context) (int, error) {
		close(started)
		<-release
		return 1, nil
	}
	done := make(chan int)
	go func() {
		v, _ := c.Get(context.Background(), "k", fetch)
		done <- v
	}()
	<-started

	// when
	c.Invalidate("k")
	close(release)
	got := <-done

	// then
	assert.Equal(t, 1, got)
	data, fresh, ok := c.Peek("k")
	assert.True(t, ok)
	assert.False(t, fresh)
	assert.Equal(t, 1, data)

	next, err := c.Get(context.Background(), "k", func(context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, next)
}

func TestCache_GetAfterInvalidationDoesNotJoinOlderFetch(t *testing.T) {
	// given
	c := NewCache[int]()
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return 1, nil
		}
		return 2, nil
	}
	older := make(chan int)
	go func() {
		v, _ := c.Get(context.Background(), "k", fetch)
		older <- v
	}()
	<-started

	// when
	c.Invalidate("k")
	newer, err := c.Get(context.Background(), "k", fetch)
	close(release)
	olderValue := <-older

	// then
	require.NoError(t, err)
	assert.Equal(t, 2, newer)
	assert.Equal(t, 1, olderValue)
	assert.Equal(t, int32(2), calls.Load())
	data, fresh, ok := c.Peek("k")
	assert.True(t, ok)
	assert.True(t, fresh)
	assert.Equal(t, 2, data, "a fetch that finishes late must not overwrite newer data")
}

func TestCache_SubscribeAndUnsubscribe(t *testing.T) {
	// given
	c := NewCache[int]()
	var got []string
	unsubscribe := c.Subscribe(func(key string) { got = append(got, key) })

	// when
	c.Invalidate("a")
	unsubscribe()
	unsubscribe()
	c.Invalidate("b")

	// then
	assert.Equal(t, []string{"a"}, got)
}

func TestCache_PeekEmpty(t *testing.T) {
	c := NewCache[[]string]()
	data, fresh, ok := c.Peek("missing")
	assert.Nil(t, data)
	assert.False(t, fresh)
	assert.False(t, ok)
	_, ok = c.FetchedAt("missing")
	assert.False(t, ok)
}

func TestCache_FetchedAt(t *testing.T) {
	// given
	c := NewCache[int]()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return at }

	// when
	_, err := c.Get(context.Background(), "k", func(context.Context) (int, error) { return 1, nil })

	// then
	require.NoError(t, err)
	got, ok := c.FetchedAt("k")
	assert.True(t, ok)
	assert.Equal(t, at, got)
}
