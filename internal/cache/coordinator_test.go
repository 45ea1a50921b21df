package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-platform/internal/domain"
	"auction-platform/pkg/logger"
)

func countingFetch(calls *int32, value interface{}) FetchFunc {
	return func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(calls, 1)
		return value, nil
	}
}

func TestGetFetchesOnceWithinTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCoordinator(clock, logger.NewNop())

	var calls int32
	fetch := countingFetch(&calls, "products")

	first, err := c.Get(context.Background(), "k", time.Minute, nil, fetch)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, "products", first.Value)

	second, err := c.Get(context.Background(), "k", time.Minute, nil, fetch)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, "products", second.Value)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetRefetchesAfterTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCoordinator(clock, logger.NewNop())

	var calls int32
	fetch := countingFetch(&calls, "v")

	_, err := c.Get(context.Background(), "k", time.Minute, nil, fetch)
	require.NoError(t, err)

	clock.Advance(time.Minute) // entry is fresh iff now-fetchedAt < ttl

	res, err := c.Get(context.Background(), "k", time.Minute, nil, fetch)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestInvalidateByTagIgnoresTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCoordinator(clock, logger.NewNop())

	var calls int32
	fetch := countingFetch(&calls, "v")
	tags := []string{AuctionTag("a1")}

	_, err := c.Get(context.Background(), AuctionProductsKey("a1"), time.Hour, tags, fetch)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), AuctionRoleKey("a1", "u1"), time.Hour,
		[]string{AuctionTag("a1"), AuctionRoleTag("a1", "u1")}, fetch)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), CategoriesKey(), time.Hour, []string{CategoriesTag}, fetch)
	require.NoError(t, err)

	removed := c.Invalidate(AuctionTag("a1"))
	assert.Equal(t, 2, removed)

	// Both auction-tagged keys are cold again; categories are untouched.
	res, err := c.Get(context.Background(), AuctionProductsKey("a1"), time.Hour, tags, fetch)
	require.NoError(t, err)
	assert.False(t, res.FromCache)

	res, err = c.Get(context.Background(), CategoriesKey(), time.Hour, []string{CategoriesTag}, fetch)
	require.NoError(t, err)
	assert.True(t, res.FromCache)

	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestSingleFlightDeduplicatesConcurrentFetches(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCoordinator(clock, logger.NewNop())

	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		return "shared", nil
	}

	firstDone := make(chan Result, 1)
	go func() {
		res, err := c.Get(context.Background(), "k", time.Minute, nil, fetch)
		require.NoError(t, err)
		firstDone <- res
	}()

	<-started

	// Second and third callers arrive while the fetch is in flight; they must
	// wait for it rather than fetching again.
	var wg sync.WaitGroup
	results := make(chan Result, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.Get(context.Background(), "k", time.Minute, nil, fetch)
			require.NoError(t, err)
			results <- res
		}()
	}

	close(release)
	wg.Wait()
	close(results)

	assert.Equal(t, "shared", (<-firstDone).Value)
	for res := range results {
		assert.Equal(t, "shared", res.Value)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWaiterRespectsContextCancellation(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCoordinator(clock, logger.NewNop())

	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (interface{}, error) {
		close(started)
		<-release
		return "v", nil
	}

	go func() {
		_, _ = c.Get(context.Background(), "k", time.Minute, nil, fetch)
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Get(ctx, "k", time.Minute, nil, fetch)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
}

func TestStaleServingDisabledPropagatesError(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCoordinator(clock, logger.NewNop())

	_, err := c.Get(context.Background(), "k", time.Minute, nil,
		countingFetch(new(int32), "good"))
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	boom := errors.New("backend down")
	_, err = c.Get(context.Background(), "k", time.Minute, nil,
		func(ctx context.Context) (interface{}, error) { return nil, boom })
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
}

func TestStaleServingReturnsExpiredEntryOnFetchFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCoordinator(clock, logger.NewNop(), WithStaleServing())

	_, err := c.Get(context.Background(), "k", time.Minute, nil,
		countingFetch(new(int32), "good"))
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	res, err := c.Get(context.Background(), "k", time.Minute, nil,
		func(ctx context.Context) (interface{}, error) { return nil, errors.New("backend down") })
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.True(t, res.Stale)
	assert.Equal(t, "good", res.Value)
}

func TestSingleFlightWaiterGetsStaleValueOnSharedFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCoordinator(clock, logger.NewNop(), WithStaleServing())

	_, err := c.Get(context.Background(), "k", time.Minute, nil,
		countingFetch(new(int32), "good"))
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	var once sync.Once
	started := make(chan struct{})
	release := make(chan struct{})
	failing := func(ctx context.Context) (interface{}, error) {
		once.Do(func() { close(started) })
		<-release
		return nil, errors.New("backend down")
	}

	firstDone := make(chan Result, 1)
	go func() {
		res, err := c.Get(context.Background(), "k", time.Minute, nil, failing)
		require.NoError(t, err)
		firstDone <- res
	}()

	<-started

	// A caller joining mid-flight must also fall back to the expired entry
	// when the shared fetch fails.
	waiterDone := make(chan Result, 1)
	go func() {
		res, err := c.Get(context.Background(), "k", time.Minute, nil, failing)
		require.NoError(t, err)
		waiterDone <- res
	}()

	close(release)

	for _, ch := range []chan Result{firstDone, waiterDone} {
		res := <-ch
		assert.True(t, res.FromCache)
		assert.True(t, res.Stale)
		assert.Equal(t, "good", res.Value)
	}
}

func TestStaleServingWithoutEntryStillErrors(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCoordinator(clock, logger.NewNop(), WithStaleServing())

	_, err := c.Get(context.Background(), "cold", time.Minute, nil,
		func(ctx context.Context) (interface{}, error) { return nil, errors.New("backend down") })
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
}
