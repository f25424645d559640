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
)

func newTestStore(clock clockwork.Clock) *Store {
	return NewStore(clock, map[Resource]time.Duration{
		ResourceContext: 5 * time.Minute,
	}, time.Minute, nil)
}

func TestFetchCachesFreshValue(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := newTestStore(clock)

	calls := 0
	loader := func(ctx context.Context) (interface{}, error) {
		calls++
		return "snapshot", nil
	}

	v, err := store.Fetch(context.Background(), ResourceContext, []string{"w1"}, loader, nil)
	require.NoError(t, err)
	assert.Equal(t, "snapshot", v)

	v, err = store.Fetch(context.Background(), ResourceContext, []string{"w1"}, loader, nil)
	require.NoError(t, err)
	assert.Equal(t, "snapshot", v)
	assert.Equal(t, 1, calls, "fresh entry must be served without a loader call")
}

func TestFetchTTLExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := newTestStore(clock)

	calls := 0
	loader := func(ctx context.Context) (interface{}, error) {
		calls++
		return calls, nil
	}

	_, err := store.Fetch(context.Background(), ResourceContext, []string{"w1"}, loader, nil)
	require.NoError(t, err)

	// Just inside the TTL: still a hit.
	clock.Advance(5*time.Minute - time.Second)
	v, err := store.Fetch(context.Background(), ResourceContext, []string{"w1"}, loader, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, calls)

	// Crossing the TTL: exactly one new loader call.
	clock.Advance(2 * time.Second)
	v, err = store.Fetch(context.Background(), ResourceContext, []string{"w1"}, loader, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, calls)
}

func TestFetchCoalescesConcurrentCallers(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := newTestStore(clock)

	var loaderCalls int32
	release := make(chan struct{})
	loader := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&loaderCalls, 1)
		<-release
		return "shared", nil
	}

	const n = 25
	var wg sync.WaitGroup
	results := make([]interface{}, n)
	errs := make([]error, n)
	started := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started <- struct{}{}
			results[i], errs[i] = store.Fetch(context.Background(), ResourceContext, []string{"w1"}, loader, nil)
		}(i)
	}
	for i := 0; i < n; i++ {
		<-started
	}
	// Let goroutines attach to the pending request before releasing.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loaderCalls), "concurrent fetches for one key must share one loader call")
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared", results[i])
	}
}

func TestFetchErrorPropagatesToAllWaitersAndIsNotCached(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := newTestStore(clock)

	boom := errors.New("gateway down")
	var loaderCalls int32
	release := make(chan struct{})
	loader := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&loaderCalls, 1)
		<-release
		return nil, boom
	}

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Fetch(context.Background(), ResourceContext, []string{"w1"}, loader, nil)
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loaderCalls))
	for _, err := range errs {
		assert.ErrorIs(t, err, boom)
	}

	// The failure must not be cached: the next fetch loads again.
	ok := func(ctx context.Context) (interface{}, error) { return "recovered", nil }
	v, err := store.Fetch(context.Background(), ResourceContext, []string{"w1"}, ok, nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
}

func TestFetchTTLOverrideZeroForcesRefresh(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := newTestStore(clock)

	calls := 0
	loader := func(ctx context.Context) (interface{}, error) {
		calls++
		return calls, nil
	}

	_, err := store.Fetch(context.Background(), ResourceContext, []string{"w1"}, loader, nil)
	require.NoError(t, err)

	force := time.Duration(0)
	v, err := store.Fetch(context.Background(), ResourceContext, []string{"w1"}, loader, &Options{TTLOverride: &force})
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, calls)

	// The forced refresh still repopulated the cache for normal reads.
	v, err = store.Fetch(context.Background(), ResourceContext, []string{"w1"}, loader, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, calls)
}

func TestInvalidateRemovesEntry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := newTestStore(clock)

	calls := 0
	loader := func(ctx context.Context) (interface{}, error) {
		calls++
		return calls, nil
	}

	_, err := store.Fetch(context.Background(), ResourceContext, []string{"w1"}, loader, nil)
	require.NoError(t, err)

	store.Invalidate(ResourceContext, "w1")

	v, err := store.Fetch(context.Background(), ResourceContext, []string{"w1"}, loader, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestInvalidatePrefixRemovesAllEntriesOfResource(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := newTestStore(clock)

	loader := func(ctx context.Context) (interface{}, error) { return "x", nil }
	_, _ = store.Fetch(context.Background(), ResourceSessions, []string{"d1"}, loader, nil)
	_, _ = store.Fetch(context.Background(), ResourceSessions, []string{"d2"}, loader, nil)
	_, _ = store.Fetch(context.Background(), ResourceContext, []string{"w1"}, loader, nil)
	require.Equal(t, 3, store.Len())

	store.InvalidatePrefix(ResourceSessions)
	assert.Equal(t, 1, store.Len())
}

func TestClearAllAbandonsPendingResults(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := newTestStore(clock)

	release := make(chan struct{})
	loader := func(ctx context.Context) (interface{}, error) {
		<-release
		return "late", nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := store.Fetch(context.Background(), ResourceContext, []string{"w1"}, loader, nil)
		// The waiter still gets its value; it just must not be re-cached.
		assert.NoError(t, err)
		assert.Equal(t, "late", v)
	}()

	time.Sleep(20 * time.Millisecond)
	store.ClearAll()
	close(release)
	<-done

	assert.Equal(t, 0, store.Len(), "a result settling after ClearAll must not repopulate the cache")
}

func TestFetchContextCancelledWhileWaiting(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := newTestStore(clock)

	release := make(chan struct{})
	loader := func(ctx context.Context) (interface{}, error) {
		<-release
		return "slow", nil
	}

	go func() {
		_, _ = store.Fetch(context.Background(), ResourceContext, []string{"w1"}, loader, nil)
	}()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Fetch(ctx, ResourceContext, []string{"w1"}, loader, nil)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "sessions:d1", Key(ResourceSessions, "d1"))
	assert.Equal(t, "messages:s1:1", Key(ResourceMessages, "s1", "1"))
	assert.Equal(t, "context", Key(ResourceContext))
}
