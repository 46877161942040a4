package resource

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

func value[T any](v T) func(context.Context) (T, error) {
	return func(context.Context) (T, error) { return v, nil }
}

func TestLoadReplacesData(t *testing.T) {
	var r Resource[[]int]
	ctx := context.Background()

	require.NoError(t, r.Load(ctx, "all", value([]int{1, 2})))
	s := r.Snapshot()
	assert.True(t, s.Loaded)
	assert.False(t, s.Loading)
	assert.Equal(t, []int{1, 2}, s.Data)

	require.NoError(t, r.Load(ctx, "all", value([]int{3})))
	assert.Equal(t, []int{3}, r.Snapshot().Data)
}

func TestLoadFailureKeepsData(t *testing.T) {
	var r Resource[string]
	ctx := context.Background()
	require.NoError(t, r.Load(ctx, "all", value("kept")))

	boom := errors.New("boom")
	err := r.Load(ctx, "all", func(context.Context) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)

	s := r.Snapshot()
	assert.Equal(t, "kept", s.Data)
	assert.ErrorIs(t, s.Err, boom)

	r.Dismiss()
	assert.NoError(t, r.Snapshot().Err)
}

func TestLoadingFlag(t *testing.T) {
	var r Resource[int]
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)

	go func() {
		done <- r.Load(context.Background(), "all", func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
	}()
	<-started
	assert.True(t, r.Snapshot().Loading)
	close(release)
	require.NoError(t, <-done)
	assert.False(t, r.Snapshot().Loading)
}

func TestResetDropsLateResult(t *testing.T) {
	var r Resource[string]
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)

	go func() {
		done <- r.Load(context.Background(), "all", func(context.Context) (string, error) {
			close(started)
			<-release
			return "alice's data", nil
		})
	}()
	<-started
	r.Reset()
	close(release)

	assert.ErrorIs(t, <-done, ErrStale)
	s := r.Snapshot()
	assert.False(t, s.Loaded)
	assert.Empty(t, s.Data)
}

func TestConcurrentLoadsShareFetch(t *testing.T) {
	var r Resource[int]
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		started <- struct{}{}
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[0] = r.Load(context.Background(), "all", fetch)
	}()
	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[1] = r.Load(context.Background(), "all", fetch)
	}()
	require.Eventually(t, func() bool { return loadingTwice(&r) }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.ErrorIs(t, errs[0], ErrStale, "the older load is superseded")
	assert.NoError(t, errs[1])
	assert.Equal(t, 42, r.Snapshot().Data)
}

func loadingTwice[T any](r *Resource[T]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending == 2
}

func TestMutateBusy(t *testing.T) {
	var r Resource[[]string]
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)

	go func() {
		done <- r.Mutate(ctx, func(context.Context) error {
			close(started)
			<-release
			return nil
		}, func(s []string) []string { return append(s, "first") })
	}()
	<-started

	assert.True(t, r.Snapshot().Busy)
	err := r.Mutate(ctx, func(context.Context) error {
		t.Fatal("second write must not run")
		return nil
	}, nil)
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
	s := r.Snapshot()
	assert.False(t, s.Busy)
	assert.Equal(t, []string{"first"}, s.Data)
}

func TestMutateFailureLeavesData(t *testing.T) {
	var r Resource[[]string]
	r.Set([]string{"a"})
	boom := errors.New("boom")

	err := r.Mutate(context.Background(), func(context.Context) error { return boom },
		func(s []string) []string { return append(s, "b") })
	assert.ErrorIs(t, err, boom)
	s := r.Snapshot()
	assert.Equal(t, []string{"a"}, s.Data)
	assert.NoError(t, s.Err)
}

func TestMutateAfterResetIsDropped(t *testing.T) {
	var r Resource[[]string]
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)

	go func() {
		done <- r.Mutate(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		}, func(s []string) []string { return append(s, "late") })
	}()
	<-started
	r.Reset()
	close(release)

	assert.ErrorIs(t, <-done, ErrStale)
	assert.Empty(t, r.Snapshot().Data)
}

func TestConcurrentLoadsWithDifferentKeys(t *testing.T) {
	var r Resource[string]
	started := make(chan struct{})
	release := make(chan struct{})
	first := make(chan error)

	go func() {
		first <- r.Load(context.Background(), "page=0", func(context.Context) (string, error) {
			close(started)
			<-release
			return "page 0", nil
		})
	}()
	<-started

	require.NoError(t, r.Load(context.Background(), "page=1", value("page 1")))
	close(release)

	assert.ErrorIs(t, <-first, ErrStale)
	assert.Equal(t, "page 1", r.Snapshot().Data)
}

func TestCancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	var r Resource[int]
	started := make(chan struct{})
	release := make(chan struct{})
	fetchErr := make(chan error, 1)
	fetch := func(ctx context.Context) (int, error) {
		close(started)
		<-release
		fetchErr <- ctx.Err()
		return 42, nil
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leader := make(chan error)
	go func() { leader <- r.Load(leaderCtx, "all", fetch) }()
	<-started

	follower := make(chan error)
	go func() { follower <- r.Load(context.Background(), "all", fetch) }()
	require.Eventually(t, func() bool { return loadingTwice(&r) }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-leader, context.Canceled)
	close(release)

	require.NoError(t, <-follower)
	assert.NoError(t, <-fetchErr)
	s := r.Snapshot()
	assert.Equal(t, 42, s.Data)
	assert.NoError(t, s.Err)
	assert.False(t, s.Loading)
}

func TestLoadAfterResetStartsNewFetch(t *testing.T) {
	var r Resource[string]
	started := make(chan struct{})
	release := make(chan struct{})
	old := make(chan error)

	go func() {
		old <- r.Load(context.Background(), "all", func(context.Context) (string, error) {
			close(started)
			<-release
			return "alice's data", nil
		})
	}()
	<-started
	r.Reset()

	require.NoError(t, r.Load(context.Background(), "all", value("bob's data")))
	close(release)
	assert.ErrorIs(t, <-old, ErrStale)
	assert.Equal(t, "bob's data", r.Snapshot().Data)
}
