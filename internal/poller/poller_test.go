package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/healthbridge/udd/internal/logging"
	"github.com/healthbridge/udd/internal/udderrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoll_SucceedsOnFirstReadyTry(t *testing.T) {
	p := New(0, 5, logging.NopLogger{})

	calls := 0
	got, err := Poll(context.Background(), p, func(ctx context.Context) (string, error) {
		calls++
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", got)
	assert.Equal(t, 1, calls)
}

func TestPoll_RetriesUntilReady(t *testing.T) {
	p := New(0, 5, logging.NopLogger{})

	calls := 0
	got, err := Poll(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, udderrors.ErrNotReady
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestPoll_TimesOutOnAlwaysNotReady(t *testing.T) {
	p := New(0, 3, logging.NopLogger{})

	calls := 0
	_, err := Poll(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		return 0, udderrors.ErrNotReady
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, udderrors.ErrTimeout)
	assert.Equal(t, 3, calls)
}

func TestPoll_PropagatesOtherErrorsImmediately(t *testing.T) {
	p := New(0, 5, logging.NopLogger{})
	boom := errors.New("boom")

	calls := 0
	_, err := Poll(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		return 0, boom
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls, "must not consume further tries on a non-NotReady error")
}

func TestPoll_SleepsBeforeEveryTryIncludingFirst(t *testing.T) {
	p := New(10*time.Millisecond, 2, logging.NopLogger{})

	start := time.Now()
	_, err := Poll(context.Background(), p, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 10*time.Millisecond)
}

func TestPoll_ContextCancelledDuringSleep(t *testing.T) {
	p := New(time.Hour, 5, logging.NopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Poll(ctx, p, func(ctx context.Context) (int, error) {
		t.Fatal("op should not run once context is already cancelled before first sleep completes")
		return 0, nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
