package fetch_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parliament-monitor/internal/usecase/fetch"
)

func TestSettle_PreservesOrderAndCollectsEveryOutcome(t *testing.T) {
	errB := errors.New("b failed")
	outcomes := fetch.Settle(context.Background(),
		func(context.Context) (string, error) { time.Sleep(20 * time.Millisecond); return "a", nil },
		func(context.Context) (string, error) { return "", errB },
		func(context.Context) (string, error) { return "c", nil },
	)

	require.Len(t, outcomes, 3)
	assert.Equal(t, "a", outcomes[0].Value)
	assert.NoError(t, outcomes[0].Err)
	assert.ErrorIs(t, outcomes[1].Err, errB)
	assert.Equal(t, "c", outcomes[2].Value)
	assert.Equal(t, 1, fetch.Failed(outcomes))
}

func TestSettle_FailureDoesNotCancelSiblings(t *testing.T) {
	var finished atomic.Bool
	outcomes := fetch.Settle(context.Background(),
		func(context.Context) (int, error) { return 0, errors.New("fast failure") },
		func(ctx context.Context) (int, error) {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(30 * time.Millisecond):
				finished.Store(true)
				return 2, nil
			}
		},
	)

	assert.True(t, finished.Load())
	assert.Equal(t, 2, outcomes[1].Value)
}

func TestSettle_RecoversPanic(t *testing.T) {
	outcomes := fetch.Settle(context.Background(),
		func(context.Context) (int, error) { panic("kaboom") },
		func(context.Context) (int, error) { return 1, nil },
	)

	require.Error(t, outcomes[0].Err)
	assert.Contains(t, outcomes[0].Err.Error(), "kaboom")
	assert.Equal(t, 1, outcomes[1].Value)
}

func TestSettle_Empty(t *testing.T) {
	outcomes := fetch.Settle[int](context.Background())
	assert.Empty(t, outcomes)
	assert.Zero(t, fetch.Failed(outcomes))
}
