package embeddings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/common"
)

func TestNewRetryPolicyDefaults(t *testing.T) {
	assert.Equal(t, 4, NewRetryPolicy(0).MaxAttempts)
	assert.Equal(t, 4, NewRetryPolicy(-1).MaxAttempts)
	assert.Equal(t, 6, NewRetryPolicy(6).MaxAttempts)
}

func TestCalculateBackoffIsExponential(t *testing.T) {
	policy := NewRetryPolicy(4)

	assert.Equal(t, 1*time.Second, policy.CalculateBackoff(0))
	assert.Equal(t, 2*time.Second, policy.CalculateBackoff(1))
	assert.Equal(t, 4*time.Second, policy.CalculateBackoff(2))
	assert.Equal(t, 8*time.Second, policy.CalculateBackoff(3))
}

func TestExecuteSucceedsFirstAttempt(t *testing.T) {
	policy := NewRetryPolicy(4)

	calls := 0
	err := policy.Execute(context.Background(), common.GetLogger(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	// Single attempt avoids backoff sleeps in the failure path
	policy := &RetryPolicy{MaxAttempts: 1, BackoffBase: 2.0}

	wantErr := errors.New("service unavailable")
	calls := 0
	err := policy.Execute(context.Background(), common.GetLogger(), func() error {
		calls++
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls)
}

func TestExecuteRetriesThenSucceeds(t *testing.T) {
	policy := NewRetryPolicy(3)

	calls := 0
	err := policy.Execute(context.Background(), common.GetLogger(), func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestExecuteStopsOnContextCancel(t *testing.T) {
	policy := NewRetryPolicy(4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := policy.Execute(ctx, common.GetLogger(), func() error {
		calls++
		return errors.New("transient")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "cancelled context should stop before the second attempt")
}
