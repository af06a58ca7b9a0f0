package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff(attempts int) Backoff {
	return Backoff{MaxAttempts: attempts, BaseDelay: 10 * time.Millisecond}
}

func TestBackoff_Retry(t *testing.T) {
	t.Run("succeeds on first try", func(t *testing.T) {
		attempts := 0
		err := fastBackoff(3).Retry(context.Background(), func(context.Context) error {
			attempts++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("eventual success", func(t *testing.T) {
		attempts := 0
		err := fastBackoff(5).Retry(context.Background(), func(context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("temporary error")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("returns last error when all attempts fail", func(t *testing.T) {
		attempts := 0
		expected := errors.New("persistent error")
		err := fastBackoff(3).Retry(context.Background(), func(context.Context) error {
			attempts++
			return expected
		})
		assert.Equal(t, expected, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("stops when context is canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		attempts := 0
		err := fastBackoff(10).Retry(ctx, func(context.Context) error {
			attempts++
			if attempts == 2 {
				cancel()
			}
			return errors.New("error")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 2, attempts)
	})

	t.Run("stops at deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		attempts := 0
		err := fastBackoff(10).Retry(ctx, func(context.Context) error {
			attempts++
			time.Sleep(30 * time.Millisecond)
			return errors.New("error")
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.LessOrEqual(t, attempts, 3)
	})

	t.Run("non-positive attempts never run", func(t *testing.T) {
		for _, n := range []int{0, -1} {
			attempts := 0
			err := fastBackoff(n).Retry(context.Background(), func(context.Context) error {
				attempts++
				return nil
			})
			assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
			assert.Equal(t, 0, attempts)
		}
	})
}

func TestBackoff_Delay(t *testing.T) {
	b := Backoff{MaxAttempts: 6, BaseDelay: 100 * time.Millisecond, MaxDelay: 500 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, b.delay(1))
	assert.Equal(t, 200*time.Millisecond, b.delay(2))
	assert.Equal(t, 400*time.Millisecond, b.delay(3))
	assert.Equal(t, 500*time.Millisecond, b.delay(4))
	assert.Equal(t, 500*time.Millisecond, b.delay(5))

	uncapped := Backoff{MaxAttempts: 4, BaseDelay: 10 * time.Millisecond}
	assert.Equal(t, 80*time.Millisecond, uncapped.delay(4))
}
