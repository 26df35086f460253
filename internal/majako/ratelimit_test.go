package majako_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/majako/sales-forecaster/internal/majako"
)

func TestRateLimiter_Wait(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rate    float64
		burst   int
		daily   int64
		calls   int
		wantErr bool
	}{
		{name: "allows calls within rate", rate: 100, burst: 10, daily: 5000, calls: 3},
		{name: "allows burst", rate: 100, burst: 5, daily: 5000, calls: 5},
		{name: "rejects when daily quota reached", rate: 100, burst: 10, daily: 2, calls: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rl := majako.NewRateLimiter(tt.rate, tt.burst, tt.daily)

			var lastErr error
			for range tt.calls {
				lastErr = rl.Wait(context.Background())
				if lastErr != nil {
					break
				}
			}

			if tt.wantErr {
				require.ErrorIs(t, lastErr, majako.ErrDailyLimitReached)
			} else {
				require.NoError(t, lastErr)
			}
		})
	}
}

func TestRateLimiter_Counters(t *testing.T) {
	t.Parallel()

	rl := majako.NewRateLimiter(100, 10, 5000)

	assert.Equal(t, int64(0), rl.DailyCount())
	assert.Equal(t, int64(5000), rl.Remaining())

	require.NoError(t, rl.Wait(context.Background()))
	require.NoError(t, rl.Wait(context.Background()))
	assert.Equal(t, int64(2), rl.DailyCount())
	assert.Equal(t, int64(4998), rl.Remaining())
}

func TestRateLimiter_DailyReset(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 15, 23, 59, 0, 0, time.UTC)
	var mu sync.Mutex
	currentTime := now

	rl := majako.NewRateLimiter(
		100, 10, 2,
		majako.WithRateLimiterNowFunc(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return currentTime
		}),
	)

	require.NoError(t, rl.Wait(context.Background()))
	require.NoError(t, rl.Wait(context.Background()))
	require.ErrorIs(t, rl.Wait(context.Background()), majako.ErrDailyLimitReached)

	// Advance past the 24-hour window; quota resets.
	mu.Lock()
	currentTime = now.Add(25 * time.Hour)
	mu.Unlock()

	require.NoError(t, rl.Wait(context.Background()))
	assert.Equal(t, int64(1), rl.DailyCount())
}
