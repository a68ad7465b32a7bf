//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic/pkg/testutil/containers"
)

func TestRedisWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()
	w := NewRedisWindow(rc.Client)
	w.prefix = "civic:test:" + uuid.NewString()

	minute := time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC)
	w.now = func() time.Time { return minute }

	for want := int64(1); want <= 3; want++ {
		got, err := w.Hit(ctx, "198.51.100.4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	ttl, err := rc.Client.TTL(ctx, w.prefix+":198.51.100.4:"+"1772366400").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	minute = minute.Add(time.Minute)
	got, err := w.Hit(ctx, "198.51.100.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "a new window starts from zero")
}
