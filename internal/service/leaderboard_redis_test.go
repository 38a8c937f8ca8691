package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(ctx context.Context, t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("redis container test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, redisC.Terminate(context.Background()))
	})

	host, err := redisC.Host(ctx)
	require.NoError(t, err)
	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisLeaderboard(t *testing.T) {
	ctx := context.Background()
	addr := startRedis(ctx, t)

	var logs bytes.Buffer
	lb, err := NewLeaderboardService(ctx, LeaderboardConfig{RedisAddr: addr}, slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)
	rs, ok := lb.(*RedisLeaderboardService)
	require.True(t, ok)
	defer rs.Close()

	stored, err := lb.AddEntry(ctx, entry(1, "ann", 3, 5))
	require.NoError(t, err)
	require.True(t, stored)

	stored, err = lb.AddEntry(ctx, entry(1, "ann", 2, 5))
	require.NoError(t, err)
	require.False(t, stored)

	_, err = lb.AddEntry(ctx, entry(2, "bob", 5, 5))
	require.NoError(t, err)

	require.NoError(t, rs.rdb.HSet(ctx, rs.key, "3", "not json").Err())

	top, err := lb.GetTop(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "bob", top[0].Username)
	require.Equal(t, 60, top[1].Percentage)
	require.Contains(t, logs.String(), "skipping malformed leaderboard entry")
	require.Contains(t, logs.String(), "field=3")

	pos, e, err := lb.GetUserPosition(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 2, pos)
	require.Equal(t, 3, e.Score)

	logs.Reset()
	stored, err = lb.AddEntry(ctx, entry(3, "cy", 1, 5))
	require.NoError(t, err)
	require.True(t, stored)
	require.Contains(t, logs.String(), "replacing malformed leaderboard entry")
}

func TestRedisLeaderboardUnreachable(t *testing.T) {
	_, err := NewRedisLeaderboardService(context.Background(), "127.0.0.1:1", "", 0, testLogger())
	require.Error(t, err)
}
