package presence

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestTouchAndLeave(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newRedis(t), "test", time.Minute)
	require.NoError(t, store.Ping(ctx))

	require.NoError(t, store.Touch(ctx, "R1", "B"))
	require.NoError(t, store.Touch(ctx, "R1", "A"))
	require.NoError(t, store.Touch(ctx, "R2", "C"))

	online, err := store.Online(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, online)

	require.NoError(t, store.Leave(ctx, "R1", "A"))
	online, err = store.Online(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, online)
}

func TestExpiredMarkersArePruned(t *testing.T) {
	ctx := context.Background()
	client := newRedis(t)
	store := NewStore(client, "test", time.Minute)

	require.NoError(t, store.Touch(ctx, "R1", "A"))
	require.NoError(t, client.Del(ctx, store.presenceKey("R1", "A")).Err())

	online, err := store.Online(ctx, "R1")
	require.NoError(t, err)
	assert.Empty(t, online)

	n, err := client.SCard(ctx, store.roomKey("R1")).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}
