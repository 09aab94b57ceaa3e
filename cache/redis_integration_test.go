//go:build integration
// +build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate redis: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return fmt.Sprintf("redis://%s/0", endpoint)
}

func TestRedisStore(t *testing.T) {
	rdb, err := Connect(startRedis(t))
	require.NoError(t, err)
	defer rdb.Close()

	ctx := context.Background()
	s := NewRedisStore(rdb)

	val, err := s.Get(ctx, CityChoicesKey(1))
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, s.Set(ctx, CityChoicesKey(1), []byte(`[]`), time.Minute))
	val, err = s.Get(ctx, CityChoicesKey(1))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(val))

	require.NoError(t, s.Set(ctx, CityChoicesKey(2), []byte(`x`), 50*time.Millisecond))
	assert.Eventually(t, func() bool {
		v, err := s.Get(ctx, CityChoicesKey(2))
		return err == nil && v == nil
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, s.Del(ctx))
	require.NoError(t, s.Del(ctx, CityChoicesKey(1)))
	val, err = s.Get(ctx, CityChoicesKey(1))
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := Connect("not a url")
	assert.Error(t, err)
}
