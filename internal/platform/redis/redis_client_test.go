package redis

import (
	"context"
	"net"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Addr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "cache:6379", Config{Host: "cache"}.Addr())
	assert.Equal(t, "cache:6380", Config{Host: "cache", Port: "6380"}.Addr())
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{Host: "cache"}.Enabled())
}

func TestNewRedisClient_Success(t *testing.T) {
	t.Parallel()

	s := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(s.Addr())
	require.NoError(t, err)

	rdb, err := NewRedisClient(context.Background(), Config{Host: host, Port: port}, nil)
	require.NoError(t, err)
	defer func() { _ = rdb.Close() }()

	require.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewRedisClient_PingFails(t *testing.T) {
	t.Parallel()

	s := miniredis.RunT(t)
	s.RequireAuth("secret")
	host, port, err := net.SplitHostPort(s.Addr())
	require.NoError(t, err)

	_, err = NewRedisClient(context.Background(), Config{Host: host, Port: port, Password: "wrong"}, nil)
	assert.Error(t, err)
}
