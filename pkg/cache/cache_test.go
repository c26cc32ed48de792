package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resumo struct {
	Total int `json:"total"`
}

func TestMemorySetGetDel(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var got resumo
	assert.False(t, m.Get(ctx, "pedidos:resumo:2026-01-02", &got))

	require.NoError(t, m.Set(ctx, "pedidos:resumo:2026-01-02", resumo{Total: 3}, time.Minute))
	assert.True(t, m.Get(ctx, "pedidos:resumo:2026-01-02", &got))
	assert.Equal(t, 3, got.Total)

	require.NoError(t, m.Del(ctx, "pedidos:resumo:2026-01-02"))
	assert.False(t, m.Get(ctx, "pedidos:resumo:2026-01-02", &got))
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", resumo{Total: 1}, 30*time.Second))

	var got resumo
	now = now.Add(29 * time.Second)
	assert.True(t, m.Get(ctx, "k", &got))

	now = now.Add(time.Second)
	assert.False(t, m.Get(ctx, "k", &got))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("memcached")
	assert.Error(t, err)

	s, err := Open("memory")
	require.NoError(t, err)
	assert.Equal(t, "memory", s.Driver())
}
