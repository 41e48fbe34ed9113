package cache

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLProfileCacheNilDB(t *testing.T) {
	c := NewSQLProfileCache(nil, time.Hour)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "k")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.Put(ctx, "k", sampleProfile()))
}

func TestSQLProfileCacheRejectsBadInput(t *testing.T) {
	// sql.Open does not dial, so these paths never reach a server.
	conn, err := sql.Open("pgx", "postgres://profiler@127.0.0.1:1/profiler?sslmode=disable")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	c := NewSQLProfileCache(conn, time.Hour)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, " ")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.Put(ctx, "", sampleProfile()))
	assert.Error(t, c.Put(ctx, "k", nil))
}
