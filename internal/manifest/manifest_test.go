package manifest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-trades/internal/storage"
	"stock-trades/internal/testutil"
)

var t0 = time.Date(2025, 11, 3, 15, 0, 0, 0, time.UTC)

func entries() []Entry {
	return []Entry{
		{RunID: uuid.NewString(), Stage: "bars", Path: "curated/bars_5m/bars_5m_20251103T151000Z.parquet",
			Rows: 12, Inputs: []string{"raw/trades/trades_batch_20251103T150000Z.parquet"}, CreatedAt: t0.Add(10 * time.Minute)},
		{RunID: uuid.NewString(), Stage: "bars", Path: "curated/bars_5m/bars_5m_20251103T150500Z.parquet",
			Rows: 7, Rejected: 2, Inputs: []string{}, CreatedAt: t0.Add(5 * time.Minute)},
		{RunID: uuid.NewString(), Stage: "trades", Path: "raw/trades/trades_batch_20251103T150000Z.parquet",
			Rows: 1000, Inputs: []string{}, CreatedAt: t0},
	}
}

func checkStore(t *testing.T, s Store) {
	ctx := context.Background()
	empty, err := s.List(ctx, "bars")
	require.NoError(t, err)
	assert.Empty(t, empty)

	in := entries()
	for _, e := range in {
		require.NoError(t, s.Record(ctx, e))
	}

	got, err := s.List(ctx, "bars")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, in[1].Path, got[0].Path, "oldest first")
	assert.Equal(t, 2, got[0].Rejected)
	assert.Equal(t, in[0].Inputs, got[1].Inputs)
	assert.True(t, got[1].CreatedAt.Equal(in[0].CreatedAt))

	trades, err := s.List(ctx, "trades")
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestFileStore(t *testing.T) {
	b := storage.NewLocal(t.TempDir())
	checkStore(t, NewFileStore(b))

	objs, err := b.List(context.Background(), Dir)
	require.NoError(t, err)
	assert.Len(t, objs, 2)
}

func TestPostgresStore(t *testing.T) {
	dsn := testutil.Postgres(t)
	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()
	checkStore(t, s)

	// migrations are idempotent
	again, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	again.Close()
}

func TestNop(t *testing.T) {
	require.NoError(t, Nop{}.Record(context.Background(), Entry{}))
	got, err := Nop{}.List(context.Background(), "bars")
	require.NoError(t, err)
	assert.Nil(t, got)
}
