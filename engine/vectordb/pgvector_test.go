package vectordb_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdicthq/verdict/engine/vectordb"
)

func pgTestConfig() *vectordb.Config {
	return &vectordb.Config{
		ID:        "primary",
		Provider:  vectordb.ProviderPGVector,
		DSN:       "postgres://localhost/verdict",
		Dimension: 3,
	}
}

func expectSchema(mockPool pgxmock.PgxPoolIface) {
	mockPool.ExpectExec("CREATE EXTENSION IF NOT EXISTS vector").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mockPool.ExpectExec("CREATE TABLE IF NOT EXISTS \"verdict_chunks\"").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
}

func newMockPGStore(t *testing.T) (pgxmock.PgxPoolIface, vectordb.Store) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	expectSchema(mockPool)
	store, err := vectordb.NewPGStoreWithDB(context.Background(), mockPool, pgTestConfig())
	require.NoError(t, err)
	return mockPool, store
}

func TestPGStore_EnsureSchema(t *testing.T) {
	t.Run("Should bootstrap extension and table on construction", func(t *testing.T) {
		mockPool, _ := newMockPGStore(t)
		defer mockPool.Close()
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should create ivfflat index when requested", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		expectSchema(mockPool)
		mockPool.ExpectExec("CREATE INDEX IF NOT EXISTS \"chunks_idx\" ON \"verdict_chunks\" USING ivfflat").
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
		cfg := pgTestConfig()
		cfg.Index = "chunks_idx"
		cfg.EnsureIndex = true
		_, err = vectordb.NewPGStoreWithDB(context.Background(), mockPool, cfg)
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should fail when the extension cannot be enabled", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		mockPool.ExpectExec("CREATE EXTENSION IF NOT EXISTS vector").
			WillReturnError(errors.New("permission denied"))
		_, err = vectordb.NewPGStoreWithDB(context.Background(), mockPool, pgTestConfig())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "enable extension")
	})
}

func TestPGStore_Upsert(t *testing.T) {
	t.Run("Should upsert records in a transaction", func(t *testing.T) {
		mockPool, store := newMockPGStore(t)
		defer mockPool.Close()
		ctx := context.Background()
		mockPool.ExpectBegin()
		mockPool.ExpectExec("INSERT INTO \"verdict_chunks\"").
			WithArgs("chunk-1", pgxmock.AnyArg(), "alpha", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()
		err := store.Upsert(ctx, []vectordb.Record{
			{ID: "chunk-1", Text: "alpha", Embedding: []float32{1, 0, 0}, Metadata: map[string]any{"source": "a.txt"}},
		})
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should roll back when a record dimension mismatches", func(t *testing.T) {
		mockPool, store := newMockPGStore(t)
		defer mockPool.Close()
		ctx := context.Background()
		mockPool.ExpectBegin()
		mockPool.ExpectRollback()
		err := store.Upsert(ctx, []vectordb.Record{
			{ID: "chunk-1", Embedding: []float32{1, 0}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dimension mismatch")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should skip empty batches", func(t *testing.T) {
		mockPool, store := newMockPGStore(t)
		defer mockPool.Close()
		assert.NoError(t, store.Upsert(context.Background(), nil))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPGStore_Search(t *testing.T) {
	t.Run("Should return matches ordered by distance", func(t *testing.T) {
		mockPool, store := newMockPGStore(t)
		defer mockPool.Close()
		ctx := context.Background()
		rows := mockPool.NewRows([]string{"id", "document", "metadata", "distance"}).
			AddRow("chunk-1", "alpha", []byte(`{"source":"a.txt"}`), 0.1).
			AddRow("chunk-2", "bravo", []byte(`{"source":"b.txt"}`), 0.4)
		mockPool.ExpectQuery("SELECT id, document, metadata, embedding <=> \\$1 AS distance FROM \"verdict_chunks\"").
			WithArgs(pgxmock.AnyArg(), 2).
			WillReturnRows(rows)
		matches, err := store.Search(ctx, []float32{1, 0, 0}, vectordb.SearchOptions{TopK: 2})
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "chunk-1", matches[0].ID)
		assert.InDelta(t, 0.1, matches[0].Distance, 1e-9)
		assert.Equal(t, "a.txt", matches[0].Metadata["source"])
		assert.Equal(t, "bravo", matches[1].Text)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should apply metadata filters", func(t *testing.T) {
		mockPool, store := newMockPGStore(t)
		defer mockPool.Close()
		ctx := context.Background()
		rows := mockPool.NewRows([]string{"id", "document", "metadata", "distance"}).
			AddRow("chunk-1", "alpha", []byte(`{"source":"a.txt"}`), 0.2)
		mockPool.ExpectQuery("AND metadata ->> \\$2 = \\$3 ORDER BY embedding <=> \\$1 ASC LIMIT \\$4").
			WithArgs(pgxmock.AnyArg(), "source", "a.txt", 5).
			WillReturnRows(rows)
		matches, err := store.Search(
			ctx,
			[]float32{1, 0, 0},
			vectordb.SearchOptions{Filters: map[string]string{"source": "a.txt"}},
		)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should reject query dimension mismatch", func(t *testing.T) {
		mockPool, store := newMockPGStore(t)
		defer mockPool.Close()
		_, err := store.Search(context.Background(), []float32{1, 0}, vectordb.SearchOptions{TopK: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dimension mismatch")
	})
}

func TestPGStore_Count(t *testing.T) {
	t.Run("Should count stored records", func(t *testing.T) {
		mockPool, store := newMockPGStore(t)
		defer mockPool.Close()
		rows := mockPool.NewRows([]string{"count"}).AddRow(int64(3))
		mockPool.ExpectQuery("SELECT COUNT\\(\\*\\) FROM \"verdict_chunks\"").
			WillReturnRows(rows)
		count, err := store.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPGStore_Delete(t *testing.T) {
	t.Run("Should delete by ids", func(t *testing.T) {
		mockPool, store := newMockPGStore(t)
		defer mockPool.Close()
		mockPool.ExpectExec("DELETE FROM \"verdict_chunks\" WHERE 1=1 AND id = ANY\\(\\$1\\)").
			WithArgs([]string{"chunk-1", "chunk-2"}).
			WillReturnResult(pgxmock.NewResult("DELETE", 2))
		err := store.Delete(context.Background(), vectordb.Filter{IDs: []string{"chunk-1", "chunk-2"}})
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should delete by metadata", func(t *testing.T) {
		mockPool, store := newMockPGStore(t)
		defer mockPool.Close()
		mockPool.ExpectExec("DELETE FROM \"verdict_chunks\" WHERE 1=1 AND metadata ->> \\$1 = \\$2").
			WithArgs("source", "a.txt").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		err := store.Delete(context.Background(), vectordb.Filter{Metadata: map[string]string{"source": "a.txt"}})
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should skip delete when filter is empty", func(t *testing.T) {
		mockPool, store := newMockPGStore(t)
		defer mockPool.Close()
		assert.NoError(t, store.Delete(context.Background(), vectordb.Filter{}))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
