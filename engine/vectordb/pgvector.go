package vectordb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// DBInterface defines the minimal postgres surface the store needs.
// This allows both real pgxpool.Pool and pgxmock.PgxPoolIface to be used.
type DBInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type pgStore struct {
	db         DBInterface
	pool       *pgxpool.Pool
	id         string
	table      string
	tableIdent string
	indexName  string
	indexIdent string
	dimension  int
	maxTopK    int
	ensureIdx  bool
}

func newPGStore(ctx context.Context, cfg *Config) (Store, error) {
	if cfg == nil {
		return nil, errors.New("vectordb config is required")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("vectordb %q: failed to connect to postgres: %w", cfg.ID, err)
	}
	store, err := NewPGStoreWithDB(ctx, pool, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}
	pg, ok := store.(*pgStore)
	if ok {
		pg.pool = pool
		trackVectorPool(cfg.ID, pool)
	}
	return store, nil
}

// NewPGStoreWithDB builds a pgvector store on an existing connection. The
// caller keeps ownership of db; Close is a no-op for injected connections.
func NewPGStoreWithDB(ctx context.Context, db DBInterface, cfg *Config) (Store, error) {
	if cfg == nil {
		return nil, errors.New("vectordb config is required")
	}
	if db == nil {
		return nil, errors.New("vectordb postgres connection is required")
	}
	store := &pgStore{
		db:        db,
		id:        cfg.ID,
		table:     chooseTable(cfg),
		indexName: chooseIndex(cfg),
		dimension: cfg.Dimension,
		maxTopK:   cfg.MaxTopK,
		ensureIdx: cfg.EnsureIndex,
	}
	store.tableIdent = pgx.Identifier{store.table}.Sanitize()
	if store.indexName != "" {
		store.indexIdent = pgx.Identifier{store.indexName}.Sanitize()
	}
	if err := store.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func chooseTable(cfg *Config) string {
	if cfg == nil || cfg.Table == "" {
		return "verdict_chunks"
	}
	return cfg.Table
}

func chooseIndex(cfg *Config) string {
	if cfg != nil && cfg.Index != "" {
		return cfg.Index
	}
	return fmt.Sprintf("%s_embedding_idx", chooseTable(cfg))
}

func (p *pgStore) ensureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("pgvector: enable extension: %w", err)
	}
	createTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		embedding vector(%d),
		document TEXT,
		metadata JSONB,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`, p.tableIdent, p.dimension)
	if _, err := p.db.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("pgvector: create table: %w", err)
	}
	if p.ensureIdx {
		createIndex := fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS %s ON %s USING ivfflat (embedding vector_cosine_ops)",
			p.indexIdent,
			p.tableIdent,
		)
		if _, err := p.db.Exec(ctx, createIndex); err != nil {
			return fmt.Errorf("pgvector: create index: %w", err)
		}
	}
	return nil
}

func (p *pgStore) Upsert(ctx context.Context, records []Record) (err error) {
	if len(records) == 0 {
		return nil
	}
	tx, txErr := p.db.Begin(ctx)
	if txErr != nil {
		recordVectorError(ctx, ProviderPGVector, "upsert")
		return fmt.Errorf("pgvector: begin tx: %w", txErr)
	}
	defer func() {
		if err != nil {
			recordVectorError(ctx, ProviderPGVector, "upsert")
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("pgvector: rollback failed: %w; original error: %v", rbErr, err)
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("pgvector: commit: %w", commitErr)
			}
		}
	}()
	stmt := fmt.Sprintf(`INSERT INTO %s (id, embedding, document, metadata, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    embedding = excluded.embedding,
    document = excluded.document,
    metadata = excluded.metadata,
    updated_at = excluded.updated_at`, p.tableIdent)
	for i := range records {
		rec := records[i]
		if len(rec.Embedding) != p.dimension {
			return fmt.Errorf(
				"pgvector: record %q dimension mismatch (got %d want %d)",
				rec.ID,
				len(rec.Embedding),
				p.dimension,
			)
		}
		vector := pgvector.NewVector(rec.Embedding)
		metadata, marshalErr := json.Marshal(rec.Metadata)
		if marshalErr != nil {
			return fmt.Errorf("pgvector: marshal metadata for %q: %w", rec.ID, marshalErr)
		}
		if _, execErr := tx.Exec(ctx, stmt, rec.ID, vector, rec.Text, metadata, time.Now().UTC()); execErr != nil {
			return fmt.Errorf("pgvector: upsert %q: %w", rec.ID, execErr)
		}
	}
	return nil
}

func (p *pgStore) Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error) {
	if len(query) != p.dimension {
		return nil, fmt.Errorf("pgvector: query dimension mismatch (got %d want %d)", len(query), p.dimension)
	}
	started := time.Now()
	topK := clampTopK(opts.TopK, p.maxTopK)
	builder := strings.Builder{}
	builder.WriteString("SELECT id, document, metadata, embedding <=> $1 AS distance FROM ")
	builder.WriteString(p.tableIdent)
	builder.WriteString(" WHERE 1=1")
	args := []any{pgvector.NewVector(query)}
	argPos := 2
	for key, value := range opts.Filters {
		builder.WriteString(fmt.Sprintf(" AND metadata ->> $%d = $%d", argPos, argPos+1))
		args = append(args, key, value)
		argPos += 2
	}
	builder.WriteString(" ORDER BY embedding <=> $1 ASC LIMIT $")
	builder.WriteString(fmt.Sprint(argPos))
	args = append(args, topK)
	rows, err := p.db.Query(ctx, builder.String(), args...)
	if err != nil {
		recordVectorError(ctx, ProviderPGVector, "search")
		return nil, fmt.Errorf("pgvector: search: %w", err)
	}
	defer rows.Close()
	results := make([]Match, 0, topK)
	for rows.Next() {
		var (
			id          string
			document    string
			metadataRaw []byte
			distance    float64
		)
		if err := rows.Scan(&id, &document, &metadataRaw, &distance); err != nil {
			recordVectorError(ctx, ProviderPGVector, "search")
			return nil, fmt.Errorf("pgvector: scan: %w", err)
		}
		meta := make(map[string]any)
		if len(metadataRaw) > 0 {
			if unmarshalErr := json.Unmarshal(metadataRaw, &meta); unmarshalErr != nil {
				return nil, fmt.Errorf("pgvector: decode metadata: %w", unmarshalErr)
			}
		}
		results = append(results, Match{
			ID:       id,
			Distance: distance,
			Text:     document,
			Metadata: meta,
		})
	}
	if err := rows.Err(); err != nil {
		recordVectorError(ctx, ProviderPGVector, "search")
		return nil, fmt.Errorf("pgvector: search rows: %w", err)
	}
	observeSearch(ctx, ProviderPGVector, topK, started, results)
	return results, nil
}

func (p *pgStore) Count(ctx context.Context) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", p.tableIdent)
	if err := p.db.QueryRow(ctx, query).Scan(&count); err != nil {
		recordVectorError(ctx, ProviderPGVector, "count")
		return 0, fmt.Errorf("pgvector: count: %w", err)
	}
	return count, nil
}

func (p *pgStore) Delete(ctx context.Context, filter Filter) error {
	if len(filter.IDs) == 0 && len(filter.Metadata) == 0 {
		return nil
	}
	builder := strings.Builder{}
	builder.WriteString("DELETE FROM ")
	builder.WriteString(p.tableIdent)
	builder.WriteString(" WHERE 1=1")
	args := make([]any, 0)
	argPos := 1
	if len(filter.IDs) > 0 {
		builder.WriteString(fmt.Sprintf(" AND id = ANY($%d)", argPos))
		args = append(args, filter.IDs)
		argPos++
	}
	for key, value := range filter.Metadata {
		builder.WriteString(fmt.Sprintf(" AND metadata ->> $%d = $%d", argPos, argPos+1))
		args = append(args, key, value)
		argPos += 2
	}
	if _, err := p.db.Exec(ctx, builder.String(), args...); err != nil {
		recordVectorError(ctx, ProviderPGVector, "delete")
		return fmt.Errorf("pgvector: delete: %w", err)
	}
	return nil
}

func (p *pgStore) Close(_ context.Context) error {
	if p.pool != nil {
		untrackVectorPool(p.id)
		p.pool.Close()
	}
	return nil
}
