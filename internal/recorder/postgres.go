package recorder

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spigell/jobthai-scout/internal/candidate"
)

// DefaultPostgresTable is used when no table is configured.
const DefaultPostgresTable = "jobthai_candidates"

const postgresSchema = `
CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	run_id UUID NOT NULL,
	candidate_id TEXT NOT NULL,
	keyword TEXT,
	name TEXT,
	age TEXT,
	gender TEXT,
	phone TEXT,
	email TEXT,
	province TEXT,
	degree TEXT,
	degree_rank INTEGER,
	institution TEXT,
	faculty TEXT,
	major TEXT,
	positions TEXT,
	categories TEXT,
	companies TEXT,
	watchlists TEXT,
	salary_min DOUBLE PRECISION,
	salary_max DOUBLE PRECISION,
	last_update TEXT,
	days_since_update INTEGER,
	link TEXT,
	image_path TEXT,
	scraped_at TIMESTAMPTZ,
	payload JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Postgres writes candidate rows to a PostgreSQL table.
type Postgres struct {
	pool   *pgxpool.Pool
	table  string
	runID  uuid.UUID
	logger *zap.Logger
}

// ConnectPostgres opens a pool, verifies it and creates the table if needed.
func ConnectPostgres(ctx context.Context, dsn, table string, runID uuid.UUID, logger *zap.Logger) (*Postgres, error) {
	if table == "" {
		table = DefaultPostgresTable
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	ident := pgx.Identifier{table}.Sanitize()
	if _, err := pool.Exec(ctx, fmt.Sprintf(postgresSchema, ident)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", ident, err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{pool: pool, table: ident, runID: runID, logger: logger}, nil
}

func (p *Postgres) Name() string { return "postgres" }

// Append inserts records in one transaction.
func (p *Postgres) Append(ctx context.Context, records []*candidate.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, chunk := range chunked(records, insertChunk) {
		query, args, err := postgresInsert(p.table, p.runID, chunk)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert candidates: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	p.logger.Debug("postgres rows inserted", zap.String("run_id", p.runID.String()), zap.Int("count", len(records)))
	return nil
}

func postgresInsert(table string, runID uuid.UUID, records []*candidate.Record) (string, []any, error) {
	insert := sq.Insert(table).Columns(columns...).PlaceholderFormat(sq.Dollar)
	for _, r := range records {
		vals, err := values(runID, r)
		if err != nil {
			return "", nil, fmt.Errorf("encoding %s: %w", r.ID, err)
		}
		insert = insert.Values(vals...)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("building insert: %w", err)
	}
	return query, args, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
