package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/spigell/jobthai-scout/internal/candidate"
)

const sqliteTable = "candidates"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS candidates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
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
	salary_min REAL,
	salary_max REAL,
	last_update TEXT,
	days_since_update INTEGER,
	link TEXT,
	image_path TEXT,
	scraped_at TIMESTAMP,
	payload TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_candidates_candidate_id ON candidates(candidate_id);
`

// SQLite keeps the candidate log in a local database file.
type SQLite struct {
	db     *sql.DB
	runID  uuid.UUID
	logger *zap.Logger
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema. ":memory:" keeps everything in a single in-memory connection.
func OpenSQLite(ctx context.Context, path string, runID uuid.UUID, logger *zap.Logger) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying sqlite schema: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLite{db: db, runID: runID, logger: logger}, nil
}

func (s *SQLite) Name() string { return "sqlite" }

// Append inserts records in one transaction.
func (s *SQLite) Append(ctx context.Context, records []*candidate.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, chunk := range chunked(records, insertChunk) {
		insert := sq.Insert(sqliteTable).Columns(columns...).PlaceholderFormat(sq.Question)
		for _, r := range chunk {
			vals, err := values(s.runID.String(), r)
			if err != nil {
				return fmt.Errorf("encoding %s: %w", r.ID, err)
			}
			insert = insert.Values(vals...)
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("building insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting candidates: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("sqlite rows inserted", zap.String("run_id", s.runID.String()), zap.Int("count", len(records)))
	return nil
}

// StoredCandidate is a summary row read back from the database.
type StoredCandidate struct {
	RunID           string
	CandidateID     string
	Keyword         string
	Name            string
	DaysSinceUpdate int
	Link            string
}

// Recent returns up to limit rows, newest first. An empty candidateID lists
// every candidate.
func (s *SQLite) Recent(ctx context.Context, candidateID string, limit uint64) ([]StoredCandidate, error) {
	q := sq.Select("run_id", "candidate_id", "keyword", "name", "days_since_update", "link").
		From(sqliteTable).
		OrderBy("id DESC").
		Limit(limit)
	if candidateID != "" {
		q = q.Where(sq.Eq{"candidate_id": candidateID})
	}

	rows, err := q.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	var out []StoredCandidate
	for rows.Next() {
		var c StoredCandidate
		if err := rows.Scan(&c.RunID, &c.CandidateID, &c.Keyword, &c.Name, &c.DaysSinceUpdate, &c.Link); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
