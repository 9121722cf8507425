package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dstepanov-dev/pdf-digest/internal/core/domain"
)

type FileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *FileRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS batches (
	id TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
	id TEXT PRIMARY KEY,
	batch_id TEXT NOT NULL REFERENCES batches(id),
	position INTEGER NOT NULL,
	filename TEXT NOT NULL,
	url TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	pages INTEGER NOT NULL DEFAULT 0,
	text_length INTEGER NOT NULL DEFAULT 0,
	hidden BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_batch_position ON files(batch_id, position);
CREATE INDEX IF NOT EXISTS idx_files_status ON files(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *FileRepository) CreateBatch(ctx context.Context, batch *domain.Batch) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO batches (id, created_at) VALUES ($1, $2)
`, batch.ID, batch.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (r *FileRepository) Create(ctx context.Context, rec *domain.FileRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO files (
	id, batch_id, position, filename, url, status, summary, error_message, pages, text_length, hidden, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`,
		rec.ID, rec.BatchID, rec.Position, rec.Filename, rec.URL, string(rec.Status),
		rec.Summary, rec.ErrorMessage, rec.Pages, rec.TextLength, rec.Hidden, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

const fileColumns = `id, batch_id, position, filename, url, status, summary, error_message, pages, text_length, hidden, created_at, updated_at`

func (r *FileRepository) GetByID(ctx context.Context, id string) (*domain.FileRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+fileColumns+`
FROM files
WHERE id = $1
`, id)

	rec, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrFileNotFound, "get file", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return rec, nil
}

// ListByBatch returns visible records ordered by submission position, never
// by completion time.
func (r *FileRepository) ListByBatch(ctx context.Context, batchID string) ([]domain.FileRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+fileColumns+`
FROM files
WHERE batch_id = $1 AND NOT hidden
ORDER BY position ASC
`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query batch files: %w", err)
	}
	defer rows.Close()

	var records []domain.FileRecord
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch file: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch files: %w", err)
	}
	return records, nil
}

// UpdateStatus applies a forward-only transition. The current status is read
// first and re-checked in the WHERE clause, so a concurrent transition loses
// instead of rewinding the lifecycle.
func (r *FileRepository) UpdateStatus(ctx context.Context, id string, status domain.FileStatus, errMessage string) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !current.Status.CanTransitionTo(status) {
		return domain.WrapError(domain.ErrValidation, "update status",
			fmt.Errorf("illegal transition %s -> %s for id=%s", current.Status, status, id))
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE files
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1 AND status = $5
`, id, string(status), errMessage, time.Now().UTC(), string(current.Status))
	if err != nil {
		return fmt.Errorf("update file status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update file status result: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrValidation, "update status",
			fmt.Errorf("lost transition race for id=%s", id))
	}
	return nil
}

func (r *FileRepository) SaveSummary(ctx context.Context, id string, result domain.SummaryResult) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE files
SET summary = $2, pages = $3, text_length = $4, updated_at = $5
WHERE id = $1
`, id, result.Summary, result.Metadata.Pages, result.Metadata.TextLength, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save summary result: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrFileNotFound, "save summary", fmt.Errorf("id=%s", id))
	}
	return nil
}

func (r *FileRepository) SetHidden(ctx context.Context, batchID, id string, hidden bool) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE files
SET hidden = $3, updated_at = $4
WHERE id = $1 AND batch_id = $2
`, id, batchID, hidden, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set hidden: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set hidden result: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrFileNotFound, "set hidden", fmt.Errorf("id=%s batch=%s", id, batchID))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*domain.FileRecord, error) {
	var rec domain.FileRecord
	var status string
	err := row.Scan(
		&rec.ID, &rec.BatchID, &rec.Position, &rec.Filename, &rec.URL, &status,
		&rec.Summary, &rec.ErrorMessage, &rec.Pages, &rec.TextLength, &rec.Hidden,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = domain.FileStatus(status)
	return &rec, nil
}
