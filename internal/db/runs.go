package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
)

// ErrRunNotFound is returned when no archived run has the requested ID
var ErrRunNotFound = errors.New("scan run not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS scan_runs (
	id            uuid PRIMARY KEY,
	filename      text NOT NULL DEFAULT '',
	pages         integer NOT NULL DEFAULT 0,
	total         integer NOT NULL DEFAULT 0,
	passed        integer NOT NULL DEFAULT 0,
	failed        integer NOT NULL DEFAULT 0,
	absent        integer NOT NULL DEFAULT 0,
	detained      integer NOT NULL DEFAULT 0,
	unknown       integer NOT NULL DEFAULT 0,
	pdf_object    text NOT NULL DEFAULT '',
	export_object text NOT NULL DEFAULT '',
	created_by    text NOT NULL DEFAULT '',
	created_at    timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_records (
	run_id        uuid NOT NULL REFERENCES scan_runs(id) ON DELETE CASCADE,
	position      integer NOT NULL,
	enrollment_no text NOT NULL,
	name          text NOT NULL,
	marks         numeric,
	status        text NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS operators (
	id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	email         text NOT NULL UNIQUE,
	name          text NOT NULL DEFAULT '',
	role          text NOT NULL DEFAULT 'operator',
	password_hash text NOT NULL,
	active        boolean NOT NULL DEFAULT true,
	last_login_at timestamptz,
	created_at    timestamptz NOT NULL DEFAULT now()
);`

// Run is one archived scan: its summary plus the classified records in document order
type Run struct {
	ID           uuid.UUID              `json:"id"`
	Filename     string                 `json:"filename"`
	Pages        int                    `json:"pages"`
	Summary      models.Summary         `json:"summary"`
	PDFObject    string                 `json:"pdfObject,omitempty"`
	ExportObject string                 `json:"exportObject,omitempty"`
	CreatedBy    string                 `json:"createdBy,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	Records      []models.StudentRecord `json:"records,omitempty"`
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create archive tables: %w", err)
	}
	return nil
}

// SaveRun stores the run and its records in one transaction
func SaveRun(ctx context.Context, run *Run) error {
	if Pool == nil {
		return ErrNotConfigured
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	tx, err := Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	s := run.Summary
	err = tx.QueryRow(ctx, `
		INSERT INTO scan_runs (
			id, filename, pages, total, passed, failed, absent, detained, unknown,
			pdf_object, export_object, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`, run.ID, run.Filename, run.Pages, s.Total, s.Passed, s.Failed, s.Absent, s.Detained, s.Unknown,
		run.PDFObject, run.ExportObject, run.CreatedBy,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for i, r := range run.Records {
		batch.Queue(`
			INSERT INTO run_records (run_id, position, enrollment_no, name, marks, status)
			VALUES ($1, $2, $3, $4, $5::text::numeric, $6)
		`, run.ID, i, r.EnrollmentNo, r.Name, marksText(r.Marks), string(r.Status))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert records: %w", err)
	}

	return tx.Commit(ctx)
}

// GetRuns lists archived runs, newest first, without their records
func GetRuns(ctx context.Context, limit int) ([]Run, error) {
	if Pool == nil {
		return nil, ErrNotConfigured
	}

	rows, err := Pool.Query(ctx, `
		SELECT id, filename, pages, total, passed, failed, absent, detained, unknown,
		       pdf_object, export_object, created_by, created_at
		FROM scan_runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRunByID retrieves a run with its records in document order
func GetRunByID(ctx context.Context, id string) (*Run, error) {
	if Pool == nil {
		return nil, ErrNotConfigured
	}
	runID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrRunNotFound
	}

	run, err := scanRun(Pool.QueryRow(ctx, `
		SELECT id, filename, pages, total, passed, failed, absent, detained, unknown,
		       pdf_object, export_object, created_by, created_at
		FROM scan_runs
		WHERE id = $1
	`, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := Pool.Query(ctx, `
		SELECT enrollment_no, name, marks::text, status
		FROM run_records
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r      models.StudentRecord
			marks  *string
			status string
		)
		if err := rows.Scan(&r.EnrollmentNo, &r.Name, &marks, &status); err != nil {
			return nil, err
		}
		r.Status = models.Status(status)
		if r.Marks, err = parseMarksText(marks); err != nil {
			return nil, err
		}
		run.Records = append(run.Records, r)
	}
	return run, rows.Err()
}

// DeleteRun removes a run and its records
func DeleteRun(ctx context.Context, id string) error {
	if Pool == nil {
		return ErrNotConfigured
	}
	runID, err := uuid.Parse(id)
	if err != nil {
		return ErrRunNotFound
	}

	tag, err := Pool.Exec(ctx, `DELETE FROM scan_runs WHERE id = $1`, runID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	s := &run.Summary
	err := row.Scan(
		&run.ID, &run.Filename, &run.Pages,
		&s.Total, &s.Passed, &s.Failed, &s.Absent, &s.Detained, &s.Unknown,
		&run.PDFObject, &run.ExportObject, &run.CreatedBy, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// marksText renders marks for the numeric column; NULL when absent
func marksText(m decimal.NullDecimal) *string {
	if !m.Valid {
		return nil
	}
	s := m.Decimal.String()
	return &s
}

// parseMarksText reads marks selected as marks::text
func parseMarksText(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("record marks %q: %w", *s, err)
	}
	return decimal.NewNullDecimal(d), nil
}
