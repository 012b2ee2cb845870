package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines the interface for report record access
type Repository interface {
	Create(ctx context.Context, report *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	List(ctx context.Context) ([]*Report, error)
	Update(ctx context.Context, report *Report) error
	ListPending(ctx context.Context, limit int) ([]*Report, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the reports table if it does not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS reports (
			id UUID PRIMARY KEY,
			requested_by_id TEXT NOT NULL,
			report_type TEXT NOT NULL,
			status TEXT NOT NULL,
			report_data JSONB,
			error_message TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			generated_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
		CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at DESC);
	`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create reports schema: %w", err)
	}
	return nil
}

// Create inserts a new report record in its own transaction
func (r *PostgresRepository) Create(ctx context.Context, report *Report) error {
	query := `
		INSERT INTO reports (id, requested_by_id, report_type, status, report_data, error_message, created_at, generated_at)
		VALUES (:id, :requested_by_id, :report_type, :status, :report_data, :error_message, :created_at, :generated_at)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.NamedExecContext(ctx, query, report); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report insert: %w", err)
	}
	return nil
}

// GetByID retrieves a report by ID
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	query := `
		SELECT id, requested_by_id, report_type, status, report_data, error_message, created_at, generated_at
		FROM reports
		WHERE id = $1
	`

	var report Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

// List retrieves all reports, newest first
func (r *PostgresRepository) List(ctx context.Context) ([]*Report, error) {
	query := `
		SELECT id, requested_by_id, report_type, status, report_data, error_message, created_at, generated_at
		FROM reports
		ORDER BY created_at DESC
	`

	reports := []*Report{}
	if err := r.db.SelectContext(ctx, &reports, query); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// Update saves all mutable fields of a report in its own transaction
func (r *PostgresRepository) Update(ctx context.Context, report *Report) error {
	query := `
		UPDATE reports SET
			requested_by_id = :requested_by_id,
			status = :status,
			report_data = :report_data,
			error_message = :error_message,
			created_at = :created_at,
			generated_at = :generated_at
		WHERE id = :id
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	result, err := tx.NamedExecContext(ctx, query, report)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update report: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		tx.Rollback()
		return ErrReportNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report update: %w", err)
	}
	return nil
}

// ListPending retrieves pending reports, oldest first, for the worker
func (r *PostgresRepository) ListPending(ctx context.Context, limit int) ([]*Report, error) {
	query := `
		SELECT id, requested_by_id, report_type, status, report_data, error_message, created_at, generated_at
		FROM reports
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	reports := []*Report{}
	if err := r.db.SelectContext(ctx, &reports, query, ReportStatusPending, limit); err != nil {
		return nil, fmt.Errorf("failed to list pending reports: %w", err)
	}
	return reports, nil
}
