package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service owns the report lifecycle state machine:
// pending -> processing -> completed | failed, with regeneration resetting a
// record back to pending in place.
type Service struct {
	repo       Repository
	strategies map[ReportType]StrategyFunc
	logger     *zap.Logger

	// syncGeneration runs generation inside the request call stack. When
	// false the record is committed as pending and the worker picks it up;
	// the record's write sequence is the same either way.
	syncGeneration bool
}

// NewService creates a new reports service
func NewService(repo Repository, strategies map[ReportType]StrategyFunc, logger *zap.Logger, syncGeneration bool) *Service {
	return &Service{
		repo:           repo,
		strategies:     strategies,
		logger:         logger,
		syncGeneration: syncGeneration,
	}
}

// RequestNewReport validates the report type, persists a new pending record
// and triggers generation. Invalid types are rejected before anything is
// persisted.
func (s *Service) RequestNewReport(ctx context.Context, requesterID string, reportType ReportType) (*Report, error) {
	if !reportType.IsValid() {
		return nil, newValidationError("report type %q is not valid", reportType)
	}

	report := &Report{
		ID:            uuid.New(),
		RequestedByID: requesterID,
		ReportType:    reportType,
		Status:        ReportStatusPending,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report request: %w", err)
	}

	s.logger.Info("Report requested",
		zap.String("report_id", report.ID.String()),
		zap.String("report_type", string(reportType)),
		zap.String("requested_by", requesterID))

	return s.runAndReload(ctx, report)
}

// RegenerateReport resets an existing record to its pre-generation defaults
// and runs generation again. The id and report type never change.
func (s *Service) RegenerateReport(ctx context.Context, id uuid.UUID, requesterID string) (*Report, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	report.Status = ReportStatusPending
	report.ReportData = nil
	report.ErrorMessage = nil
	report.GeneratedAt = nil
	report.RequestedByID = requesterID
	report.CreatedAt = time.Now()

	if err := s.repo.Update(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to reset report: %w", err)
	}

	s.logger.Info("Report regeneration requested",
		zap.String("report_id", report.ID.String()),
		zap.String("requested_by", requesterID))

	return s.runAndReload(ctx, report)
}

// runAndReload runs generation when the service is synchronous, then returns
// the freshest view of the record.
func (s *Service) runAndReload(ctx context.Context, report *Report) (*Report, error) {
	if !s.syncGeneration {
		return report, nil
	}
	if err := s.GenerateReport(ctx, report.ID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, report.ID)
}

// GenerateReport is the execution engine. It marks the record processing,
// dispatches to the matching strategy and commits a terminal status on every
// exit path. Generation failures are captured into the record, never
// propagated; the returned error covers storage failures only.
func (s *Service) GenerateReport(ctx context.Context, id uuid.UUID) (err error) {
	report, getErr := s.repo.GetByID(ctx, id)
	if errors.Is(getErr, ErrReportNotFound) {
		// The record vanished between scheduling and execution.
		return nil
	}
	if getErr != nil {
		return getErr
	}

	// Commit the processing transition immediately so any concurrent reader
	// observes it.
	report.Status = ReportStatusProcessing
	if err := s.repo.Update(ctx, report); err != nil {
		return fmt.Errorf("failed to mark report processing: %w", err)
	}

	var payload JSONB
	var genErr error

	// The terminal commit runs whether the strategy returned or panicked, so
	// a record can never be left processing forever.
	defer func() {
		if r := recover(); r != nil {
			genErr = fmt.Errorf("report generation panicked: %v", r)
		}

		if genErr != nil {
			msg := genErr.Error()
			report.Status = ReportStatusFailed
			report.ReportData = nil
			report.ErrorMessage = &msg
			report.GeneratedAt = nil

			s.logger.Warn("Report generation failed",
				zap.String("report_id", report.ID.String()),
				zap.String("report_type", string(report.ReportType)),
				zap.Error(genErr))
		} else {
			now := time.Now()
			report.Status = ReportStatusCompleted
			report.ReportData = payload
			report.ErrorMessage = nil
			report.GeneratedAt = &now

			s.logger.Info("Report generated",
				zap.String("report_id", report.ID.String()),
				zap.String("report_type", string(report.ReportType)))
		}

		if commitErr := s.repo.Update(ctx, report); commitErr != nil {
			err = fmt.Errorf("failed to commit report status: %w", commitErr)
		}
	}()

	strategy, ok := s.strategies[report.ReportType]
	if !ok {
		genErr = fmt.Errorf("%w: %s", ErrUnsupportedType, report.ReportType)
		return
	}

	payload, genErr = strategy(ctx)
	return
}

// GetReportByID retrieves a single report
func (s *Service) GetReportByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.repo.GetByID(ctx, id)
}

// ListReports retrieves all reports, newest first
func (s *Service) ListReports(ctx context.Context) ([]*Report, error) {
	return s.repo.List(ctx)
}

// PendingReports lists pending records for the background worker.
func (s *Service) PendingReports(ctx context.Context, limit int) ([]*Report, error) {
	return s.repo.ListPending(ctx, limit)
}
