package reports

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// =====================================================
// Enums and Constants
// =====================================================

// ReportStatus represents the lifecycle status of a report
type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "pending"
	ReportStatusProcessing ReportStatus = "processing"
	ReportStatusCompleted  ReportStatus = "completed"
	ReportStatusFailed     ReportStatus = "failed"
)

// ReportType represents the kind of report to generate
type ReportType string

const (
	ReportTypeSalesSummary    ReportType = "sales_summary"
	ReportTypeUserActivity    ReportType = "user_activity"
	ReportTypeInventoryLevels ReportType = "inventory_levels"
)

// ValidReportTypes is the closed set of report types accepted at creation time.
var ValidReportTypes = []ReportType{
	ReportTypeSalesSummary,
	ReportTypeUserActivity,
	ReportTypeInventoryLevels,
}

// IsValid reports whether t belongs to the closed type enumeration.
func (t ReportType) IsValid() bool {
	for _, valid := range ValidReportTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// =====================================================
// JSON Types for JSONB columns
// =====================================================

// JSONB is a wrapper for JSONB columns
type JSONB map[string]interface{}

// Value implements driver.Valuer
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// =====================================================
// Core Models
// =====================================================

// Report tracks one request for aggregated data and its outcome.
//
// Exactly one of ReportData and ErrorMessage is set once the report reaches a
// terminal status: completed carries data, failed carries the error text.
// While pending or processing both are null.
type Report struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	RequestedByID string       `json:"requestedById" db:"requested_by_id"`
	ReportType    ReportType   `json:"reportType" db:"report_type"`
	Status        ReportStatus `json:"status" db:"status"`
	ReportData    JSONB        `json:"reportData" db:"report_data"`
	ErrorMessage  *string      `json:"errorMessage" db:"error_message"`
	CreatedAt     time.Time    `json:"createdAt" db:"created_at"`
	GeneratedAt   *time.Time   `json:"generatedAt" db:"generated_at"`
}

// CreateReportRequest is the body of POST /api/reports/
type CreateReportRequest struct {
	ReportType ReportType `json:"reportType"`
}
