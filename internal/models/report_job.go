package models

import "time"

// ReportStatus tracks feedback-sheet export job progress.
type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "PENDING"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusCompleted  ReportStatus = "COMPLETED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportJob is a queued feedback-sheet PDF generation job.
type ReportJob struct {
	ID           string       `db:"id" json:"id"`
	EventID      string       `db:"event_id" json:"event_id"`
	RequestedBy  string       `db:"requested_by" json:"requested_by"`
	Status       ReportStatus `db:"status" json:"status"`
	FilePath     *string      `db:"file_path" json:"file_path,omitempty"`
	ErrorMessage *string      `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}
