package dto

import "github.com/zhanat-dev/observation-api/internal/models"

// ReportJobResponse is returned after enqueueing a feedback-sheet export.
type ReportJobResponse struct {
	ID     string              `json:"id"`
	Status models.ReportStatus `json:"status"`
}

// ReportStatusResponse exposes job progress and the signed download URL
// once the PDF is ready.
type ReportStatusResponse struct {
	ID          string              `json:"id"`
	EventID     string              `json:"eventId"`
	Status      models.ReportStatus `json:"status"`
	DownloadURL *string             `json:"downloadUrl,omitempty"`
	Error       *string             `json:"error,omitempty"`
}
