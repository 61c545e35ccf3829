package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zhanat-dev/observation-api/internal/service"
	appErrors "github.com/zhanat-dev/observation-api/pkg/errors"
	"github.com/zhanat-dev/observation-api/pkg/response"
)

// ReportHandler exposes the async feedback-report pipeline.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs a new ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Enqueue godoc
// @Summary Request a feedback sheet PDF for an event
// @Tags Reports
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 202 {object} response.Envelope
// @Router /reports/feedback/{eventId} [post]
func (h *ReportHandler) Enqueue(c *gin.Context) {
	job, err := h.reports.Enqueue(c.Request.Context(), c.Param("eventId"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Param jobId path string true "Report job ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{jobId} [get]
func (h *ReportHandler) Status(c *gin.Context) {
	status, err := h.reports.Status(c.Request.Context(), c.Param("jobId"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a rendered report via signed token
// @Tags Reports
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200
// @Router /reports/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token query parameter required"))
		return
	}

	file, filename, err := h.reports.Download(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read report file"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", file, nil)
}
