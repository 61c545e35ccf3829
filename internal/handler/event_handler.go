package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zhanat-dev/observation-api/internal/dto"
	"github.com/zhanat-dev/observation-api/internal/models"
	"github.com/zhanat-dev/observation-api/internal/service"
	appErrors "github.com/zhanat-dev/observation-api/pkg/errors"
	"github.com/zhanat-dev/observation-api/pkg/export"
	"github.com/zhanat-dev/observation-api/pkg/response"
)

// EventHandler wires observation event services to HTTP routes.
type EventHandler struct {
	events *service.EventService
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
}

// NewEventHandler constructs a new EventHandler.
func NewEventHandler(events *service.EventService) *EventHandler {
	return &EventHandler{
		events: events,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
	}
}

// List godoc
// @Summary List observation events
// @Tags Events
// @Produce json
// @Param search query string false "Search by title/description/leader name"
// @Param controllerType query string false "Filter by controller type"
// @Param classId query string false "Filter by class"
// @Param hasFeedback query bool false "Filter by feedback presence"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	filter := h.filterFromQuery(c)

	events, pagination, err := h.events.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Get observation event detail
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.events.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Create godoc
// @Summary Create observation event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.EventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	event, err := h.events.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update observation event
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body dto.EventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	var req dto.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	event, err := h.events.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete observation event
// @Tags Events
// @Param id path string true "Event ID"
// @Success 204
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.events.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export filtered events as CSV or PDF
// @Tags Events
// @Produce application/octet-stream
// @Param format query string false "Export format (csv/pdf)"
// @Success 200
// @Router /events/export [get]
func (h *EventHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	if format != "csv" && format != "pdf" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}

	filter := h.filterFromQuery(c)
	filter.Page = 1
	filter.PageSize = 100

	var rows []models.EventDetail
	for {
		page, _, err := h.events.List(c.Request.Context(), filter, claimsFromContext(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		rows = append(rows, page...)
		if len(page) < filter.PageSize {
			break
		}
		filter.Page++
	}

	dataset := eventDataset(rows)
	filename := fmt.Sprintf("observation-events-%s.%s", time.Now().UTC().Format("2006-01-02"), format)

	var payload []byte
	var contentType string
	var err error
	switch format {
	case "pdf":
		payload, err = h.pdf.Render(dataset, "Observation Events")
		contentType = "application/pdf"
	default:
		payload, err = h.csv.Render(dataset)
		contentType = "text/csv"
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to render export"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

func (h *EventHandler) filterFromQuery(c *gin.Context) models.EventFilter {
	filter := models.EventFilter{
		Search:         strings.TrimSpace(c.Query("search")),
		ControllerType: c.Query("controllerType"),
		ClassID:        c.Query("classId"),
	}
	if has := c.Query("hasFeedback"); has != "" {
		switch strings.ToLower(has) {
		case "true":
			val := true
			filter.HasFeedback = &val
		case "false":
			val := false
			filter.HasFeedback = &val
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil {
		filter.PageSize = size
	}
	return filter
}

func eventDataset(events []models.EventDetail) export.Dataset {
	headers := []string{"Title", "Controller", "Team Leader", "Class", "Start", "End", "Participants", "Feedback"}
	rows := make([]map[string]string, 0, len(events))
	for _, e := range events {
		className := ""
		if e.ClassName != nil {
			className = *e.ClassName
		}
		feedback := "no"
		if e.HasFeedback() {
			feedback = "yes"
		}
		rows = append(rows, map[string]string{
			"Title":        e.Title,
			"Controller":   string(e.ControllerType),
			"Team Leader":  e.TeamLeaderName,
			"Class":        className,
			"Start":        e.StartTime.UTC().Format(time.RFC3339),
			"End":          e.EndTime.UTC().Format(time.RFC3339),
			"Participants": strconv.Itoa(len(e.Participants)),
			"Feedback":     feedback,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
