package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zhanat-dev/observation-api/internal/dto"
	"github.com/zhanat-dev/observation-api/internal/timetable"
	appErrors "github.com/zhanat-dev/observation-api/pkg/errors"
	"github.com/zhanat-dev/observation-api/pkg/response"
)

// TimetableHandler exposes the configured lesson-period catalog.
type TimetableHandler struct {
	catalog *timetable.Catalog
}

// NewTimetableHandler constructs a new TimetableHandler.
func NewTimetableHandler(catalog *timetable.Catalog) *TimetableHandler {
	return &TimetableHandler{catalog: catalog}
}

// Periods godoc
// @Summary List configured lesson periods
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/periods [get]
func (h *TimetableHandler) Periods(c *gin.Context) {
	periods := h.catalog.Periods()
	items := make([]dto.PeriodItem, 0, len(periods))
	for _, p := range periods {
		items = append(items, dto.PeriodItem{
			Number: p.Number,
			Start:  p.Start.String(),
			End:    p.End.String(),
		})
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Resolve godoc
// @Summary Resolve a timestamp onto a lesson period
// @Tags Timetable
// @Produce json
// @Param timestamp query string true "RFC3339 timestamp"
// @Success 200 {object} response.Envelope
// @Router /timetable/resolve [get]
func (h *TimetableHandler) Resolve(c *gin.Context) {
	raw := c.Query("timestamp")
	if raw == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "timestamp query parameter required"))
		return
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "timestamp must be RFC3339"))
		return
	}

	result := dto.ResolvePeriodResponse{Custom: true}
	if number, ok := h.catalog.Resolve(at); ok {
		result.Period = &number
		result.Custom = false
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Materialize godoc
// @Summary Materialize a period number onto a calendar date
// @Tags Timetable
// @Produce json
// @Param period query int true "Period number"
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /timetable/materialize [get]
func (h *TimetableHandler) Materialize(c *gin.Context) {
	number, err := strconv.Atoi(c.Query("period"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "period must be an integer"))
		return
	}
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		date, err = time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD"))
			return
		}
	}

	start, end, err := h.catalog.Materialize(number, date.UTC())
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unknown period"))
		return
	}
	response.JSON(c, http.StatusOK, dto.MaterializePeriodResponse{Period: number, Start: start, End: end}, nil)
}
