package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zhanat-dev/observation-api/internal/dto"
	"github.com/zhanat-dev/observation-api/internal/models"
	"github.com/zhanat-dev/observation-api/internal/service"
	appErrors "github.com/zhanat-dev/observation-api/pkg/errors"
	"github.com/zhanat-dev/observation-api/pkg/response"
)

// FeedbackHandler wires feedback sheet services to HTTP routes.
type FeedbackHandler struct {
	feedback *service.FeedbackService
}

// NewFeedbackHandler constructs a new FeedbackHandler.
func NewFeedbackHandler(feedback *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// List godoc
// @Summary List feedback sheets
// @Tags Feedback
// @Produce json
// @Param search query string false "Search by observer or event title"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /feedback [get]
func (h *FeedbackHandler) List(c *gin.Context) {
	filter := models.FeedbackFilter{
		Search: strings.TrimSpace(c.Query("search")),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil {
		filter.PageSize = size
	}

	sheets, pagination, err := h.feedback.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheets, pagination)
}

// Get godoc
// @Summary Get feedback sheet detail
// @Tags Feedback
// @Produce json
// @Param id path string true "Feedback ID"
// @Success 200 {object} response.Envelope
// @Router /feedback/{id} [get]
func (h *FeedbackHandler) Get(c *gin.Context) {
	sheet, err := h.feedback.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// GetByEvent godoc
// @Summary Get the feedback sheet attached to an event
// @Tags Feedback
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/feedback [get]
func (h *FeedbackHandler) GetByEvent(c *gin.Context) {
	sheet, err := h.feedback.GetByEvent(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Schema godoc
// @Summary Describe the feedback sheet structure
// @Tags Feedback
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /feedback/schema [get]
func (h *FeedbackHandler) Schema(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.feedback.Schema(), nil)
}

// Create godoc
// @Summary Create feedback sheet
// @Tags Feedback
// @Accept json
// @Produce json
// @Param payload body dto.FeedbackRequest true "Feedback payload"
// @Success 201 {object} response.Envelope
// @Router /feedback [post]
func (h *FeedbackHandler) Create(c *gin.Context) {
	var req dto.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}
	sheet, err := h.feedback.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sheet)
}

// Update godoc
// @Summary Update feedback sheet
// @Tags Feedback
// @Accept json
// @Produce json
// @Param id path string true "Feedback ID"
// @Param payload body dto.FeedbackRequest true "Feedback payload"
// @Success 200 {object} response.Envelope
// @Router /feedback/{id} [put]
func (h *FeedbackHandler) Update(c *gin.Context) {
	var req dto.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}
	sheet, err := h.feedback.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Delete godoc
// @Summary Delete feedback sheet
// @Tags Feedback
// @Param id path string true "Feedback ID"
// @Success 204
// @Router /feedback/{id} [delete]
func (h *FeedbackHandler) Delete(c *gin.Context) {
	if err := h.feedback.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
