package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zhanat-dev/observation-api/internal/service"
	"github.com/zhanat-dev/observation-api/pkg/response"
)

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	audits *service.AuditService
}

// NewAuditHandler constructs a new AuditHandler.
func NewAuditHandler(audits *service.AuditService) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// History godoc
// @Summary Audit trail for a resource instance
// @Tags Audit
// @Produce json
// @Param resource query string true "Resource kind (event, feedback, teacher, class, subject, lesson)"
// @Param id query string true "Resource identifier"
// @Param limit query int false "Maximum entries to return"
// @Success 200 {object} response.Envelope
// @Router /audit [get]
func (h *AuditHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.audits.History(c.Request.Context(), c.Query("resource"), c.Query("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
