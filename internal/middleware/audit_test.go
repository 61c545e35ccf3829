package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhanat-dev/observation-api/internal/models"
)

type auditRecorderStub struct {
	entries []*models.AuditLog
}

func (s *auditRecorderStub) Create(ctx context.Context, log *models.AuditLog) error {
	s.entries = append(s.entries, log)
	return nil
}

func TestAuditRecordsSingleEntryOnSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &auditRecorderStub{}

	r := gin.New()
	r.PUT("/teachers/:id", Audit(recorder, models.AuditActionCatalogUpdate, "teacher"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/teachers/t42", nil)
	r.ServeHTTP(w, req)

	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, models.AuditActionCatalogUpdate, entry.Action)
	assert.Equal(t, "teacher", entry.Resource)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "t42", *entry.ResourceID)
}

func TestAuditSkipsFailedRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &auditRecorderStub{}

	r := gin.New()
	r.POST("/teachers", Audit(recorder, models.AuditActionCatalogCreate, "teacher"), func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/teachers", nil)
	r.ServeHTTP(w, req)

	assert.Empty(t, recorder.entries)
}
