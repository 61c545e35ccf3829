package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhanat-dev/observation-api/internal/models"
	appErrors "github.com/zhanat-dev/observation-api/pkg/errors"
)

type auditListerStub struct {
	logs     []models.AuditLog
	err      error
	resource string
	limit    int
}

func (s *auditListerStub) ListByResource(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error) {
	s.resource = resource
	s.limit = limit
	return s.logs, s.err
}

func TestAuditServiceHistory(t *testing.T) {
	lister := &auditListerStub{logs: []models.AuditLog{{ID: "a1", Action: models.AuditActionEventUpdate}}}
	svc := NewAuditService(lister, nil)

	logs, err := svc.History(context.Background(), "event", "e1", 20)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionEventUpdate, logs[0].Action)
	assert.Equal(t, "event", lister.resource)
	assert.Equal(t, 20, lister.limit)
}

func TestAuditServiceHistoryRequiresResourceAndID(t *testing.T) {
	svc := NewAuditService(&auditListerStub{}, nil)

	_, err := svc.History(context.Background(), "", "e1", 10)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrValidation.Code, typed.Code)

	_, err = svc.History(context.Background(), "event", "", 10)
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrValidation.Code, typed.Code)
}

func TestAuditServiceHistoryWrapsRepositoryFailure(t *testing.T) {
	lister := &auditListerStub{err: errors.New("connection reset")}
	svc := NewAuditService(lister, nil)

	_, err := svc.History(context.Background(), "event", "e1", 10)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrInternal.Code, typed.Code)
}
