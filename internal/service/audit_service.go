package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/zhanat-dev/observation-api/internal/models"
	appErrors "github.com/zhanat-dev/observation-api/pkg/errors"
)

type auditLister interface {
	ListByResource(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error)
}

// AuditService reads the audit trail back out for administrators.
type AuditService struct {
	audits auditLister
	logger *zap.Logger
}

// NewAuditService builds an AuditService.
func NewAuditService(audits auditLister, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{audits: audits, logger: logger}
}

// History returns the most recent audit entries for one resource instance.
func (s *AuditService) History(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error) {
	if resource == "" || resourceID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "resource and id are required")
	}
	logs, err := s.audits.ListByResource(ctx, resource, resourceID, limit)
	if err != nil {
		s.logger.Error("failed to list audit trail", zap.String("resource", resource), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to list audit trail")
	}
	return logs, nil
}
