package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/zhanat-dev/observation-api/internal/dto"
	"github.com/zhanat-dev/observation-api/internal/models"
	appErrors "github.com/zhanat-dev/observation-api/pkg/errors"
)

type feedbackStore interface {
	List(ctx context.Context, filter models.FeedbackFilter) ([]models.FeedbackDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.FeedbackDetail, error)
	FindByEventID(ctx context.Context, eventID string) (*models.Feedback, error)
	Create(ctx context.Context, sheet *models.Feedback) error
	Update(ctx context.Context, sheet *models.Feedback) error
	Delete(ctx context.Context, id string) error
}

type feedbackEventReader interface {
	FindByID(ctx context.Context, id string) (*models.EventDetail, error)
}

// FeedbackService orchestrates feedback sheet workflows. A sheet binds to
// exactly one event at creation and the binding never changes afterwards.
type FeedbackService struct {
	repo      feedbackStore
	events    feedbackEventReader
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
	pageSize  int
}

// NewFeedbackService builds a FeedbackService with sane defaults.
func NewFeedbackService(
	repo feedbackStore,
	events feedbackEventReader,
	audit auditLogger,
	validate *validator.Validate,
	logger *zap.Logger,
	pageSize int,
) *FeedbackService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	return &FeedbackService{
		repo:      repo,
		events:    events,
		audit:     audit,
		validator: validate,
		logger:    logger,
		pageSize:  pageSize,
	}
}

// List returns feedback sheets visible to the caller.
func (s *FeedbackService) List(ctx context.Context, filter models.FeedbackFilter, claims *models.JWTClaims) ([]models.FeedbackDetail, *models.Pagination, error) {
	if claims == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleTeacher {
		filter.ScopeTeacherID = claims.UserID
	}
	if filter.PageSize <= 0 {
		filter.PageSize = s.pageSize
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	sheets, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list feedback")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return sheets, pagination, nil
}

// Get returns a single feedback sheet, applying event visibility.
func (s *FeedbackService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.FeedbackDetail, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	sheet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feedback")
	}
	if err := s.ensureEventVisible(ctx, sheet.EventID, claims); err != nil {
		return nil, err
	}
	return sheet, nil
}

// GetByEvent returns the sheet attached to an event.
func (s *FeedbackService) GetByEvent(ctx context.Context, eventID string, claims *models.JWTClaims) (*models.Feedback, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.ensureEventVisible(ctx, eventID, claims); err != nil {
		return nil, err
	}
	sheet, err := s.repo.FindByEventID(ctx, eventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event has no feedback sheet")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feedback")
	}
	return sheet, nil
}

// Schema returns the static checklist layout.
func (s *FeedbackService) Schema() dto.FeedbackSchema {
	return dto.FeedbackSchemaDefinition
}

// Create validates and persists a new feedback sheet. The unique index on
// the event binding decides the winner of concurrent creates.
func (s *FeedbackService) Create(ctx context.Context, req dto.FeedbackRequest, claims *models.JWTClaims) (*models.Feedback, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	event, err := s.events.FindByID(ctx, req.EventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrReference, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if !s.eventVisible(event, claims) {
		return nil, appErrors.ErrForbidden
	}

	sheet := sheetFromRequest(req)
	sheet.EventID = req.EventID
	if err := s.repo.Create(ctx, sheet); err != nil {
		var typed *appErrors.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create feedback")
	}
	s.emitAudit(ctx, claims, models.AuditActionFeedbackCreate, sheet.ID, nil, sheet)
	return sheet, nil
}

// Update rewrites sheet content. Any event binding carried in the payload
// is ignored; the stored binding wins.
func (s *FeedbackService) Update(ctx context.Context, id string, req dto.FeedbackRequest, claims *models.JWTClaims) (*models.Feedback, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feedback")
	}
	if err := s.ensureEventVisible(ctx, existing.EventID, claims); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	sheet := sheetFromRequest(req)
	sheet.ID = existing.ID
	sheet.EventID = existing.EventID
	sheet.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, sheet); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update feedback")
	}
	s.emitAudit(ctx, claims, models.AuditActionFeedbackUpdate, sheet.ID, &existing.Feedback, sheet)
	return sheet, nil
}

// Delete removes a feedback sheet, freeing the event for a new one.
func (s *FeedbackService) Delete(ctx context.Context, id string, claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleAdmin {
		return appErrors.ErrForbidden
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feedback")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete feedback")
	}
	s.emitAudit(ctx, claims, models.AuditActionFeedbackDelete, id, &existing.Feedback, nil)
	return nil
}

func (s *FeedbackService) ensureEventVisible(ctx context.Context, eventID string, claims *models.JWTClaims) error {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if !s.eventVisible(event, claims) {
		return appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
	}
	return nil
}

func (s *FeedbackService) eventVisible(event *models.EventDetail, claims *models.JWTClaims) bool {
	if claims.Role == models.RoleAdmin {
		return true
	}
	if event.TeamLeaderID == claims.UserID {
		return true
	}
	for _, teacherID := range event.Participants {
		if teacherID == claims.UserID {
			return true
		}
	}
	return false
}

func sheetFromRequest(req dto.FeedbackRequest) *models.Feedback {
	return &models.Feedback{
		ObserverName:    req.ObserverName,
		ObservationDate: req.ObservationDate,
		ObservationTime: req.ObservationTime,
		Subject:         req.Subject,
		Grade:           req.Grade,

		HasTeamLeader:           req.HasTeamLeader,
		HasAgenda:               req.HasAgenda,
		IsProcessDocumented:     req.IsProcessDocumented,
		TeachersShowInterest:    req.TeachersShowInterest,
		TeachersGiveSuggestions: req.TeachersGiveSuggestions,
		EffectiveCollaboration:  req.EffectiveCollaboration,
		AnalyzePreviousLessons:  req.AnalyzePreviousLessons,
		CommentsSection1:        req.CommentsSection1,
		RecommendationsSection1: req.RecommendationsSection1,

		UseLessonReflection:     req.UseLessonReflection,
		UseStudentAchievements:  req.UseStudentAchievements,
		UseExternalAssessment:   req.UseExternalAssessment,
		UsePedagogicalDecisions: req.UsePedagogicalDecisions,
		UseLessonVisitResults:   req.UseLessonVisitResults,
		UseStudentFeedback:      req.UseStudentFeedback,
		UseOtherData:            req.UseOtherData,
		OtherDataDescription:    req.OtherDataDescription,
		CommentsSection2:        req.CommentsSection2,
		RecommendationsSection2: req.RecommendationsSection2,

		DiscussGoalsAlignment:          req.DiscussGoalsAlignment,
		AdaptLearningGoals:             req.AdaptLearningGoals,
		SelectAppropriateResources:     req.SelectAppropriateResources,
		SelectDifferentiatedStrategies: req.SelectDifferentiatedStrategies,
		SelectEngagingTasks:            req.SelectEngagingTasks,
		DiscussDescriptors:             req.DiscussDescriptors,
		AllocateTime:                   req.AllocateTime,
		SelectFormativeAssessment:      req.SelectFormativeAssessment,
		PlanReflection:                 req.PlanReflection,
		UseICTTools:                    req.UseICTTools,
		DefineHomework:                 req.DefineHomework,
		ConsiderSafety:                 req.ConsiderSafety,
		CommentsSection3:               req.CommentsSection3,
		RecommendationsSection3:        req.RecommendationsSection3,
	}
}

func (s *FeedbackService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, resourceID string, before, after *models.Feedback) {
	if s.audit == nil {
		return
	}
	var oldValues, newValues []byte
	if before != nil {
		oldValues, _ = json.Marshal(before)
	}
	if after != nil {
		newValues, _ = json.Marshal(after)
	}
	var userID *string
	if actor != nil {
		userID = &actor.UserID
	}
	log := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   feedbackResource,
		ResourceID: &resourceID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  "system",
		UserAgent:  "feedback-service",
	}
	if err := s.audit.Create(ctx, log); err != nil && s.logger != nil {
		s.logger.Warn("failed to record feedback audit", zap.Error(err))
	}
}
