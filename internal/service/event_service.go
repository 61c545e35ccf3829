package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/zhanat-dev/observation-api/internal/dto"
	"github.com/zhanat-dev/observation-api/internal/models"
	"github.com/zhanat-dev/observation-api/internal/timetable"
	appErrors "github.com/zhanat-dev/observation-api/pkg/errors"
)

const (
	eventResource    = "event"
	feedbackResource = "feedback"
)

type eventStore interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.EventDetail, error)
	Create(ctx context.Context, event *models.Event, participants []string) error
	Update(ctx context.Context, event *models.Event, participants []string) error
	Delete(ctx context.Context, id string) error
}

type teacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByIDs(ctx context.Context, ids []string) ([]string, error)
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.SchoolClassDetail, error)
}

type feedbackChecker interface {
	ExistsByEventID(ctx context.Context, eventID string) (bool, error)
}

type auditLogger interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// EventService orchestrates observation event workflows: validation,
// referential checks, role-based visibility and atomic roster replacement.
type EventService struct {
	repo      eventStore
	teachers  teacherReader
	classes   classReader
	feedback  feedbackChecker
	audit     auditLogger
	periods   *timetable.Catalog
	validator *validator.Validate
	logger    *zap.Logger
	pageSize  int
}

// NewEventService builds an EventService with sane defaults.
func NewEventService(
	repo eventStore,
	teachers teacherReader,
	classes classReader,
	feedback feedbackChecker,
	audit auditLogger,
	periods *timetable.Catalog,
	validate *validator.Validate,
	logger *zap.Logger,
	pageSize int,
) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	return &EventService{
		repo:      repo,
		teachers:  teachers,
		classes:   classes,
		feedback:  feedback,
		audit:     audit,
		periods:   periods,
		validator: validate,
		logger:    logger,
		pageSize:  pageSize,
	}
}

// List returns events visible to the caller with pagination metadata.
func (s *EventService) List(ctx context.Context, filter models.EventFilter, claims *models.JWTClaims) ([]models.EventDetail, *models.Pagination, error) {
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
	// Unrecognized filter values narrow nothing rather than failing the read.
	if !models.ControllerType(filter.ControllerType).Valid() {
		filter.ControllerType = ""
	}

	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	s.annotatePeriods(events)

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return events, pagination, nil
}

// Get returns a single event. Teachers only see events they lead or
// participate in; invisible events read as not found.
func (s *EventService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.EventDetail, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if !s.visible(event, claims) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	events := []models.EventDetail{*event}
	s.annotatePeriods(events)
	return &events[0], nil
}

// Create validates and persists a new event with its roster.
func (s *EventService) Create(ctx context.Context, req dto.EventRequest, claims *models.JWTClaims) (*models.EventDetail, error) {
	if err := s.authorizeMutation(claims); err != nil {
		return nil, err
	}
	if err := s.validateRequest(ctx, req); err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:          req.Title,
		Description:    req.Description,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		ControllerType: models.ControllerType(req.ControllerType),
		TeamLeaderID:   req.TeamLeaderID,
		ClassID:        req.ClassID,
	}
	if err := s.repo.Create(ctx, event, req.Participants); err != nil {
		var typed *appErrors.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}

	created, err := s.repo.FindByID(ctx, event.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	s.emitAudit(ctx, claims, models.AuditActionEventCreate, event.ID, nil, created)

	events := []models.EventDetail{*created}
	s.annotatePeriods(events)
	return &events[0], nil
}

// Update validates and persists changes, replacing the roster wholesale.
func (s *EventService) Update(ctx context.Context, id string, req dto.EventRequest, claims *models.JWTClaims) (*models.EventDetail, error) {
	if err := s.authorizeMutation(claims); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if err := s.validateRequest(ctx, req); err != nil {
		return nil, err
	}

	event := existing.Event
	event.Title = req.Title
	event.Description = req.Description
	event.StartTime = req.StartTime
	event.EndTime = req.EndTime
	event.ControllerType = models.ControllerType(req.ControllerType)
	event.TeamLeaderID = req.TeamLeaderID
	event.ClassID = req.ClassID

	if err := s.repo.Update(ctx, &event, req.Participants); err != nil {
		var typed *appErrors.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	s.emitAudit(ctx, claims, models.AuditActionEventUpdate, id, existing, updated)

	events := []models.EventDetail{*updated}
	s.annotatePeriods(events)
	return &events[0], nil
}

// Delete removes an event. An attached feedback sheet blocks the delete.
func (s *EventService) Delete(ctx context.Context, id string, claims *models.JWTClaims) error {
	if err := s.authorizeMutation(claims); err != nil {
		return err
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	attached, err := s.feedback.ExistsByEventID(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check feedback")
	}
	if attached {
		return appErrors.Clone(appErrors.ErrConflict, "event still has a feedback sheet attached")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		var typed *appErrors.Error
		if errors.As(err, &typed) {
			return err
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.emitAudit(ctx, claims, models.AuditActionEventDelete, id, existing, nil)
	return nil
}

func (s *EventService) authorizeMutation(claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleAdmin {
		return appErrors.ErrForbidden
	}
	return nil
}

func (s *EventService) visible(event *models.EventDetail, claims *models.JWTClaims) bool {
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

func (s *EventService) validateRequest(ctx context.Context, req dto.EventRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if !req.EndTime.After(req.StartTime) {
		return appErrors.Clone(appErrors.ErrValidation, "endTime must be after startTime")
	}
	if !models.ControllerType(req.ControllerType).Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown controller type %q", req.ControllerType))
	}

	seen := make(map[string]bool, len(req.Participants))
	for _, teacherID := range req.Participants {
		if teacherID == req.TeamLeaderID {
			return appErrors.Clone(appErrors.ErrValidation, "team leader cannot also be a participant")
		}
		if seen[teacherID] {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate participant %s", teacherID))
		}
		seen[teacherID] = true
	}

	if _, err := s.teachers.FindByID(ctx, req.TeamLeaderID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrReference, "team leader not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load team leader")
	}

	missing, err := s.teachers.ExistsByIDs(ctx, req.Participants)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check participants")
	}
	if len(missing) > 0 {
		return appErrors.Clone(appErrors.ErrReference, fmt.Sprintf("unknown participants: %v", missing))
	}

	if req.ClassID != nil && *req.ClassID != "" {
		if _, err := s.classes.FindByID(ctx, *req.ClassID); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrReference, "class not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		}
	}
	return nil
}

// annotatePeriods stamps the bell-schedule period number onto events whose
// start time matches a configured period start exactly.
func (s *EventService) annotatePeriods(events []models.EventDetail) {
	if s.periods == nil {
		return
	}
	for i := range events {
		if number, ok := s.periods.Resolve(events[i].StartTime); ok {
			p := number
			events[i].Period = &p
		}
	}
}

func (s *EventService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, resourceID string, before, after *models.EventDetail) {
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
		Resource:   eventResource,
		ResourceID: &resourceID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  "system",
		UserAgent:  "event-service",
	}
	if err := s.audit.Create(ctx, log); err != nil && s.logger != nil {
		s.logger.Warn("failed to record event audit", zap.Error(err))
	}
}
