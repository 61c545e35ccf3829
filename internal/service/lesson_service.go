package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/zhanat-dev/observation-api/internal/dto"
	"github.com/zhanat-dev/observation-api/internal/models"
	"github.com/zhanat-dev/observation-api/internal/timetable"
	appErrors "github.com/zhanat-dev/observation-api/pkg/errors"
)

// lessonAnchorDate pins weekly recurring lesson times onto a fixed Monday
// so only the time of day carries meaning.
var lessonAnchorDate = time.Date(2000, time.January, 3, 0, 0, 0, 0, time.UTC)

type lessonStore interface {
	List(ctx context.Context, filter models.LessonFilter) ([]models.LessonDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.LessonDetail, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id string) error
}

type lessonSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// LessonService manages recurring timetable lessons. Slot times come from
// either a bell-schedule period number or explicit clock times.
type LessonService struct {
	repo      lessonStore
	subjects  lessonSubjectReader
	classes   classReader
	teachers  teacherReader
	periods   *timetable.Catalog
	validator *validator.Validate
	logger    *zap.Logger
	pageSize  int
}

// NewLessonService builds a LessonService with sane defaults.
func NewLessonService(
	repo lessonStore,
	subjects lessonSubjectReader,
	classes classReader,
	teachers teacherReader,
	periods *timetable.Catalog,
	validate *validator.Validate,
	logger *zap.Logger,
	pageSize int,
) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	return &LessonService{
		repo:      repo,
		subjects:  subjects,
		classes:   classes,
		teachers:  teachers,
		periods:   periods,
		validator: validate,
		logger:    logger,
		pageSize:  pageSize,
	}
}

// List returns lessons with pagination metadata.
func (s *LessonService) List(ctx context.Context, filter models.LessonFilter) ([]models.LessonDetail, *models.Pagination, error) {
	if filter.Day != "" && !models.Day(filter.Day).Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown day")
	}
	if filter.PageSize <= 0 {
		filter.PageSize = s.pageSize
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	lessons, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	return lessons, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a single lesson with display fields.
func (s *LessonService) Get(ctx context.Context, id string) (*models.LessonDetail, error) {
	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}

// Create validates and inserts a lesson.
func (s *LessonService) Create(ctx context.Context, req dto.LessonRequest) (*models.LessonDetail, error) {
	lesson, err := s.buildLesson(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}
	return s.Get(ctx, lesson.ID)
}

// Update validates and modifies a lesson.
func (s *LessonService) Update(ctx context.Context, id string, req dto.LessonRequest) (*models.LessonDetail, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	lesson, err := s.buildLesson(ctx, req)
	if err != nil {
		return nil, err
	}
	lesson.ID = existing.ID
	lesson.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}
	return s.Get(ctx, id)
}

// Delete removes a lesson.
func (s *LessonService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	return nil
}

func (s *LessonService) buildLesson(ctx context.Context, req dto.LessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	day := models.Day(req.Day)
	if !day.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown day")
	}

	start, end, err := s.resolveSlot(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrReference, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrReference, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrReference, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	return &models.Lesson{
		Name:      req.Name,
		Day:       day,
		StartTime: start,
		EndTime:   end,
		SubjectID: req.SubjectID,
		ClassID:   req.ClassID,
		TeacherID: req.TeacherID,
	}, nil
}

// resolveSlot turns either a period number or explicit clock times into
// anchored start/end timestamps.
func (s *LessonService) resolveSlot(req dto.LessonRequest) (time.Time, time.Time, error) {
	if req.Period != nil {
		if s.periods == nil {
			return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "period schedule not configured")
		}
		start, end, err := s.periods.Materialize(*req.Period, lessonAnchorDate)
		if err != nil {
			return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unknown period")
		}
		return start, end, nil
	}

	if req.StartTime == nil || req.EndTime == nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "either period or startTime and endTime are required")
	}
	startClock, err := timetable.ParseClockTime(*req.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid startTime")
	}
	endClock, err := timetable.ParseClockTime(*req.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid endTime")
	}
	if endClock.Minutes() <= startClock.Minutes() {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "endTime must be after startTime")
	}
	return startClock.On(lessonAnchorDate), endClock.On(lessonAnchorDate), nil
}
