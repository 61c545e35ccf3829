package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/zhanat-dev/observation-api/internal/dto"
	"github.com/zhanat-dev/observation-api/internal/models"
	appErrors "github.com/zhanat-dev/observation-api/pkg/errors"
)

const teacherOptionsCacheKey = "teachers:options"

type teacherStore interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
	CountReferences(ctx context.Context, id string) (int, error)
}

// TeacherService manages the teacher roster mirrored from the identity
// provider.
type TeacherService struct {
	repo      teacherStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService builds a TeacherService with sane defaults.
func NewTeacherService(repo teacherStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns teachers with pagination metadata.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 10
	}
	return teachers, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Options returns the full teacher list as id/label pairs for pickers.
// The list is cached and invalidated on every teacher mutation.
func (s *TeacherService) Options(ctx context.Context) ([]dto.OptionItem, error) {
	var options []dto.OptionItem
	if hit, err := s.cache.Get(ctx, teacherOptionsCacheKey, &options); err == nil && hit {
		return options, nil
	}

	teachers, _, err := s.repo.List(ctx, models.TeacherFilter{PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	options = make([]dto.OptionItem, 0, len(teachers))
	for _, t := range teachers {
		options = append(options, dto.OptionItem{ID: t.ID, Label: t.FullName()})
	}
	if err := s.cache.Set(ctx, teacherOptionsCacheKey, options, 0); err != nil && s.logger != nil {
		s.logger.Warn("cache teacher options", zap.Error(err))
	}
	return options, nil
}

// Get returns a single teacher.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create validates and inserts a teacher.
func (s *TeacherService) Create(ctx context.Context, req dto.TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	if err := s.ensureEmailFree(ctx, req.Email, ""); err != nil {
		return nil, err
	}

	teacher := &models.Teacher{Name: req.Name, Surname: req.Surname, Email: req.Email}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	s.invalidateOptions(ctx)
	return teacher, nil
}

// Update validates and modifies a teacher.
func (s *TeacherService) Update(ctx context.Context, id string, req dto.TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, req.Email, id); err != nil {
		return nil, err
	}

	teacher.Name = req.Name
	teacher.Surname = req.Surname
	teacher.Email = req.Email
	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	s.invalidateOptions(ctx)
	return teacher, nil
}

// Delete removes a teacher unless events still reference them.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	refs, err := s.repo.CountReferences(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher references")
	}
	if refs > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("teacher is referenced by %d event or lesson record(s)", refs))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	s.invalidateOptions(ctx)
	return nil
}

func (s *TeacherService) ensureEmailFree(ctx context.Context, email *string, excludeID string) error {
	if email == nil || *email == "" {
		return nil
	}
	taken, err := s.repo.ExistsByEmail(ctx, *email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher email")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrDuplicate, "email already in use")
	}
	return nil
}

func (s *TeacherService) invalidateOptions(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "teachers:*"); err != nil && s.logger != nil {
		s.logger.Warn("invalidate teacher options", zap.Error(err))
	}
}
