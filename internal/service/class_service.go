package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/zhanat-dev/observation-api/internal/dto"
	"github.com/zhanat-dev/observation-api/internal/models"
	appErrors "github.com/zhanat-dev/observation-api/pkg/errors"
)

const classOptionsCacheKey = "classes:options"

type classStore interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.SchoolClassDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.SchoolClassDetail, error)
	Create(ctx context.Context, class *models.SchoolClass) error
	Update(ctx context.Context, class *models.SchoolClass) error
	Delete(ctx context.Context, id string) error
	CountReferences(ctx context.Context, id string) (int, error)
}

// ClassService manages the observable class catalog.
type ClassService struct {
	repo      classStore
	teachers  teacherReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService builds a ClassService with sane defaults.
func NewClassService(repo classStore, teachers teacherReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, teachers: teachers, cache: cache, validator: validate, logger: logger}
}

// List returns classes with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.SchoolClassDetail, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 10
	}
	return classes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Options returns the class list as id/label pairs for pickers, cached.
func (s *ClassService) Options(ctx context.Context) ([]dto.OptionItem, error) {
	var options []dto.OptionItem
	if hit, err := s.cache.Get(ctx, classOptionsCacheKey, &options); err == nil && hit {
		return options, nil
	}

	classes, _, err := s.repo.List(ctx, models.ClassFilter{PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	options = make([]dto.OptionItem, 0, len(classes))
	for _, c := range classes {
		options = append(options, dto.OptionItem{ID: c.ID, Label: c.Name})
	}
	if err := s.cache.Set(ctx, classOptionsCacheKey, options, 0); err != nil && s.logger != nil {
		s.logger.Warn("cache class options", zap.Error(err))
	}
	return options, nil
}

// Get returns a single class with supervisor display fields.
func (s *ClassService) Get(ctx context.Context, id string) (*models.SchoolClassDetail, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Create validates and inserts a class.
func (s *ClassService) Create(ctx context.Context, req dto.ClassRequest) (*models.SchoolClassDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if err := s.ensureSupervisor(ctx, req.SupervisorID); err != nil {
		return nil, err
	}

	class := &models.SchoolClass{
		Name:         req.Name,
		GradeLevel:   req.GradeLevel,
		Capacity:     req.Capacity,
		SupervisorID: req.SupervisorID,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		var typed *appErrors.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.invalidateOptions(ctx)
	return s.Get(ctx, class.ID)
}

// Update validates and modifies a class.
func (s *ClassService) Update(ctx context.Context, id string, req dto.ClassRequest) (*models.SchoolClassDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSupervisor(ctx, req.SupervisorID); err != nil {
		return nil, err
	}

	class := existing.SchoolClass
	class.Name = req.Name
	class.GradeLevel = req.GradeLevel
	class.Capacity = req.Capacity
	class.SupervisorID = req.SupervisorID
	if err := s.repo.Update(ctx, &class); err != nil {
		var typed *appErrors.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	s.invalidateOptions(ctx)
	return s.Get(ctx, id)
}

// Delete removes a class unless events or lessons still reference it.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	refs, err := s.repo.CountReferences(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class references")
	}
	if refs > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("class is referenced by %d record(s)", refs))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	s.invalidateOptions(ctx)
	return nil
}

func (s *ClassService) ensureSupervisor(ctx context.Context, supervisorID *string) error {
	if supervisorID == nil || *supervisorID == "" {
		return nil
	}
	if _, err := s.teachers.FindByID(ctx, *supervisorID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrReference, "supervisor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supervisor")
	}
	return nil
}

func (s *ClassService) invalidateOptions(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "classes:*"); err != nil && s.logger != nil {
		s.logger.Warn("invalidate class options", zap.Error(err))
	}
}
