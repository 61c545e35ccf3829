package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/zhanat-dev/observation-api/internal/models"
	appErrors "github.com/zhanat-dev/observation-api/pkg/errors"
)

// ClassRepository manages persistence for school classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes matching filters along with total count.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.SchoolClassDetail, int, error) {
	base := `FROM classes c LEFT JOIN teachers t ON t.id = c.supervisor_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.GradeLevel != nil {
		conditions = append(conditions, fmt.Sprintf("c.grade_level = $%d", len(args)+1))
		args = append(args, *filter.GradeLevel)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("LOWER(c.name) LIKE $%d", len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"name":        "c.name",
		"grade_level": "c.grade_level",
		"created_at":  "c.created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "c.grade_level"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT c.id, c.name, c.grade_level, c.capacity, c.supervisor_id, c.created_at, c.updated_at,
		t.surname || ' ' || t.name AS supervisor_name
		%s ORDER BY %s %s, c.name ASC LIMIT %d OFFSET %d`, base, column, order, size, offset)
	var classes []models.SchoolClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}

	return classes, total, nil
}

// FindByID fetches a class with supervisor display fields.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.SchoolClassDetail, error) {
	const query = `SELECT c.id, c.name, c.grade_level, c.capacity, c.supervisor_id, c.created_at, c.updated_at,
		t.surname || ' ' || t.name AS supervisor_name
		FROM classes c LEFT JOIN teachers t ON t.id = c.supervisor_id
		WHERE c.id = $1`
	var class models.SchoolClassDetail
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// Create inserts a new class record.
func (r *ClassRepository) Create(ctx context.Context, class *models.SchoolClass) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	const query = `INSERT INTO classes (id, name, grade_level, capacity, supervisor_id, created_at, updated_at)
		VALUES (:id, :name, :grade_level, :capacity, :supervisor_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		if isPQCode(err, pqUniqueViolation) {
			return appErrors.Wrap(err, appErrors.ErrDuplicate.Code, appErrors.ErrDuplicate.Status, "class name already in use")
		}
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update modifies an existing class record.
func (r *ClassRepository) Update(ctx context.Context, class *models.SchoolClass) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET name = :name, grade_level = :grade_level, capacity = :capacity, supervisor_id = :supervisor_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		if isPQCode(err, pqUniqueViolation) {
			return appErrors.Wrap(err, appErrors.ErrDuplicate.Code, appErrors.ErrDuplicate.Status, "class name already in use")
		}
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// Delete removes a class record.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM classes WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}

// CountReferences returns how many events and lessons reference the class.
func (r *ClassRepository) CountReferences(ctx context.Context, id string) (int, error) {
	const query = `SELECT
		(SELECT COUNT(*) FROM events WHERE class_id = $1) +
		(SELECT COUNT(*) FROM lessons WHERE class_id = $1)`
	var total int
	if err := r.db.GetContext(ctx, &total, query, id); err != nil {
		return 0, fmt.Errorf("count class references: %w", err)
	}
	return total, nil
}
