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

// FeedbackRepository manages persistence for feedback sheets. The
// one-sheet-per-event rule is enforced by a unique index on event_id;
// constraint violations surface as typed errors so concurrent creates
// resolve to exactly one winner.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository constructs a FeedbackRepository.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// feedbackColumnList keeps the column order in one place; the checklist
// columns mirror the fixed fields on models.Feedback.
var feedbackColumnList = []string{
	"id", "event_id", "observer_name", "observation_date", "observation_time", "subject", "grade",
	"has_team_leader", "has_agenda", "is_process_documented", "teachers_show_interest", "teachers_give_suggestions", "effective_collaboration", "analyze_previous_lessons", "comments_section1", "recommendations_section1",
	"use_lesson_reflection", "use_student_achievements", "use_external_assessment", "use_pedagogical_decisions", "use_lesson_visit_results", "use_student_feedback", "use_other_data", "other_data_description", "comments_section2", "recommendations_section2",
	"discuss_goals_alignment", "adapt_learning_goals", "select_appropriate_resources", "select_differentiated_strategies", "select_engaging_tasks", "discuss_descriptors", "allocate_time", "select_formative_assessment", "plan_reflection", "use_ict_tools", "define_homework", "consider_safety", "comments_section3", "recommendations_section3",
	"created_at", "updated_at",
}

var (
	feedbackColumns     = strings.Join(feedbackColumnList, ", ")
	feedbackNamedValues = ":" + strings.Join(feedbackColumnList, ", :")
)

func prefixedFeedbackColumns(alias string) string {
	cols := make([]string, len(feedbackColumnList))
	for i, c := range feedbackColumnList {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

// List returns feedback sheets matching filters along with total count.
// The scope teacher restriction follows event visibility.
func (r *FeedbackRepository) List(ctx context.Context, filter models.FeedbackFilter) ([]models.FeedbackDetail, int, error) {
	base := `FROM feedback fb JOIN events e ON e.id = fb.event_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.ScopeTeacherID != "" {
		args = append(args, filter.ScopeTeacherID)
		conditions = append(conditions, fmt.Sprintf(`(e.team_leader_id = $%d OR EXISTS (
			SELECT 1 FROM event_participants ep WHERE ep.event_id = e.id AND ep.teacher_id = $%d))`, len(args), len(args)))
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, search)
		conditions = append(conditions, fmt.Sprintf(`(LOWER(e.title) LIKE $%d OR LOWER(fb.observer_name) LIKE $%d OR LOWER(fb.subject) LIKE $%d)`, len(args), len(args), len(args)))
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf("SELECT %s, e.title AS event_title %s ORDER BY fb.created_at DESC LIMIT %d OFFSET %d", prefixedFeedbackColumns("fb"), base, size, offset)
	var sheets []models.FeedbackDetail
	if err := r.db.SelectContext(ctx, &sheets, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list feedback: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count feedback: %w", err)
	}

	return sheets, total, nil
}

// FindByID fetches a feedback sheet by ID.
func (r *FeedbackRepository) FindByID(ctx context.Context, id string) (*models.FeedbackDetail, error) {
	query := fmt.Sprintf(`SELECT %s, e.title AS event_title FROM feedback fb JOIN events e ON e.id = fb.event_id WHERE fb.id = $1`, prefixedFeedbackColumns("fb"))
	var sheet models.FeedbackDetail
	if err := r.db.GetContext(ctx, &sheet, query, id); err != nil {
		return nil, err
	}
	return &sheet, nil
}

// FindByEventID fetches the sheet attached to an event.
func (r *FeedbackRepository) FindByEventID(ctx context.Context, eventID string) (*models.Feedback, error) {
	query := fmt.Sprintf(`SELECT %s FROM feedback WHERE event_id = $1`, feedbackColumns)
	var sheet models.Feedback
	if err := r.db.GetContext(ctx, &sheet, query, eventID); err != nil {
		return nil, err
	}
	return &sheet, nil
}

// Create inserts a feedback sheet. The unique index on event_id is the
// arbiter for concurrent creates against the same event.
func (r *FeedbackRepository) Create(ctx context.Context, sheet *models.Feedback) error {
	if sheet.ID == "" {
		sheet.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if sheet.CreatedAt.IsZero() {
		sheet.CreatedAt = now
	}
	sheet.UpdatedAt = now

	query := fmt.Sprintf(`INSERT INTO feedback (%s) VALUES (%s)`, feedbackColumns, feedbackNamedValues)
	if _, err := r.db.NamedExecContext(ctx, query, sheet); err != nil {
		if isPQCode(err, pqUniqueViolation) {
			return appErrors.Wrap(err, appErrors.ErrDuplicate.Code, appErrors.ErrDuplicate.Status, "event already has a feedback sheet")
		}
		if isPQCode(err, pqForeignKeyViolation) {
			return appErrors.Wrap(err, appErrors.ErrReference.Code, appErrors.ErrReference.Status, "feedback references an unknown event")
		}
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// feedbackUpdateQuery deliberately omits event_id from the SET list: the
// event binding of a sheet is immutable.
const feedbackUpdateQuery = `UPDATE feedback SET
		observer_name = :observer_name, observation_date = :observation_date, observation_time = :observation_time, subject = :subject, grade = :grade,
		has_team_leader = :has_team_leader, has_agenda = :has_agenda, is_process_documented = :is_process_documented, teachers_show_interest = :teachers_show_interest, teachers_give_suggestions = :teachers_give_suggestions, effective_collaboration = :effective_collaboration, analyze_previous_lessons = :analyze_previous_lessons, comments_section1 = :comments_section1, recommendations_section1 = :recommendations_section1,
		use_lesson_reflection = :use_lesson_reflection, use_student_achievements = :use_student_achievements, use_external_assessment = :use_external_assessment, use_pedagogical_decisions = :use_pedagogical_decisions, use_lesson_visit_results = :use_lesson_visit_results, use_student_feedback = :use_student_feedback, use_other_data = :use_other_data, other_data_description = :other_data_description, comments_section2 = :comments_section2, recommendations_section2 = :recommendations_section2,
		discuss_goals_alignment = :discuss_goals_alignment, adapt_learning_goals = :adapt_learning_goals, select_appropriate_resources = :select_appropriate_resources, select_differentiated_strategies = :select_differentiated_strategies, select_engaging_tasks = :select_engaging_tasks, discuss_descriptors = :discuss_descriptors, allocate_time = :allocate_time, select_formative_assessment = :select_formative_assessment, plan_reflection = :plan_reflection, use_ict_tools = :use_ict_tools, define_homework = :define_homework, consider_safety = :consider_safety, comments_section3 = :comments_section3, recommendations_section3 = :recommendations_section3,
		updated_at = :updated_at
		WHERE id = :id`

// Update modifies a feedback sheet.
func (r *FeedbackRepository) Update(ctx context.Context, sheet *models.Feedback) error {
	sheet.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, feedbackUpdateQuery, sheet); err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	return nil
}

// Delete removes a feedback sheet.
func (r *FeedbackRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM feedback WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	return nil
}

// ExistsByEventID reports whether an event already has a sheet.
func (r *FeedbackRepository) ExistsByEventID(ctx context.Context, eventID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM feedback WHERE event_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, eventID); err != nil {
		return false, fmt.Errorf("check feedback: %w", err)
	}
	return count > 0, nil
}
