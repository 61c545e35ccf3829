package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/zhanat-dev/observation-api/internal/models"
	appErrors "github.com/zhanat-dev/observation-api/pkg/errors"
)

// EventRepository manages persistence for observation events and their
// participant rosters. The event row and its roster always change inside
// a single transaction.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventSelectColumns = `e.id, e.title, e.description, e.start_time, e.end_time, e.controller_type, e.team_leader_id, e.class_id, e.created_at, e.updated_at,
	tl.surname || ' ' || tl.name AS team_leader_name,
	c.name AS class_name,
	f.id AS feedback_id`

const eventJoins = `FROM events e
	JOIN teachers tl ON tl.id = e.team_leader_id
	LEFT JOIN classes c ON c.id = e.class_id
	LEFT JOIN feedback f ON f.event_id = e.id`

// List returns events matching filters along with total count. When the
// filter carries a scope teacher, rows are restricted to events that
// teacher leads or participates in.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, int, error) {
	base := eventJoins + " WHERE 1=1"
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
		conditions = append(conditions, fmt.Sprintf(`(LOWER(e.title) LIKE $%d OR LOWER(e.description) LIKE $%d OR LOWER(tl.surname || ' ' || tl.name) LIKE $%d)`, len(args), len(args), len(args)))
	}
	if filter.ControllerType != "" {
		args = append(args, filter.ControllerType)
		conditions = append(conditions, fmt.Sprintf("e.controller_type = $%d", len(args)))
	}
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		conditions = append(conditions, fmt.Sprintf("e.class_id = $%d", len(args)))
	}
	if filter.HasFeedback != nil {
		if *filter.HasFeedback {
			conditions = append(conditions, "f.id IS NOT NULL")
		} else {
			conditions = append(conditions, "f.id IS NULL")
		}
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY e.start_time DESC LIMIT %d OFFSET %d", eventSelectColumns, base, size, offset)
	var events []models.EventDetail
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	if err := r.attachParticipants(ctx, events); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// FindByID fetches an event with display fields and its full roster.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.EventDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE e.id = $1", eventSelectColumns, eventJoins)
	var event models.EventDetail
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}

	events := []models.EventDetail{event}
	if err := r.attachParticipants(ctx, events); err != nil {
		return nil, err
	}
	return &events[0], nil
}

func (r *EventRepository) attachParticipants(ctx context.Context, events []models.EventDetail) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}

	const query = `SELECT event_id, teacher_id FROM event_participants WHERE event_id = ANY($1) ORDER BY teacher_id ASC`
	var rows []struct {
		EventID   string `db:"event_id"`
		TeacherID string `db:"teacher_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("load event participants: %w", err)
	}

	byEvent := make(map[string][]string, len(events))
	for _, row := range rows {
		byEvent[row.EventID] = append(byEvent[row.EventID], row.TeacherID)
	}
	for i := range events {
		roster := byEvent[events[i].ID]
		if roster == nil {
			roster = []string{}
		}
		events[i].Participants = roster
	}
	return nil
}

// Create inserts an event row together with its roster in one transaction.
func (r *EventRepository) Create(ctx context.Context, event *models.Event, participants []string) (err error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin event transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO events (id, title, description, start_time, end_time, controller_type, team_leader_id, class_id, created_at, updated_at)
		VALUES (:id, :title, :description, :start_time, :end_time, :controller_type, :team_leader_id, :class_id, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, event); err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return appErrors.Wrap(err, appErrors.ErrReference.Code, appErrors.ErrReference.Status, "event references an unknown teacher or class")
		}
		return fmt.Errorf("create event: %w", err)
	}

	if err = insertParticipants(ctx, tx, event.ID, participants); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit event: %w", err)
	}
	return nil
}

// Update rewrites the event row and replaces the full roster atomically.
func (r *EventRepository) Update(ctx context.Context, event *models.Event, participants []string) (err error) {
	event.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin event transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE events SET title = :title, description = :description, start_time = :start_time, end_time = :end_time, controller_type = :controller_type, team_leader_id = :team_leader_id, class_id = :class_id, updated_at = :updated_at WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, query, event); err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return appErrors.Wrap(err, appErrors.ErrReference.Code, appErrors.ErrReference.Status, "event references an unknown teacher or class")
		}
		return fmt.Errorf("update event: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM event_participants WHERE event_id = $1`, event.ID); err != nil {
		return fmt.Errorf("clear event participants: %w", err)
	}
	if err = insertParticipants(ctx, tx, event.ID, participants); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit event: %w", err)
	}
	return nil
}

func insertParticipants(ctx context.Context, tx *sqlx.Tx, eventID string, participants []string) error {
	if len(participants) == 0 {
		return nil
	}
	values := make([]string, len(participants))
	args := make([]interface{}, 0, len(participants)+1)
	args = append(args, eventID)
	for i, teacherID := range participants {
		values[i] = fmt.Sprintf("($1, $%d)", len(args)+1)
		args = append(args, teacherID)
	}
	query := "INSERT INTO event_participants (event_id, teacher_id) VALUES " + strings.Join(values, ", ")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return appErrors.Wrap(err, appErrors.ErrReference.Code, appErrors.ErrReference.Status, "participant references an unknown teacher")
		}
		return fmt.Errorf("insert event participants: %w", err)
	}
	return nil
}

// Delete removes an event. The roster goes with it via cascade; a still
// attached feedback sheet blocks the delete at the constraint level.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM events WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "event still has a feedback sheet attached")
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// CountSince counts events visible to the scope teacher whose start time
// falls inside [from, to).
func (r *EventRepository) CountSince(ctx context.Context, scopeTeacherID string, from, to time.Time) (int, error) {
	query := "SELECT COUNT(*) FROM events e WHERE e.start_time >= $1 AND e.start_time < $2"
	args := []interface{}{from, to}
	if scopeTeacherID != "" {
		args = append(args, scopeTeacherID)
		query += fmt.Sprintf(` AND (e.team_leader_id = $%d OR EXISTS (
			SELECT 1 FROM event_participants ep WHERE ep.event_id = e.id AND ep.teacher_id = $%d))`, len(args), len(args))
	}
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count events since: %w", err)
	}
	return total, nil
}

// CountWithFeedback returns total visible events and how many of them
// have a feedback sheet attached.
func (r *EventRepository) CountWithFeedback(ctx context.Context, scopeTeacherID string) (total int, withFeedback int, err error) {
	query := `SELECT COUNT(*) AS total, COUNT(f.id) AS with_feedback
		FROM events e LEFT JOIN feedback f ON f.event_id = e.id WHERE 1=1`
	var args []interface{}
	if scopeTeacherID != "" {
		args = append(args, scopeTeacherID)
		query += fmt.Sprintf(` AND (e.team_leader_id = $%d OR EXISTS (
			SELECT 1 FROM event_participants ep WHERE ep.event_id = e.id AND ep.teacher_id = $%d))`, len(args), len(args))
	}
	var row struct {
		Total        int `db:"total"`
		WithFeedback int `db:"with_feedback"`
	}
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return 0, 0, fmt.Errorf("count events with feedback: %w", err)
	}
	return row.Total, row.WithFeedback, nil
}
