package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhanat-dev/observation-api/internal/models"
	appErrors "github.com/zhanat-dev/observation-api/pkg/errors"
)

func newEventRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func eventRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "title", "description", "start_time", "end_time", "controller_type", "team_leader_id", "class_id", "created_at", "updated_at",
		"team_leader_name", "class_name", "feedback_id",
	}).AddRow("e1", "Visit 9A", "Algebra lesson", now, now.Add(40*time.Minute), "DIRECTOR", "t1", "c1", now, now, "Ivanova Anna", "9A", nil)
}

func TestEventRepositoryListScoped(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery("SELECT e.id, .+ FROM events e").
		WithArgs("t1").
		WillReturnRows(eventRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM events e")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT event_id, teacher_id FROM event_participants").
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "teacher_id"}).
			AddRow("e1", "t2").
			AddRow("e1", "t3"))

	list, total, err := repo.List(context.Background(), models.EventFilter{ScopeTeacherID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"t2", "t3"}, list[0].Participants)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListEmptyRoster(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery("SELECT e.id, .+ FROM events e").
		WillReturnRows(eventRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM events e")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT event_id, teacher_id FROM event_participants").
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "teacher_id"}))

	list, _, err := repo.List(context.Background(), models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].Participants)
	assert.Empty(t, list[0].Participants)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryCreateCommitsRosterInOneTx(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO events").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO event_participants").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	event := &models.Event{
		Title:          "Visit 9A",
		StartTime:      time.Now(),
		EndTime:        time.Now().Add(40 * time.Minute),
		ControllerType: models.ControllerDirector,
		TeamLeaderID:   "t1",
	}
	err := repo.Create(context.Background(), event, []string{"t2", "t3"})
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryCreateRollsBackOnRosterFailure(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO events").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO event_participants").
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation})
	mock.ExpectRollback()

	event := &models.Event{Title: "Visit", TeamLeaderID: "t1", ControllerType: models.ControllerDirector}
	err := repo.Create(context.Background(), event, []string{"ghost"})
	require.Error(t, err)

	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrReference.Code, typed.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryUpdateReplacesRoster(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE events SET").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM event_participants WHERE event_id = $1")).
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectExec("INSERT INTO event_participants").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	event := &models.Event{ID: "e1", Title: "Visit", TeamLeaderID: "t1", ControllerType: models.ControllerDirector}
	require.NoError(t, repo.Update(context.Background(), event, []string{"t4"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryDeleteBlockedByFeedback(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec("DELETE FROM events").
		WithArgs("e1").
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation})

	err := repo.Delete(context.Background(), "e1")
	require.Error(t, err)

	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrConflict.Code, typed.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryCountWithFeedback(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) AS total, COUNT\\(f.id\\) AS with_feedback").
		WillReturnRows(sqlmock.NewRows([]string{"total", "with_feedback"}).AddRow(8, 5))

	total, withFeedback, err := repo.CountWithFeedback(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 8, total)
	assert.Equal(t, 5, withFeedback)
	assert.NoError(t, mock.ExpectationsWereMet())
}
