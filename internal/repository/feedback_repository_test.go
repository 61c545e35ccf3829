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

func newFeedbackRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestFeedbackRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newFeedbackRepoMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	mock.ExpectExec("INSERT INTO feedback").
		WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: "feedback_event_id_key"})

	sheet := &models.Feedback{EventID: "e1", ObserverName: "Petrova", ObservationDate: time.Now()}
	err := repo.Create(context.Background(), sheet)
	require.Error(t, err)

	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrDuplicate.Code, typed.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepositoryCreateUnknownEvent(t *testing.T) {
	db, mock, cleanup := newFeedbackRepoMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	mock.ExpectExec("INSERT INTO feedback").
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation})

	err := repo.Create(context.Background(), &models.Feedback{EventID: "ghost"})
	require.Error(t, err)

	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrReference.Code, typed.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepositoryCreateSuccess(t *testing.T) {
	db, mock, cleanup := newFeedbackRepoMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	mock.ExpectExec("INSERT INTO feedback").
		WillReturnResult(sqlmock.NewResult(1, 1))

	sheet := &models.Feedback{EventID: "e1", ObserverName: "Petrova"}
	require.NoError(t, repo.Create(context.Background(), sheet))
	assert.NotEmpty(t, sheet.ID)
	assert.False(t, sheet.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepositoryUpdateNeverTouchesEventBinding(t *testing.T) {
	db, mock, cleanup := newFeedbackRepoMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	mock.ExpectExec(`UPDATE feedback SET\s+observer_name =`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	sheet := &models.Feedback{ID: "f1", EventID: "e1", ObserverName: "Petrova"}
	require.NoError(t, repo.Update(context.Background(), sheet))
	assert.NoError(t, mock.ExpectationsWereMet())

	// The SET list is fixed; event_id must not appear in it.
	assert.NotContains(t, feedbackUpdateQuery, "event_id =")
}

func TestFeedbackRepositoryExistsByEventID(t *testing.T) {
	db, mock, cleanup := newFeedbackRepoMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM feedback WHERE event_id = $1")).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.ExistsByEventID(context.Background(), "e1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
