package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhanat-dev/observation-api/internal/dto"
	"github.com/zhanat-dev/observation-api/internal/models"
	appErrors "github.com/zhanat-dev/observation-api/pkg/errors"
)

type feedbackStoreStub struct {
	sheets    map[string]*models.FeedbackDetail
	byEvent   map[string]*models.Feedback
	created   *models.Feedback
	updated   *models.Feedback
	deleted   []string
	createErr error
}

func (s *feedbackStoreStub) List(ctx context.Context, filter models.FeedbackFilter) ([]models.FeedbackDetail, int, error) {
	var out []models.FeedbackDetail
	for _, sheet := range s.sheets {
		out = append(out, *sheet)
	}
	return out, len(out), nil
}

func (s *feedbackStoreStub) FindByID(ctx context.Context, id string) (*models.FeedbackDetail, error) {
	if sheet, ok := s.sheets[id]; ok {
		copied := *sheet
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *feedbackStoreStub) FindByEventID(ctx context.Context, eventID string) (*models.Feedback, error) {
	if sheet, ok := s.byEvent[eventID]; ok {
		return sheet, nil
	}
	return nil, sql.ErrNoRows
}

func (s *feedbackStoreStub) Create(ctx context.Context, sheet *models.Feedback) error {
	if s.createErr != nil {
		return s.createErr
	}
	if sheet.ID == "" {
		sheet.ID = "generated"
	}
	s.created = sheet
	return nil
}

func (s *feedbackStoreStub) Update(ctx context.Context, sheet *models.Feedback) error {
	s.updated = sheet
	return nil
}

func (s *feedbackStoreStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type eventReaderStub struct {
	events map[string]*models.EventDetail
}

func (s eventReaderStub) FindByID(ctx context.Context, id string) (*models.EventDetail, error) {
	if event, ok := s.events[id]; ok {
		return event, nil
	}
	return nil, sql.ErrNoRows
}

func validFeedbackRequest(eventID string) dto.FeedbackRequest {
	return dto.FeedbackRequest{
		EventID:         eventID,
		ObserverName:    "Petrova",
		ObservationDate: time.Date(2026, 4, 13, 0, 0, 0, 0, time.UTC),
		ObservationTime: "08:30",
		Subject:         "Algebra",
		Grade:           "9",
		HasTeamLeader:   true,
		UseOtherData:    true,
	}
}

func newFeedbackServiceForTest(store *feedbackStoreStub, audit *auditStub) *FeedbackService {
	events := eventReaderStub{events: map[string]*models.EventDetail{
		"e1": {Event: models.Event{ID: "e1", TeamLeaderID: "t1"}, Participants: []string{"t2"}},
	}}
	var auditSink auditLogger
	if audit != nil {
		auditSink = audit
	}
	return NewFeedbackService(store, events, auditSink, nil, nil, 10)
}

func TestFeedbackServiceCreate(t *testing.T) {
	store := &feedbackStoreStub{}
	audit := &auditStub{}
	svc := newFeedbackServiceForTest(store, audit)

	sheet, err := svc.Create(context.Background(), validFeedbackRequest("e1"), teacherClaims("t2"))
	require.NoError(t, err)
	assert.Equal(t, "e1", sheet.EventID)
	assert.True(t, sheet.HasTeamLeader)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionFeedbackCreate, audit.logs[0].Action)
}

func TestFeedbackServiceCreateMissingEvent(t *testing.T) {
	svc := newFeedbackServiceForTest(&feedbackStoreStub{}, nil)

	_, err := svc.Create(context.Background(), validFeedbackRequest("ghost"), adminClaims())
	require.Error(t, err)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrReference.Code, typed.Code)
}

func TestFeedbackServiceCreateInvisibleEvent(t *testing.T) {
	svc := newFeedbackServiceForTest(&feedbackStoreStub{}, nil)

	_, err := svc.Create(context.Background(), validFeedbackRequest("e1"), teacherClaims("t9"))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestFeedbackServiceCreatePropagatesDuplicate(t *testing.T) {
	store := &feedbackStoreStub{createErr: appErrors.Clone(appErrors.ErrDuplicate, "event already has a feedback sheet")}
	svc := newFeedbackServiceForTest(store, nil)

	_, err := svc.Create(context.Background(), validFeedbackRequest("e1"), adminClaims())
	require.Error(t, err)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrDuplicate.Code, typed.Code)
}

func TestFeedbackServiceUpdateKeepsEventBinding(t *testing.T) {
	store := &feedbackStoreStub{sheets: map[string]*models.FeedbackDetail{
		"f1": {Feedback: models.Feedback{ID: "f1", EventID: "e1", CreatedAt: time.Now().Add(-time.Hour)}},
	}}
	svc := newFeedbackServiceForTest(store, nil)

	req := validFeedbackRequest("some-other-event")
	sheet, err := svc.Update(context.Background(), "f1", req, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, "e1", sheet.EventID)
	assert.Equal(t, "e1", store.updated.EventID)
}

func TestFeedbackServiceDeleteAdminOnly(t *testing.T) {
	store := &feedbackStoreStub{sheets: map[string]*models.FeedbackDetail{
		"f1": {Feedback: models.Feedback{ID: "f1", EventID: "e1"}},
	}}
	svc := newFeedbackServiceForTest(store, nil)

	err := svc.Delete(context.Background(), "f1", teacherClaims("t2"))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), "f1", adminClaims()))
	assert.Equal(t, []string{"f1"}, store.deleted)
}

func TestFeedbackServiceSchemaShape(t *testing.T) {
	svc := newFeedbackServiceForTest(&feedbackStoreStub{}, nil)

	schema := svc.Schema()
	require.Len(t, schema.Sections, 3)
	assert.Len(t, schema.Sections[0].Fields, 7)
	assert.Len(t, schema.Sections[1].Fields, 7)
	assert.Len(t, schema.Sections[2].Fields, 12)
}
