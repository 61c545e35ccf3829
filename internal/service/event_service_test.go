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
	"github.com/zhanat-dev/observation-api/internal/timetable"
	appErrors "github.com/zhanat-dev/observation-api/pkg/errors"
)

type eventStoreStub struct {
	events       map[string]*models.EventDetail
	listResult   []models.EventDetail
	listTotal    int
	listFilter   models.EventFilter
	created      *models.Event
	createdWith  []string
	updated      *models.Event
	updatedWith  []string
	deleted      []string
	createErr    error
	updateErr    error
	deleteErr    error
	listErr      error
}

func (s *eventStoreStub) List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, int, error) {
	s.listFilter = filter
	return s.listResult, s.listTotal, s.listErr
}

func (s *eventStoreStub) FindByID(ctx context.Context, id string) (*models.EventDetail, error) {
	if event, ok := s.events[id]; ok {
		copied := *event
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *eventStoreStub) Create(ctx context.Context, event *models.Event, participants []string) error {
	if s.createErr != nil {
		return s.createErr
	}
	if event.ID == "" {
		event.ID = "generated"
	}
	s.created = event
	s.createdWith = participants
	if s.events == nil {
		s.events = map[string]*models.EventDetail{}
	}
	s.events[event.ID] = &models.EventDetail{Event: *event, Participants: participants}
	return nil
}

func (s *eventStoreStub) Update(ctx context.Context, event *models.Event, participants []string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = event
	s.updatedWith = participants
	s.events[event.ID] = &models.EventDetail{Event: *event, Participants: participants}
	return nil
}

func (s *eventStoreStub) Delete(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type teacherReaderStub struct {
	teachers map[string]*models.Teacher
	missing  []string
}

func (s teacherReaderStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := s.teachers[id]; ok {
		return teacher, nil
	}
	return nil, sql.ErrNoRows
}

func (s teacherReaderStub) ExistsByIDs(ctx context.Context, ids []string) ([]string, error) {
	var missing []string
	for _, id := range ids {
		if _, ok := s.teachers[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type classReaderStub struct {
	classes map[string]*models.SchoolClassDetail
}

func (s classReaderStub) FindByID(ctx context.Context, id string) (*models.SchoolClassDetail, error) {
	if class, ok := s.classes[id]; ok {
		return class, nil
	}
	return nil, sql.ErrNoRows
}

type feedbackCheckerStub struct {
	attached map[string]bool
	err      error
}

func (s feedbackCheckerStub) ExistsByEventID(ctx context.Context, eventID string) (bool, error) {
	return s.attached[eventID], s.err
}

type auditStub struct {
	logs []*models.AuditLog
}

func (s *auditStub) Create(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func teacherClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleTeacher}
}

func validEventRequest() dto.EventRequest {
	classID := "c1"
	start := time.Date(2026, 4, 13, 8, 30, 0, 0, time.UTC)
	return dto.EventRequest{
		Title:          "Observe 9A algebra",
		Description:    "Scheduled control visit",
		StartTime:      start,
		EndTime:        start.Add(40 * time.Minute),
		ControllerType: string(models.ControllerDirector),
		TeamLeaderID:   "t1",
		ClassID:        &classID,
		Participants:   []string{"t2", "t3"},
	}
}

func newEventServiceForTest(store *eventStoreStub, audit *auditStub) *EventService {
	teachers := teacherReaderStub{teachers: map[string]*models.Teacher{
		"t1": {ID: "t1"}, "t2": {ID: "t2"}, "t3": {ID: "t3"},
	}}
	classes := classReaderStub{classes: map[string]*models.SchoolClassDetail{
		"c1": {SchoolClass: models.SchoolClass{ID: "c1", Name: "9A"}},
	}}
	catalog, _ := timetable.NewCatalog(timetable.DefaultPeriods)
	var auditSink auditLogger
	if audit != nil {
		auditSink = audit
	}
	return NewEventService(store, teachers, classes, feedbackCheckerStub{}, auditSink, catalog, nil, nil, 10)
}

func TestEventServiceCreate(t *testing.T) {
	store := &eventStoreStub{}
	audit := &auditStub{}
	svc := newEventServiceForTest(store, audit)

	created, err := svc.Create(context.Background(), validEventRequest(), adminClaims())
	require.NoError(t, err)
	assert.Equal(t, []string{"t2", "t3"}, store.createdWith)
	assert.Equal(t, models.ControllerDirector, created.ControllerType)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionEventCreate, audit.logs[0].Action)
	// 08:30 is the first bell-schedule period.
	require.NotNil(t, created.Period)
	assert.Equal(t, 1, *created.Period)
}

func TestEventServiceCreateRejectsTeacher(t *testing.T) {
	svc := newEventServiceForTest(&eventStoreStub{}, nil)

	_, err := svc.Create(context.Background(), validEventRequest(), teacherClaims("t2"))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestEventServiceCreateValidation(t *testing.T) {
	svc := newEventServiceForTest(&eventStoreStub{}, nil)

	cases := []struct {
		name    string
		mutate  func(*dto.EventRequest)
		code    string
	}{
		{"end before start", func(r *dto.EventRequest) { r.EndTime = r.StartTime.Add(-time.Minute) }, appErrors.ErrValidation.Code},
		{"unknown controller type", func(r *dto.EventRequest) { r.ControllerType = "PRINCIPAL" }, appErrors.ErrValidation.Code},
		{"leader in roster", func(r *dto.EventRequest) { r.Participants = []string{"t1"} }, appErrors.ErrValidation.Code},
		{"duplicate participant", func(r *dto.EventRequest) { r.Participants = []string{"t2", "t2"} }, appErrors.ErrValidation.Code},
		{"unknown leader", func(r *dto.EventRequest) { r.TeamLeaderID = "ghost" }, appErrors.ErrReference.Code},
		{"unknown participant", func(r *dto.EventRequest) { r.Participants = []string{"ghost"} }, appErrors.ErrReference.Code},
		{"unknown class", func(r *dto.EventRequest) { ghost := "ghost"; r.ClassID = &ghost }, appErrors.ErrReference.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validEventRequest()
			tc.mutate(&req)
			_, err := svc.Create(context.Background(), req, adminClaims())
			require.Error(t, err)
			var typed *appErrors.Error
			require.True(t, errors.As(err, &typed))
			assert.Equal(t, tc.code, typed.Code)
		})
	}
}

func TestEventServiceListScopesTeachers(t *testing.T) {
	store := &eventStoreStub{}
	svc := newEventServiceForTest(store, nil)

	_, _, err := svc.List(context.Background(), models.EventFilter{}, teacherClaims("t9"))
	require.NoError(t, err)
	assert.Equal(t, "t9", store.listFilter.ScopeTeacherID)

	_, _, err = svc.List(context.Background(), models.EventFilter{}, adminClaims())
	require.NoError(t, err)
	assert.Empty(t, store.listFilter.ScopeTeacherID)
}

func TestEventServiceGetHidesInvisibleEvents(t *testing.T) {
	store := &eventStoreStub{events: map[string]*models.EventDetail{
		"e1": {Event: models.Event{ID: "e1", TeamLeaderID: "t1"}, Participants: []string{"t2"}},
	}}
	svc := newEventServiceForTest(store, nil)

	_, err := svc.Get(context.Background(), "e1", teacherClaims("t2"))
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), "e1", teacherClaims("t9"))
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrNotFound.Code, typed.Code)
}

func TestEventServiceDeleteBlockedByFeedback(t *testing.T) {
	store := &eventStoreStub{events: map[string]*models.EventDetail{
		"e1": {Event: models.Event{ID: "e1", TeamLeaderID: "t1"}},
	}}
	svc := newEventServiceForTest(store, nil)
	svc.feedback = feedbackCheckerStub{attached: map[string]bool{"e1": true}}

	err := svc.Delete(context.Background(), "e1", adminClaims())
	require.Error(t, err)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrConflict.Code, typed.Code)
	assert.Empty(t, store.deleted)
}

func TestEventServiceUpdateReplacesRoster(t *testing.T) {
	store := &eventStoreStub{events: map[string]*models.EventDetail{
		"e1": {Event: models.Event{ID: "e1", TeamLeaderID: "t1"}, Participants: []string{"t2"}},
	}}
	audit := &auditStub{}
	svc := newEventServiceForTest(store, audit)

	req := validEventRequest()
	req.Participants = []string{"t3"}
	updated, err := svc.Update(context.Background(), "e1", req, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, []string{"t3"}, store.updatedWith)
	assert.Equal(t, []string{"t3"}, updated.Participants)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionEventUpdate, audit.logs[0].Action)
}
