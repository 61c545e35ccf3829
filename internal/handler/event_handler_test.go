package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhanat-dev/observation-api/internal/models"
)

func TestEventHandlerFilterFromQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewEventHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/events?search=algebra&controllerType=DIRECTOR&classId=c1&hasFeedback=true&page=3&limit=25", nil)
	c.Request = req

	filter := handler.filterFromQuery(c)
	assert.Equal(t, "algebra", filter.Search)
	assert.Equal(t, "DIRECTOR", filter.ControllerType)
	assert.Equal(t, "c1", filter.ClassID)
	require.NotNil(t, filter.HasFeedback)
	assert.True(t, *filter.HasFeedback)
	assert.Equal(t, 3, filter.Page)
	assert.Equal(t, 25, filter.PageSize)
}

func TestEventHandlerFilterDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewEventHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/events?hasFeedback=maybe", nil)
	c.Request = req

	filter := handler.filterFromQuery(c)
	assert.Nil(t, filter.HasFeedback)
	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, 10, filter.PageSize)
}

func TestEventHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewEventHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(`{"title":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventHandlerExportRejectsUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewEventHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/events/export?format=xlsx", nil)
	c.Request = req

	handler.Export(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventDataset(t *testing.T) {
	className := "10-A"
	feedbackID := "f1"
	events := []models.EventDetail{
		{
			Event: models.Event{
				Title:          "Algebra visit",
				ControllerType: models.ControllerDirector,
				StartTime:      time.Date(2026, 4, 15, 8, 30, 0, 0, time.UTC),
				EndTime:        time.Date(2026, 4, 15, 9, 10, 0, 0, time.UTC),
			},
			TeamLeaderName: "Alikhanova Aigerim",
			ClassName:      &className,
			FeedbackID:     &feedbackID,
			Participants:   []string{"t2", "t3"},
		},
		{
			Event: models.Event{Title: "History visit", ControllerType: models.ControllerDeputyNMR},
			TeamLeaderName: "Bekova Dana",
			Participants:   []string{},
		},
	}

	dataset := eventDataset(events)
	require.Len(t, dataset.Rows, 2)
	assert.Equal(t, "Algebra visit", dataset.Rows[0]["Title"])
	assert.Equal(t, "10-A", dataset.Rows[0]["Class"])
	assert.Equal(t, "yes", dataset.Rows[0]["Feedback"])
	assert.Equal(t, "2", dataset.Rows[0]["Participants"])
	assert.Equal(t, "", dataset.Rows[1]["Class"])
	assert.Equal(t, "no", dataset.Rows[1]["Feedback"])
	assert.True(t, strings.HasPrefix(dataset.Rows[0]["Start"], "2026-04-15T08:30:00"))
}
