package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhanat-dev/observation-api/internal/timetable"
	"github.com/zhanat-dev/observation-api/pkg/response"
)

func newTestCatalog(t *testing.T) *timetable.Catalog {
	t.Helper()
	catalog, err := timetable.NewCatalog(timetable.DefaultPeriods)
	require.NoError(t, err)
	return catalog
}

func TestTimetableHandlerPeriods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(newTestCatalog(t))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable/periods", nil)
	c.Request = req

	handler.Periods(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	periods, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, periods, 10)

	first, ok := periods[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), first["number"])
	assert.Equal(t, "08:30", first["start"])
	assert.Equal(t, "09:10", first["end"])
}

func TestTimetableHandlerResolveMatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(newTestCatalog(t))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable/resolve?timestamp=2026-04-15T09:25:00Z", nil)
	c.Request = req

	handler.Resolve(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), data["period"])
	assert.Equal(t, false, data["custom"])
}

func TestTimetableHandlerResolveCustom(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(newTestCatalog(t))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable/resolve?timestamp=2026-04-15T09:26:00Z", nil)
	c.Request = req

	handler.Resolve(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["custom"])
	assert.NotContains(t, data, "period")
}

func TestTimetableHandlerResolveRequiresTimestamp(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(newTestCatalog(t))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable/resolve", nil)
	c.Request = req

	handler.Resolve(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerMaterialize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(newTestCatalog(t))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable/materialize?period=3&date=2026-04-15", nil)
	c.Request = req

	handler.Materialize(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2026-04-15T10:20:00Z", data["start"])
	assert.Equal(t, "2026-04-15T11:00:00Z", data["end"])
}

func TestTimetableHandlerMaterializeDefaultsToToday(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(newTestCatalog(t))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable/materialize?period=3", nil)
	c.Request = req

	handler.Materialize(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)

	today := time.Now().UTC().Format("2006-01-02")
	start, ok := data["start"].(string)
	require.True(t, ok)
	assert.Equal(t, today+"T10:20:00Z", start)
}

func TestTimetableHandlerMaterializeRejectsMalformedDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(newTestCatalog(t))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable/materialize?period=3&date=15-04-2026", nil)
	c.Request = req

	handler.Materialize(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerMaterializeUnknownPeriod(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(newTestCatalog(t))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable/materialize?period=42&date=2026-04-15", nil)
	c.Request = req

	handler.Materialize(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
