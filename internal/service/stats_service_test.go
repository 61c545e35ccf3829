package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventCounterStub struct {
	total        int
	withFeedback int
	weekly       int
	scope        string
	from, to     time.Time
}

func (s *eventCounterStub) CountWithFeedback(ctx context.Context, scopeTeacherID string) (int, int, error) {
	s.scope = scopeTeacherID
	return s.total, s.withFeedback, nil
}

func (s *eventCounterStub) CountSince(ctx context.Context, scopeTeacherID string, from, to time.Time) (int, error) {
	s.from, s.to = from, to
	return s.weekly, nil
}

func TestStatsServiceOverview(t *testing.T) {
	counter := &eventCounterStub{total: 8, withFeedback: 5, weekly: 3}
	svc := NewStatsService(counter, nil)
	// Wednesday 2026-04-15 10:00 UTC.
	svc.now = func() time.Time { return time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC) }

	stats, err := svc.Overview(context.Background(), adminClaims())
	require.NoError(t, err)
	assert.Equal(t, 8, stats.TotalEvents)
	assert.Equal(t, 5, stats.WithFeedback)
	assert.Equal(t, 63, stats.CompletionRate) // 5/8 rounds to 63
	assert.Equal(t, 3, stats.PendingCount)
	assert.Equal(t, 3, stats.WeeklyCount)
	assert.Equal(t, time.Date(2026, 4, 13, 0, 0, 0, 0, time.UTC), stats.WeekStart)
	assert.Equal(t, stats.WeekStart.AddDate(0, 0, 7), counter.to)
	assert.Empty(t, counter.scope)
}

func TestStatsServiceOverviewScopesTeachers(t *testing.T) {
	counter := &eventCounterStub{}
	svc := NewStatsService(counter, nil)

	_, err := svc.Overview(context.Background(), teacherClaims("t7"))
	require.NoError(t, err)
	assert.Equal(t, "t7", counter.scope)
}

func TestCompletionRate(t *testing.T) {
	cases := []struct {
		total, withFeedback, want int
	}{
		{0, 0, 0},
		{1, 0, 0},
		{1, 1, 100},
		{3, 1, 33},
		{3, 2, 67},
		{8, 5, 63},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, completionRate(tc.total, tc.withFeedback))
	}
}

func TestStartOfWeek(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		// A Monday maps onto itself at midnight.
		{time.Date(2026, 4, 13, 15, 30, 0, 0, time.UTC), time.Date(2026, 4, 13, 0, 0, 0, 0, time.UTC)},
		// A Sunday belongs to the week started the previous Monday.
		{time.Date(2026, 4, 19, 1, 0, 0, 0, time.UTC), time.Date(2026, 4, 13, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, startOfWeek(tc.in))
	}
}

func TestStatsServiceWeekBoundaryKeepsWallClockZone(t *testing.T) {
	counter := &eventCounterStub{}
	svc := NewStatsService(counter, nil)
	almaty := time.FixedZone("Asia/Almaty", 5*60*60)
	// Monday 2026-04-13 02:00 in Almaty is still Sunday in UTC; the week
	// must anchor on the local Monday, not the UTC one.
	svc.now = func() time.Time { return time.Date(2026, 4, 13, 2, 0, 0, 0, almaty) }

	stats, err := svc.Overview(context.Background(), adminClaims())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 13, 0, 0, 0, 0, almaty), stats.WeekStart)
}

func TestStatsServiceOverviewUnauthorized(t *testing.T) {
	svc := NewStatsService(&eventCounterStub{}, nil)
	_, err := svc.Overview(context.Background(), nil)
	assert.Error(t, err)
}
