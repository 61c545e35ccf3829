package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/zhanat-dev/observation-api/internal/dto"
	"github.com/zhanat-dev/observation-api/internal/models"
	appErrors "github.com/zhanat-dev/observation-api/pkg/errors"
)

type eventCounter interface {
	CountWithFeedback(ctx context.Context, scopeTeacherID string) (total int, withFeedback int, err error)
	CountSince(ctx context.Context, scopeTeacherID string, from, to time.Time) (int, error)
}

// StatsService computes derived observation aggregates. Every request
// recomputes from current data; results are never cached or stored.
type StatsService struct {
	events eventCounter
	logger *zap.Logger
	now    func() time.Time
}

// NewStatsService builds a StatsService.
func NewStatsService(events eventCounter, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{events: events, logger: logger, now: time.Now}
}

// Overview returns completion and activity aggregates scoped to the caller.
func (s *StatsService) Overview(ctx context.Context, claims *models.JWTClaims) (*dto.ObservationStatsResponse, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	scope := ""
	if claims.Role == models.RoleTeacher {
		scope = claims.UserID
	}

	total, withFeedback, err := s.events.CountWithFeedback(ctx, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count events")
	}

	// Week boundaries follow the server's wall clock, not UTC.
	weekStart := startOfWeek(s.now())
	weekly, err := s.events.CountSince(ctx, scope, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count weekly events")
	}

	return &dto.ObservationStatsResponse{
		TotalEvents:    total,
		WithFeedback:   withFeedback,
		CompletionRate: completionRate(total, withFeedback),
		PendingCount:   total - withFeedback,
		WeeklyCount:    weekly,
		WeekStart:      weekStart,
	}, nil
}

// completionRate is the rounded percentage of events with a sheet; an
// empty data set reads as 0, not a division error.
func completionRate(total, withFeedback int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(withFeedback) / float64(total) * 100))
}

// startOfWeek returns Monday 00:00 of the week containing t.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	day := t.AddDate(0, 0, -offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, t.Location())
}
