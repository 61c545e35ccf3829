package dto

import "time"

// ObservationStatsResponse carries read-side derived aggregates. Values are
// recomputed from current data on every request; nothing here is cached.
type ObservationStatsResponse struct {
	TotalEvents    int       `json:"totalEvents"`
	WithFeedback   int       `json:"withFeedback"`
	CompletionRate int       `json:"completionRate"`
	PendingCount   int       `json:"pendingCount"`
	WeeklyCount    int       `json:"weeklyCount"`
	WeekStart      time.Time `json:"weekStart"`
}
