package dto

import "time"

// EventRequest defines the payload for creating or updating an observation
// event. Updates replace the participant roster wholesale.
type EventRequest struct {
	Title          string    `json:"title" validate:"required"`
	Description    string    `json:"description" validate:"required"`
	StartTime      time.Time `json:"startTime" validate:"required"`
	EndTime        time.Time `json:"endTime" validate:"required"`
	ControllerType string    `json:"controllerType" validate:"required"`
	TeamLeaderID   string    `json:"teamLeaderId" validate:"required"`
	ClassID        *string   `json:"classId,omitempty"`
	Participants   []string  `json:"participants"`
}
