package models

import "time"

// ControllerType enumerates which authority conducts a control visit.
// The set follows the school's administrative departments.
type ControllerType string

const (
	ControllerDirector  ControllerType = "DIRECTOR"
	ControllerDeputyUC  ControllerType = "DEPUTY_UC"
	ControllerDeputyVP  ControllerType = "DEPUTY_VP"
	ControllerDeputyNMR ControllerType = "DEPUTY_NMR"
	ControllerDeputyVS  ControllerType = "DEPUTY_VS"
)

// ControllerTypes lists every recognised controller type.
var ControllerTypes = []ControllerType{
	ControllerDirector,
	ControllerDeputyUC,
	ControllerDeputyVP,
	ControllerDeputyNMR,
	ControllerDeputyVS,
}

// Valid reports whether the value belongs to the closed enumeration.
func (t ControllerType) Valid() bool {
	for _, known := range ControllerTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Event is the observation event aggregate root: a scheduled classroom
// control visit led by a team leader with zero or more observer participants.
type Event struct {
	ID             string         `db:"id" json:"id"`
	Title          string         `db:"title" json:"title"`
	Description    string         `db:"description" json:"description"`
	StartTime      time.Time      `db:"start_time" json:"start_time"`
	EndTime        time.Time      `db:"end_time" json:"end_time"`
	ControllerType ControllerType `db:"controller_type" json:"controller_type"`
	TeamLeaderID   string         `db:"team_leader_id" json:"team_leader_id"`
	ClassID        *string        `db:"class_id" json:"class_id,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// EventDetail joins display fields and the roster onto the event row.
type EventDetail struct {
	Event
	TeamLeaderName string   `db:"team_leader_name" json:"team_leader_name"`
	ClassName      *string  `db:"class_name" json:"class_name,omitempty"`
	FeedbackID     *string  `db:"feedback_id" json:"feedback_id,omitempty"`
	Participants   []string `db:"-" json:"participants"`
	Period         *int     `db:"-" json:"period,omitempty"`
}

// HasFeedback reports whether a feedback sheet is attached.
func (e EventDetail) HasFeedback() bool {
	return e.FeedbackID != nil
}

// EventFilter describes list query parameters. Scope carries the
// role-derived visibility restriction; empty means unrestricted.
type EventFilter struct {
	Search         string
	ControllerType string
	ClassID        string
	HasFeedback    *bool
	ScopeTeacherID string
	Page           int
	PageSize       int
}
