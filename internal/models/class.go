package models

import "time"

// SchoolClass represents an observable class section, e.g. "9А".
type SchoolClass struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	GradeLevel   int       `db:"grade_level" json:"grade_level"`
	Capacity     int       `db:"capacity" json:"capacity"`
	SupervisorID *string   `db:"supervisor_id" json:"supervisor_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// SchoolClassDetail extends SchoolClass with supervisor display info.
type SchoolClassDetail struct {
	SchoolClass
	SupervisorName *string `db:"supervisor_name" json:"supervisor_name,omitempty"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	GradeLevel *int
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
