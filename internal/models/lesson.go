package models

import "time"

// Day enumerates teaching days of the week.
type Day string

const (
	DayMonday    Day = "MONDAY"
	DayTuesday   Day = "TUESDAY"
	DayWednesday Day = "WEDNESDAY"
	DayThursday  Day = "THURSDAY"
	DayFriday    Day = "FRIDAY"
)

// Valid reports whether the day is a recognised teaching day.
func (d Day) Valid() bool {
	switch d {
	case DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday:
		return true
	}
	return false
}

// Lesson represents a recurring timetable entry that observations target.
type Lesson struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Day       Day       `db:"day" json:"day"`
	StartTime time.Time `db:"start_time" json:"start_time"`
	EndTime   time.Time `db:"end_time" json:"end_time"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// LessonDetail includes subject, class and teacher display fields.
type LessonDetail struct {
	Lesson
	SubjectName string `db:"subject_name" json:"subject_name"`
	ClassName   string `db:"class_name" json:"class_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// LessonFilter describes query params for listing lessons.
type LessonFilter struct {
	Day       string
	SubjectID string
	ClassID   string
	TeacherID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
