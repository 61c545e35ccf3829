package dto

// TeacherRequest defines payload for creating/updating a teacher.
type TeacherRequest struct {
	Name    string  `json:"name" validate:"required"`
	Surname string  `json:"surname" validate:"required"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
}

// ClassRequest defines payload for creating/updating a class.
type ClassRequest struct {
	Name         string  `json:"name" validate:"required"`
	GradeLevel   int     `json:"gradeLevel" validate:"required,min=1,max=11"`
	Capacity     int     `json:"capacity" validate:"required,min=1,max=20"`
	SupervisorID *string `json:"supervisorId,omitempty"`
}

// SubjectRequest defines payload for creating/updating a subject.
type SubjectRequest struct {
	Name string `json:"name" validate:"required"`
}

// LessonRequest defines payload for creating/updating a timetable lesson.
// Either a period number or explicit start/end times identify the slot.
type LessonRequest struct {
	Name      string  `json:"name" validate:"required"`
	Day       string  `json:"day" validate:"required"`
	Period    *int    `json:"period,omitempty"`
	StartTime *string `json:"startTime,omitempty"`
	EndTime   *string `json:"endTime,omitempty"`
	SubjectID string  `json:"subjectId" validate:"required"`
	ClassID   string  `json:"classId" validate:"required"`
	TeacherID string  `json:"teacherId" validate:"required"`
}

// OptionItem is a lightweight id/label pair used by select inputs.
type OptionItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
