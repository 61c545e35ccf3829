package models

import "time"

// Feedback is the single evaluation sheet attached one-to-one to an event.
// The checklist columns are fixed named fields so that adding or removing an
// item is a schema change, never a data change.
type Feedback struct {
	ID      string `db:"id" json:"id"`
	EventID string `db:"event_id" json:"event_id"`

	ObserverName    string    `db:"observer_name" json:"observer_name"`
	ObservationDate time.Time `db:"observation_date" json:"observation_date"`
	ObservationTime string    `db:"observation_time" json:"observation_time"`
	Subject         string    `db:"subject" json:"subject"`
	Grade           string    `db:"grade" json:"grade"`

	// Section 1: conduct of the observation itself.
	HasTeamLeader           bool    `db:"has_team_leader" json:"has_team_leader"`
	HasAgenda               bool    `db:"has_agenda" json:"has_agenda"`
	IsProcessDocumented     bool    `db:"is_process_documented" json:"is_process_documented"`
	TeachersShowInterest    bool    `db:"teachers_show_interest" json:"teachers_show_interest"`
	TeachersGiveSuggestions bool    `db:"teachers_give_suggestions" json:"teachers_give_suggestions"`
	EffectiveCollaboration  bool    `db:"effective_collaboration" json:"effective_collaboration"`
	AnalyzePreviousLessons  bool    `db:"analyze_previous_lessons" json:"analyze_previous_lessons"`
	CommentsSection1        *string `db:"comments_section1" json:"comments_section1,omitempty"`
	RecommendationsSection1 *string `db:"recommendations_section1" json:"recommendations_section1,omitempty"`

	// Section 2: inputs used while planning.
	UseLessonReflection     bool    `db:"use_lesson_reflection" json:"use_lesson_reflection"`
	UseStudentAchievements  bool    `db:"use_student_achievements" json:"use_student_achievements"`
	UseExternalAssessment   bool    `db:"use_external_assessment" json:"use_external_assessment"`
	UsePedagogicalDecisions bool    `db:"use_pedagogical_decisions" json:"use_pedagogical_decisions"`
	UseLessonVisitResults   bool    `db:"use_lesson_visit_results" json:"use_lesson_visit_results"`
	UseStudentFeedback      bool    `db:"use_student_feedback" json:"use_student_feedback"`
	UseOtherData            bool    `db:"use_other_data" json:"use_other_data"`
	OtherDataDescription    *string `db:"other_data_description" json:"other_data_description,omitempty"`
	CommentsSection2        *string `db:"comments_section2" json:"comments_section2,omitempty"`
	RecommendationsSection2 *string `db:"recommendations_section2" json:"recommendations_section2,omitempty"`

	// Section 3: the planning process.
	DiscussGoalsAlignment          bool    `db:"discuss_goals_alignment" json:"discuss_goals_alignment"`
	AdaptLearningGoals             bool    `db:"adapt_learning_goals" json:"adapt_learning_goals"`
	SelectAppropriateResources     bool    `db:"select_appropriate_resources" json:"select_appropriate_resources"`
	SelectDifferentiatedStrategies bool    `db:"select_differentiated_strategies" json:"select_differentiated_strategies"`
	SelectEngagingTasks            bool    `db:"select_engaging_tasks" json:"select_engaging_tasks"`
	DiscussDescriptors             bool    `db:"discuss_descriptors" json:"discuss_descriptors"`
	AllocateTime                   bool    `db:"allocate_time" json:"allocate_time"`
	SelectFormativeAssessment      bool    `db:"select_formative_assessment" json:"select_formative_assessment"`
	PlanReflection                 bool    `db:"plan_reflection" json:"plan_reflection"`
	UseICTTools                    bool    `db:"use_ict_tools" json:"use_ict_tools"`
	DefineHomework                 bool    `db:"define_homework" json:"define_homework"`
	ConsiderSafety                 bool    `db:"consider_safety" json:"consider_safety"`
	CommentsSection3               *string `db:"comments_section3" json:"comments_section3,omitempty"`
	RecommendationsSection3        *string `db:"recommendations_section3" json:"recommendations_section3,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FeedbackDetail adds event display fields for list rendering.
type FeedbackDetail struct {
	Feedback
	EventTitle string `db:"event_title" json:"event_title"`
}

// FeedbackFilter describes list query parameters for feedback sheets.
type FeedbackFilter struct {
	Search         string
	ScopeTeacherID string
	Page           int
	PageSize       int
}
