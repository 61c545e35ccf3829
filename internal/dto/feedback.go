package dto

import "time"

// FeedbackRequest carries the full observation sheet. The descriptive header
// fields (observer, date, time, subject, grade) are pre-populated by the
// client from the selected event and lesson; the service stores them as
// submitted. EventID binds the sheet on create and is ignored on update.
type FeedbackRequest struct {
	EventID string `json:"eventId" validate:"required"`

	ObserverName    string    `json:"observerName" validate:"required"`
	ObservationDate time.Time `json:"observationDate" validate:"required"`
	ObservationTime string    `json:"observationTime" validate:"required"`
	Subject         string    `json:"subject" validate:"required"`
	Grade           string    `json:"grade" validate:"required"`

	HasTeamLeader           bool    `json:"hasTeamLeader"`
	HasAgenda               bool    `json:"hasAgenda"`
	IsProcessDocumented     bool    `json:"isProcessDocumented"`
	TeachersShowInterest    bool    `json:"teachersShowInterest"`
	TeachersGiveSuggestions bool    `json:"teachersGiveSuggestions"`
	EffectiveCollaboration  bool    `json:"effectiveCollaboration"`
	AnalyzePreviousLessons  bool    `json:"analyzePreviousLessons"`
	CommentsSection1        *string `json:"commentsSection1,omitempty"`
	RecommendationsSection1 *string `json:"recommendationsSection1,omitempty"`

	UseLessonReflection     bool    `json:"useLessonReflection"`
	UseStudentAchievements  bool    `json:"useStudentAchievements"`
	UseExternalAssessment   bool    `json:"useExternalAssessment"`
	UsePedagogicalDecisions bool    `json:"usePedagogicalDecisions"`
	UseLessonVisitResults   bool    `json:"useLessonVisitResults"`
	UseStudentFeedback      bool    `json:"useStudentFeedback"`
	UseOtherData            bool    `json:"useOtherData"`
	OtherDataDescription    *string `json:"otherDataDescription,omitempty"`
	CommentsSection2        *string `json:"commentsSection2,omitempty"`
	RecommendationsSection2 *string `json:"recommendationsSection2,omitempty"`

	DiscussGoalsAlignment          bool    `json:"discussGoalsAlignment"`
	AdaptLearningGoals             bool    `json:"adaptLearningGoals"`
	SelectAppropriateResources     bool    `json:"selectAppropriateResources"`
	SelectDifferentiatedStrategies bool    `json:"selectDifferentiatedStrategies"`
	SelectEngagingTasks            bool    `json:"selectEngagingTasks"`
	DiscussDescriptors             bool    `json:"discussDescriptors"`
	AllocateTime                   bool    `json:"allocateTime"`
	SelectFormativeAssessment      bool    `json:"selectFormativeAssessment"`
	PlanReflection                 bool    `json:"planReflection"`
	UseICTTools                    bool    `json:"useICTTools"`
	DefineHomework                 bool    `json:"defineHomework"`
	ConsiderSafety                 bool    `json:"considerSafety"`
	CommentsSection3               *string `json:"commentsSection3,omitempty"`
	RecommendationsSection3        *string `json:"recommendationsSection3,omitempty"`
}

// ChecklistField pairs a stable field identifier with its display label.
type ChecklistField struct {
	Field string `json:"field"`
	Label string `json:"label"`
}

// ChecklistSection groups the fixed fields of one sheet section.
type ChecklistSection struct {
	Title  string           `json:"title"`
	Fields []ChecklistField `json:"fields"`
}

// FeedbackSchema exposes the static checklist layout so clients iterate the
// fixed fields instead of reading booleans by dynamic key.
type FeedbackSchema struct {
	Sections []ChecklistSection `json:"sections"`
}

// FeedbackSchemaDefinition is the canonical checklist layout. Labels are a
// presentation concern and live here, outside the domain model.
var FeedbackSchemaDefinition = FeedbackSchema{
	Sections: []ChecklistSection{
		{
			Title: "Observation conduct",
			Fields: []ChecklistField{
				{Field: "hasTeamLeader", Label: "A team leader is present"},
				{Field: "hasAgenda", Label: "The meeting has an agenda"},
				{Field: "isProcessDocumented", Label: "The process is documented"},
				{Field: "teachersShowInterest", Label: "Teachers show interest"},
				{Field: "teachersGiveSuggestions", Label: "Teachers give suggestions"},
				{Field: "effectiveCollaboration", Label: "Collaboration is effective"},
				{Field: "analyzePreviousLessons", Label: "Previous lessons are analyzed"},
			},
		},
		{
			Title: "Planning inputs",
			Fields: []ChecklistField{
				{Field: "useLessonReflection", Label: "Lesson reflection is used"},
				{Field: "useStudentAchievements", Label: "Student achievement data is used"},
				{Field: "useExternalAssessment", Label: "External assessment results are used"},
				{Field: "usePedagogicalDecisions", Label: "Pedagogical council decisions are used"},
				{Field: "useLessonVisitResults", Label: "Lesson visit results are used"},
				{Field: "useStudentFeedback", Label: "Student feedback is used"},
				{Field: "useOtherData", Label: "Other data is used"},
			},
		},
		{
			Title: "Planning process",
			Fields: []ChecklistField{
				{Field: "discussGoalsAlignment", Label: "Goal alignment is discussed"},
				{Field: "adaptLearningGoals", Label: "Learning goals are adapted"},
				{Field: "selectAppropriateResources", Label: "Appropriate resources are selected"},
				{Field: "selectDifferentiatedStrategies", Label: "Differentiated strategies are selected"},
				{Field: "selectEngagingTasks", Label: "Engaging tasks are selected"},
				{Field: "discussDescriptors", Label: "Descriptors are discussed"},
				{Field: "allocateTime", Label: "Time is allocated"},
				{Field: "selectFormativeAssessment", Label: "Formative assessment is selected"},
				{Field: "planReflection", Label: "Reflection is planned"},
				{Field: "useICTTools", Label: "ICT tools are used"},
				{Field: "defineHomework", Label: "Homework is defined"},
				{Field: "considerSafety", Label: "Safety is considered"},
			},
		},
	},
}
