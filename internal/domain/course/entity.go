// Package course contains the catalog side of the learning platform:
// courses, lessons, activities and final assessments. The catalog is
// authored externally; the progression engine only reads it.
package course

import (
	"encoding/json"
	"time"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE
// ══════════════════════════════════════════════════════════════════════════════

// Course represents a single course in the platform's total order.
// Courses are ordered by CourseNumber; course N+1 requires completion
// of course N.
type Course struct {
	// ID is the internal identifier.
	ID string

	// CourseNumber is the 1-based position in the course sequence.
	CourseNumber int

	// Title is the display title.
	Title string

	// Description is the catalog description.
	Description string

	// Published controls catalog visibility. Unpublished courses are
	// invisible to the engine's read paths.
	Published bool

	// FinalProjectID references the course's final project, if any.
	FinalProjectID string

	// FinalExamID references the course's final exam, if any.
	FinalExamID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasFinalProject returns true if the course ends in a final project.
func (c *Course) HasFinalProject() bool {
	return c.FinalProjectID != ""
}

// HasFinalExam returns true if the course ends in a final exam.
func (c *Course) HasFinalExam() bool {
	return c.FinalExamID != ""
}

// Validate checks catalog invariants that the engine assumes.
func (c *Course) Validate() error {
	if c.ID == "" {
		return shared.NewDomainError("course", "Validate", shared.ErrEmptyValue, "course ID is required")
	}
	if c.CourseNumber < 1 {
		return shared.NewDomainError("course", "Validate", shared.ErrValueOutOfRange, "course number must be >= 1")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON
// ══════════════════════════════════════════════════════════════════════════════

// Lesson is an ordered unit within a course. Lesson numbers are
// contiguous and 1-based within their course; this is checked at
// content-authoring time and assumed by the engine.
type Lesson struct {
	ID           string
	CourseID     string
	LessonNumber int
	Title        string
	Description  string
	VideoURL     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks catalog invariants that the engine assumes.
func (l *Lesson) Validate() error {
	if l.ID == "" || l.CourseID == "" {
		return shared.NewDomainError("course", "Validate", shared.ErrEmptyValue, "lesson and course IDs are required")
	}
	if l.LessonNumber < 1 {
		return shared.NewDomainError("course", "Validate", shared.ErrValueOutOfRange, "lesson number must be >= 1")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY
// ══════════════════════════════════════════════════════════════════════════════

// ActivityType identifies the kind of an activity and selects the
// submission validation rules applied to it.
type ActivityType string

const (
	// ActivityTypeQuiz - multiple choice questions answered inline.
	ActivityTypeQuiz ActivityType = "quiz"

	// ActivityTypeExercise - a free-form answer checked for presence only.
	ActivityTypeExercise ActivityType = "exercise"

	// ActivityTypeReflection - a reflection text with a minimum length.
	ActivityTypeReflection ActivityType = "reflection"

	// ActivityTypePracticalTask - a structured submission with required fields.
	ActivityTypePracticalTask ActivityType = "practical_task"
)

// IsKnown returns true for activity types with dedicated validation rules.
// Unknown types are still accepted by the engine with a permissive
// forward-compatible default.
func (t ActivityType) IsKnown() bool {
	switch t {
	case ActivityTypeQuiz, ActivityTypeExercise, ActivityTypeReflection, ActivityTypePracticalTask:
		return true
	default:
		return false
	}
}

// Activity is an ordered unit within a lesson. Activity numbers are
// contiguous and 1-based within their lesson.
type Activity struct {
	ID             string
	LessonID       string
	ActivityNumber int
	Type           ActivityType
	Title          string

	// Content is the opaque authored content. Its shape depends on Type;
	// the engine only decodes the parts validation and feedback need.
	Content json.RawMessage

	// Required controls whether this activity gates lesson completion.
	Required bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// QuizContent decodes the quiz-specific portion of the activity content.
func (a *Activity) QuizContent() (*QuizContent, error) {
	var qc QuizContent
	if err := json.Unmarshal(a.Content, &qc); err != nil {
		return nil, shared.WrapError("course", "DecodeContent", shared.ErrInvalidEntity, "malformed quiz content", err)
	}
	return &qc, nil
}

// QuizContent is the authored shape of a quiz activity.
type QuizContent struct {
	Questions []QuizQuestion `json:"questions"`
}

// QuizQuestion is a single quiz question with one correct option.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// ReflectionContent is the authored shape of a reflection activity.
type ReflectionContent struct {
	Prompt    string `json:"prompt"`
	MinLength int    `json:"minLength"`
}

// PracticalTaskContent is the authored shape of a practical task.
type PracticalTaskContent struct {
	Instructions   string   `json:"instructions"`
	RequiredFields []string `json:"requiredFields"`
}

// ══════════════════════════════════════════════════════════════════════════════
// FINAL ASSESSMENTS
// ══════════════════════════════════════════════════════════════════════════════

// FinalProject is the authored definition of a course's final project.
type FinalProject struct {
	ID        string
	CourseID  string
	Title     string
	Brief     string
	CreatedAt time.Time
}

// ExamQuestionType identifies the grading rule for an exam question.
type ExamQuestionType string

const (
	// QuestionTypeMultipleChoice - auto-graded against the correct option.
	QuestionTypeMultipleChoice ExamQuestionType = "multiple_choice"

	// QuestionTypeTrueFalse - auto-graded, options are "true"/"false".
	QuestionTypeTrueFalse ExamQuestionType = "true_false"

	// QuestionTypeShortAnswer - requires manual grading by a human.
	QuestionTypeShortAnswer ExamQuestionType = "short_answer"
)

// ExamOption is a single answer option for an auto-gradable question.
type ExamOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// ExamQuestion is a single question in a final exam.
type ExamQuestion struct {
	ID      string           `json:"id"`
	Type    ExamQuestionType `json:"type"`
	Prompt  string           `json:"prompt"`
	Points  int              `json:"points"`
	Options []ExamOption     `json:"options,omitempty"`
}

// CorrectOption returns the option flagged correct, or nil if none is.
func (q *ExamQuestion) CorrectOption() *ExamOption {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

// FinalExam is the authored definition of a course's final exam.
type FinalExam struct {
	ID       string
	CourseID string
	Title    string

	// Questions is the opaque authored question set.
	Questions json.RawMessage

	// PassingScore is the minimum percentage [0,100] required to pass.
	PassingScore int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultPassingScore is used when an exam does not specify one.
const DefaultPassingScore = 70

// DecodeQuestions decodes the exam's question set.
func (e *FinalExam) DecodeQuestions() ([]ExamQuestion, error) {
	var qs []ExamQuestion
	if err := json.Unmarshal(e.Questions, &qs); err != nil {
		return nil, shared.WrapError("course", "DecodeQuestions", shared.ErrInvalidEntity, "malformed exam questions", err)
	}
	return qs, nil
}

// EffectivePassingScore returns the configured passing score or the default.
func (e *FinalExam) EffectivePassingScore() int {
	if e.PassingScore <= 0 {
		return DefaultPassingScore
	}
	return e.PassingScore
}
