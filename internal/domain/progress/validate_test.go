package progress

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/course"
)

func quizActivity(t *testing.T) *course.Activity {
	t.Helper()
	content, err := json.Marshal(course.QuizContent{
		Questions: []course.QuizQuestion{
			{Question: "Capital of France?", Options: []string{"London", "Paris", "Berlin"}, CorrectAnswer: 1},
			{Question: "2 + 2?", Options: []string{"3", "4"}, CorrectAnswer: 1},
		},
	})
	assert.NoError(t, err)
	return &course.Activity{ID: "q1", Type: course.ActivityTypeQuiz, Content: content}
}

func TestValidateQuiz(t *testing.T) {
	v := NewSubmissionValidator()
	activity := quizActivity(t)

	assert.True(t, v.Validate(activity, json.RawMessage(`{"answers":[1,0]}`)))
	assert.True(t, v.Validate(activity, json.RawMessage(`{"answers":[2,2]}`)),
		"wrong answers are still a valid submission")
	assert.False(t, v.Validate(activity, json.RawMessage(`{"answers":[1]}`)),
		"answer count must match question count")
	assert.False(t, v.Validate(activity, json.RawMessage(`{}`)))
	assert.False(t, v.Validate(activity, json.RawMessage(`not json`)))
}

func TestValidateExercise(t *testing.T) {
	v := NewSubmissionValidator()
	activity := &course.Activity{Type: course.ActivityTypeExercise}

	assert.True(t, v.Validate(activity, json.RawMessage(`{"answer":"my solution"}`)))
	assert.False(t, v.Validate(activity, json.RawMessage(`{"answer":"   "}`)))
	assert.False(t, v.Validate(activity, json.RawMessage(`{}`)))
}

func TestValidateReflection(t *testing.T) {
	v := NewSubmissionValidator()
	content, _ := json.Marshal(course.ReflectionContent{Prompt: "Look back", MinLength: 10})
	activity := &course.Activity{Type: course.ActivityTypeReflection, Content: content}

	assert.True(t, v.Validate(activity, json.RawMessage(`{"reflection":"a thoughtful note"}`)))
	assert.False(t, v.Validate(activity, json.RawMessage(`{"reflection":"short"}`)))
}

func TestValidateReflection_DefaultMinLength(t *testing.T) {
	v := NewSubmissionValidator()
	activity := &course.Activity{Type: course.ActivityTypeReflection, Content: json.RawMessage(`{"prompt":"Look back"}`)}

	long := `{"reflection":"this reflection easily clears the default fifty character minimum length"}`
	assert.True(t, v.Validate(activity, json.RawMessage(long)))
	assert.False(t, v.Validate(activity, json.RawMessage(`{"reflection":"too short for the default"}`)))
}

func TestValidatePracticalTask(t *testing.T) {
	v := NewSubmissionValidator()
	content, _ := json.Marshal(course.PracticalTaskContent{RequiredFields: []string{"repoUrl", "notes"}})
	activity := &course.Activity{Type: course.ActivityTypePracticalTask, Content: content}

	assert.True(t, v.Validate(activity, json.RawMessage(`{"submission":{"repoUrl":"https://example.com/r","notes":"done"}}`)))
	assert.False(t, v.Validate(activity, json.RawMessage(`{"submission":{"repoUrl":"https://example.com/r"}}`)),
		"missing required field")
	assert.False(t, v.Validate(activity, json.RawMessage(`{"submission":{"repoUrl":"","notes":"done"}}`)),
		"empty string does not satisfy a required field")
	assert.False(t, v.Validate(activity, json.RawMessage(`{"submission":{"repoUrl":null,"notes":"done"}}`)))
}

func TestValidateUnknownType(t *testing.T) {
	v := NewSubmissionValidator()
	activity := &course.Activity{Type: course.ActivityType("hologram")}

	assert.True(t, v.Validate(activity, json.RawMessage(`{"anything":"goes"}`)))
	assert.False(t, v.Validate(activity, json.RawMessage(`{}`)))
	assert.False(t, v.Validate(activity, json.RawMessage(`"just a string"`)))
}

func TestQuizFeedback(t *testing.T) {
	v := NewSubmissionValidator()
	activity := quizActivity(t)

	feedback := v.Feedback(activity, json.RawMessage(`{"answers":[1,0]}`))
	assert.Contains(t, feedback, "1 out of 2 correct (50%)")
	assert.Contains(t, feedback, "Question 1: correct")
	assert.Contains(t, feedback, "Question 2: incorrect (correct answer: 4)")

	feedback = v.Feedback(activity, json.RawMessage(`{"answers":[1,1]}`))
	assert.Contains(t, feedback, "2 out of 2 correct (100%)")
}

func TestQuizFeedback_RoundsPercentageToNearest(t *testing.T) {
	v := NewSubmissionValidator()
	content, err := json.Marshal(course.QuizContent{
		Questions: []course.QuizQuestion{
			{Question: "q1", Options: []string{"a", "b"}, CorrectAnswer: 0},
			{Question: "q2", Options: []string{"a", "b"}, CorrectAnswer: 0},
			{Question: "q3", Options: []string{"a", "b"}, CorrectAnswer: 0},
		},
	})
	assert.NoError(t, err)
	activity := &course.Activity{ID: "q3", Type: course.ActivityTypeQuiz, Content: content}

	feedback := v.Feedback(activity, json.RawMessage(`{"answers":[0,0,1]}`))
	assert.Contains(t, feedback, "2 out of 3 correct (67%)", "2/3 rounds up, not down")

	feedback = v.Feedback(activity, json.RawMessage(`{"answers":[0,1,1]}`))
	assert.Contains(t, feedback, "1 out of 3 correct (33%)")
}

func TestFeedbackNonQuiz(t *testing.T) {
	v := NewSubmissionValidator()

	assert.Equal(t, "Your answer has been recorded.",
		v.Feedback(&course.Activity{Type: course.ActivityTypeExercise}, nil))
	assert.Equal(t, "Thank you for your reflection.",
		v.Feedback(&course.Activity{Type: course.ActivityTypeReflection}, nil))
}
