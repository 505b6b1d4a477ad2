package progress

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/course"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSION VALIDATOR
// ══════════════════════════════════════════════════════════════════════════════

// SubmissionValidator applies the per-type acceptance rules to activity
// responses and produces user-facing feedback text.
//
// Validation gates on presence and structure only. A quiz full of wrong
// answers is still a valid submission; the feedback surfaces the result
// but never blocks progression.
type SubmissionValidator struct{}

// NewSubmissionValidator creates a submission validator.
func NewSubmissionValidator() *SubmissionValidator {
	return &SubmissionValidator{}
}

// quizResponse is the submitted shape for quiz activities. Answers are
// option indices aligned with the authored question list.
type quizResponse struct {
	Answers []json.RawMessage `json:"answers"`
}

// exerciseResponse is the submitted shape for exercise activities.
type exerciseResponse struct {
	Answer string `json:"answer"`
}

// reflectionResponse is the submitted shape for reflection activities.
type reflectionResponse struct {
	Reflection string `json:"reflection"`
}

// practicalResponse is the submitted shape for practical tasks.
type practicalResponse struct {
	Submission map[string]json.RawMessage `json:"submission"`
}

// DefaultReflectionMinLength applies when the authored content does not
// specify a minimum.
const DefaultReflectionMinLength = 50

// Validate reports whether the raw response is acceptable for the
// activity. Activities of an unrecognized type accept any non-empty JSON
// object so new content types never strand users.
func (v *SubmissionValidator) Validate(activity *course.Activity, response json.RawMessage) bool {
	switch activity.Type {
	case course.ActivityTypeQuiz:
		qc, err := activity.QuizContent()
		if err != nil {
			return false
		}
		var r quizResponse
		if err := json.Unmarshal(response, &r); err != nil {
			return false
		}
		return len(r.Answers) == len(qc.Questions)

	case course.ActivityTypeExercise:
		var r exerciseResponse
		if err := json.Unmarshal(response, &r); err != nil {
			return false
		}
		return strings.TrimSpace(r.Answer) != ""

	case course.ActivityTypeReflection:
		var rc course.ReflectionContent
		_ = json.Unmarshal(activity.Content, &rc)
		minLength := rc.MinLength
		if minLength <= 0 {
			minLength = DefaultReflectionMinLength
		}
		var r reflectionResponse
		if err := json.Unmarshal(response, &r); err != nil {
			return false
		}
		return len(strings.TrimSpace(r.Reflection)) >= minLength

	case course.ActivityTypePracticalTask:
		var tc course.PracticalTaskContent
		_ = json.Unmarshal(activity.Content, &tc)
		var r practicalResponse
		if err := json.Unmarshal(response, &r); err != nil {
			return false
		}
		for _, field := range tc.RequiredFields {
			if !isTruthy(r.Submission[field]) {
				return false
			}
		}
		return true

	default:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(response, &obj); err != nil {
			return false
		}
		return len(obj) > 0
	}
}

// Feedback produces the user-facing feedback for an accepted response.
// Only quizzes get substantive feedback; other types get an acknowledgment.
func (v *SubmissionValidator) Feedback(activity *course.Activity, response json.RawMessage) string {
	switch activity.Type {
	case course.ActivityTypeQuiz:
		return v.quizFeedback(activity, response)
	case course.ActivityTypeExercise:
		return "Your answer has been recorded."
	case course.ActivityTypeReflection:
		return "Thank you for your reflection."
	case course.ActivityTypePracticalTask:
		return "Submission received. All required fields are present."
	default:
		return "Submission received."
	}
}

// quizFeedback scores the quiz and renders a summary line followed by a
// per-question verdict, surfacing the correct option on a miss.
func (v *SubmissionValidator) quizFeedback(activity *course.Activity, response json.RawMessage) string {
	qc, err := activity.QuizContent()
	if err != nil || len(qc.Questions) == 0 {
		return "Submission received."
	}
	var r quizResponse
	if err := json.Unmarshal(response, &r); err != nil {
		return "Submission received."
	}

	correct := 0
	var b strings.Builder
	for i, q := range qc.Questions {
		chosen, ok := answerIndex(r.Answers, i)
		if ok && chosen == q.CorrectAnswer {
			correct++
			fmt.Fprintf(&b, "Question %d: correct\n", i+1)
			continue
		}
		answer := ""
		if q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options) {
			answer = q.Options[q.CorrectAnswer]
		}
		fmt.Fprintf(&b, "Question %d: incorrect (correct answer: %s)\n", i+1, answer)
	}

	total := len(qc.Questions)
	percent := int(math.Round(float64(correct) / float64(total) * 100))
	return fmt.Sprintf("%d out of %d correct (%d%%)\n%s", correct, total, percent, strings.TrimRight(b.String(), "\n"))
}

// answerIndex decodes the i-th answer as an option index. Missing or
// non-numeric answers count as unanswered.
func answerIndex(answers []json.RawMessage, i int) (int, bool) {
	if i >= len(answers) {
		return 0, false
	}
	var idx int
	if err := json.Unmarshal(answers[i], &idx); err != nil {
		return 0, false
	}
	return idx, true
}

// isTruthy mirrors loose presence semantics for practical task fields:
// null, false, empty string and zero all count as missing.
func isTruthy(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	s := strings.TrimSpace(string(raw))
	switch s {
	case "", "null", "false", `""`, "0":
		return false
	}
	return true
}
