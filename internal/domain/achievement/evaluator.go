package achievement

// Achievement titles. Titles are the durable grant key, so they must stay
// stable across releases; per-course titles embed the course title.
const (
	TitleFirstSteps   = "First Steps"
	TitleGraduate     = "Graduate"
	TitleScholar      = "Scholar"
	TitlePerfectScore = "Perfect Score"
)

// ScholarThreshold is the completed-course count that earns Scholar.
const ScholarThreshold = 5

// Evaluator maps progression milestones to the achievements they unlock.
// It only proposes candidates; the repository's unique constraint decides
// whether a candidate is actually new, so re-delivered events are safe.
type Evaluator struct{}

// NewEvaluator creates an achievement evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// OnLessonCompleted returns the achievements unlocked by completing a
// lesson, given the user's total completed-lesson count afterwards.
func (e *Evaluator) OnLessonCompleted(userID string, lessonsCompleted int) []*Achievement {
	var out []*Achievement
	if lessonsCompleted >= 1 {
		out = append(out, New(userID, TitleFirstSteps,
			"Completed your first lesson", RarityCommon, ""))
	}
	return out
}

// OnCourseCompleted returns the achievements unlocked by completing a
// course, given the user's total completed-course count afterwards.
func (e *Evaluator) OnCourseCompleted(userID, courseID, courseTitle string, coursesCompleted int) []*Achievement {
	out := []*Achievement{
		New(userID, "Course Complete: "+courseTitle,
			"Completed the course "+courseTitle, RarityRare, courseID),
	}
	if coursesCompleted >= 1 {
		out = append(out, New(userID, TitleGraduate,
			"Completed your first course", RarityRare, ""))
	}
	if coursesCompleted >= ScholarThreshold {
		out = append(out, New(userID, TitleScholar,
			"Completed five courses", RarityEpic, ""))
	}
	return out
}

// OnExamGraded returns the achievements unlocked by a fully auto-graded
// exam result.
func (e *Evaluator) OnExamGraded(userID, courseID string, score int) []*Achievement {
	if score < 100 {
		return nil
	}
	return []*Achievement{
		New(userID, TitlePerfectScore,
			"Scored 100% on a final exam", RarityEpic, courseID),
	}
}
