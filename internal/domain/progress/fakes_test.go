package progress

import (
	"context"
	"time"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/course"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// fakeCatalog is an in-memory course.Repository for access tests.
type fakeCatalog struct {
	courses    map[string]*course.Course
	lessons    map[string]*course.Lesson
	activities map[string]*course.Activity
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		courses:    make(map[string]*course.Course),
		lessons:    make(map[string]*course.Lesson),
		activities: make(map[string]*course.Activity),
	}
}

func (f *fakeCatalog) GetCourse(_ context.Context, id string) (*course.Course, error) {
	if c, ok := f.courses[id]; ok {
		return c, nil
	}
	return nil, shared.ErrCourseNotFound
}

func (f *fakeCatalog) GetCourseByNumber(_ context.Context, number int) (*course.Course, error) {
	for _, c := range f.courses {
		if c.CourseNumber == number {
			return c, nil
		}
	}
	return nil, shared.ErrCourseNotFound
}

func (f *fakeCatalog) ListCourses(_ context.Context) ([]*course.Course, error) {
	var out []*course.Course
	for _, c := range f.courses {
		if c.Published {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetLesson(_ context.Context, id string) (*course.Lesson, error) {
	if l, ok := f.lessons[id]; ok {
		return l, nil
	}
	return nil, shared.ErrLessonNotFound
}

func (f *fakeCatalog) GetLessonByNumber(_ context.Context, courseID string, number int) (*course.Lesson, error) {
	for _, l := range f.lessons {
		if l.CourseID == courseID && l.LessonNumber == number {
			return l, nil
		}
	}
	return nil, shared.ErrLessonNotFound
}

func (f *fakeCatalog) ListLessons(_ context.Context, courseID string) ([]*course.Lesson, error) {
	var out []*course.Lesson
	for _, l := range f.lessons {
		if l.CourseID == courseID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetActivity(_ context.Context, id string) (*course.Activity, error) {
	if a, ok := f.activities[id]; ok {
		return a, nil
	}
	return nil, shared.ErrActivityNotFound
}

func (f *fakeCatalog) ListActivities(_ context.Context, lessonID string) ([]*course.Activity, error) {
	var out []*course.Activity
	for _, a := range f.activities {
		if a.LessonID == lessonID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetExam(_ context.Context, _ string) (*course.FinalExam, error) {
	return nil, shared.ErrExamNotFound
}

func (f *fakeCatalog) GetProject(_ context.Context, _ string) (*course.FinalProject, error) {
	return nil, shared.ErrProjectNotFound
}

// fakeEnrollments is an in-memory EnrollmentRepository.
type fakeEnrollments struct {
	rows map[string]*Enrollment // key: userID + "/" + courseID
}

func newFakeEnrollments() *fakeEnrollments {
	return &fakeEnrollments{rows: make(map[string]*Enrollment)}
}

func (f *fakeEnrollments) key(userID, courseID string) string {
	return userID + "/" + courseID
}

func (f *fakeEnrollments) Create(_ context.Context, e *Enrollment) error {
	k := f.key(e.UserID, e.CourseID)
	if _, ok := f.rows[k]; ok {
		return shared.ErrAlreadyEnrolled
	}
	cp := *e
	f.rows[k] = &cp
	return nil
}

func (f *fakeEnrollments) Get(_ context.Context, userID, courseID string) (*Enrollment, error) {
	if e, ok := f.rows[f.key(userID, courseID)]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, shared.ErrEnrollmentNotFound
}

func (f *fakeEnrollments) ListByUser(_ context.Context, userID string) ([]*Enrollment, error) {
	var out []*Enrollment
	for _, e := range f.rows {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeEnrollments) EffectiveWatermark(_ context.Context, userID string) (int, error) {
	watermark := 1
	for _, e := range f.rows {
		if e.UserID == userID && e.UnlockedCourses > watermark {
			watermark = e.UnlockedCourses
		}
	}
	return watermark, nil
}

func (f *fakeEnrollments) RaiseCurrentLesson(_ context.Context, userID, courseID string, lessonNumber int) error {
	e, ok := f.rows[f.key(userID, courseID)]
	if !ok {
		return shared.ErrEnrollmentNotFound
	}
	if lessonNumber > e.CurrentLesson {
		e.CurrentLesson = lessonNumber
	}
	return nil
}

func (f *fakeEnrollments) CompleteAndPropagate(_ context.Context, userID, courseID string, completedAt time.Time, watermark int) (bool, error) {
	e, ok := f.rows[f.key(userID, courseID)]
	if !ok {
		return false, shared.ErrEnrollmentNotFound
	}
	first := e.CompletedAt == nil
	if first {
		t := completedAt
		e.CompletedAt = &t
	}
	for _, other := range f.rows {
		if other.UserID == userID && watermark > other.UnlockedCourses {
			other.UnlockedCourses = watermark
		}
	}
	return first, nil
}

func (f *fakeEnrollments) CountCompleted(_ context.Context, userID string) (int, error) {
	n := 0
	for _, e := range f.rows {
		if e.UserID == userID && e.CompletedAt != nil {
			n++
		}
	}
	return n, nil
}

// fakeLessonProgress is an in-memory LessonProgressRepository.
type fakeLessonProgress struct {
	rows map[string]*LessonProgress // key: userID + "/" + lessonID
}

func newFakeLessonProgress() *fakeLessonProgress {
	return &fakeLessonProgress{rows: make(map[string]*LessonProgress)}
}

func (f *fakeLessonProgress) key(userID, lessonID string) string {
	return userID + "/" + lessonID
}

func (f *fakeLessonProgress) Get(_ context.Context, userID, lessonID string) (*LessonProgress, error) {
	if lp, ok := f.rows[f.key(userID, lessonID)]; ok {
		cp := *lp
		return &cp, nil
	}
	return nil, shared.ErrProgressNotFound
}

func (f *fakeLessonProgress) AdvanceActivityCursor(_ context.Context, userID, lessonID string, activityNumber int) error {
	k := f.key(userID, lessonID)
	lp, ok := f.rows[k]
	if !ok {
		lp = &LessonProgress{UserID: userID, LessonID: lessonID, CurrentActivity: 1}
		f.rows[k] = lp
	}
	if activityNumber > lp.CurrentActivity {
		lp.CurrentActivity = activityNumber
	}
	return nil
}

func (f *fakeLessonProgress) MarkCompleted(_ context.Context, userID, lessonID string, at time.Time) (bool, error) {
	k := f.key(userID, lessonID)
	lp, ok := f.rows[k]
	if !ok {
		lp = &LessonProgress{UserID: userID, LessonID: lessonID, CurrentActivity: 1}
		f.rows[k] = lp
	}
	if lp.Completed {
		return false, nil
	}
	lp.Completed = true
	t := at
	lp.CompletedAt = &t
	return true, nil
}

func (f *fakeLessonProgress) SaveVideoPosition(_ context.Context, userID, lessonID string, seconds int) error {
	k := f.key(userID, lessonID)
	lp, ok := f.rows[k]
	if !ok {
		lp = &LessonProgress{UserID: userID, LessonID: lessonID, CurrentActivity: 1}
		f.rows[k] = lp
	}
	lp.VideoPosition = seconds
	return nil
}

func (f *fakeLessonProgress) CountCompletedLessons(_ context.Context, _ string, _ string) (int, error) {
	n := 0
	for _, lp := range f.rows {
		if lp.Completed {
			n++
		}
	}
	return n, nil
}
