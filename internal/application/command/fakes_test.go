package command

import (
	"context"
	"sync"
	"time"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/course"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/progress"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/user"
)

// memCatalog is an in-memory course.Repository.
type memCatalog struct {
	courses    map[string]*course.Course
	lessons    map[string]*course.Lesson
	activities map[string]*course.Activity
	exams      map[string]*course.FinalExam
	projects   map[string]*course.FinalProject
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		courses:    make(map[string]*course.Course),
		lessons:    make(map[string]*course.Lesson),
		activities: make(map[string]*course.Activity),
		exams:      make(map[string]*course.FinalExam),
		projects:   make(map[string]*course.FinalProject),
	}
}

func (m *memCatalog) GetCourse(_ context.Context, id string) (*course.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, shared.ErrCourseNotFound
}

func (m *memCatalog) GetCourseByNumber(_ context.Context, number int) (*course.Course, error) {
	for _, c := range m.courses {
		if c.CourseNumber == number {
			return c, nil
		}
	}
	return nil, shared.ErrCourseNotFound
}

func (m *memCatalog) ListCourses(_ context.Context) ([]*course.Course, error) {
	var out []*course.Course
	for _, c := range m.courses {
		if c.Published {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCatalog) GetLesson(_ context.Context, id string) (*course.Lesson, error) {
	if l, ok := m.lessons[id]; ok {
		return l, nil
	}
	return nil, shared.ErrLessonNotFound
}

func (m *memCatalog) GetLessonByNumber(_ context.Context, courseID string, number int) (*course.Lesson, error) {
	for _, l := range m.lessons {
		if l.CourseID == courseID && l.LessonNumber == number {
			return l, nil
		}
	}
	return nil, shared.ErrLessonNotFound
}

func (m *memCatalog) ListLessons(_ context.Context, courseID string) ([]*course.Lesson, error) {
	var out []*course.Lesson
	for _, l := range m.lessons {
		if l.CourseID == courseID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memCatalog) GetActivity(_ context.Context, id string) (*course.Activity, error) {
	if a, ok := m.activities[id]; ok {
		return a, nil
	}
	return nil, shared.ErrActivityNotFound
}

func (m *memCatalog) ListActivities(_ context.Context, lessonID string) ([]*course.Activity, error) {
	var out []*course.Activity
	for _, a := range m.activities {
		if a.LessonID == lessonID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memCatalog) GetExam(_ context.Context, id string) (*course.FinalExam, error) {
	if e, ok := m.exams[id]; ok {
		return e, nil
	}
	return nil, shared.ErrExamNotFound
}

func (m *memCatalog) GetProject(_ context.Context, id string) (*course.FinalProject, error) {
	if p, ok := m.projects[id]; ok {
		return p, nil
	}
	return nil, shared.ErrProjectNotFound
}

// memEnrollments is an in-memory progress.EnrollmentRepository.
type memEnrollments struct {
	rows map[string]*progress.Enrollment
}

func newMemEnrollments() *memEnrollments {
	return &memEnrollments{rows: make(map[string]*progress.Enrollment)}
}

func (m *memEnrollments) Create(_ context.Context, e *progress.Enrollment) error {
	k := e.UserID + "/" + e.CourseID
	if _, ok := m.rows[k]; ok {
		return shared.ErrAlreadyEnrolled
	}
	cp := *e
	m.rows[k] = &cp
	return nil
}

func (m *memEnrollments) Get(_ context.Context, userID, courseID string) (*progress.Enrollment, error) {
	if e, ok := m.rows[userID+"/"+courseID]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, shared.ErrEnrollmentNotFound
}

func (m *memEnrollments) ListByUser(_ context.Context, userID string) ([]*progress.Enrollment, error) {
	var out []*progress.Enrollment
	for _, e := range m.rows {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memEnrollments) EffectiveWatermark(_ context.Context, userID string) (int, error) {
	watermark := 1
	for _, e := range m.rows {
		if e.UserID == userID && e.UnlockedCourses > watermark {
			watermark = e.UnlockedCourses
		}
	}
	return watermark, nil
}

func (m *memEnrollments) RaiseCurrentLesson(_ context.Context, userID, courseID string, lessonNumber int) error {
	e, ok := m.rows[userID+"/"+courseID]
	if !ok {
		return shared.ErrEnrollmentNotFound
	}
	if lessonNumber > e.CurrentLesson {
		e.CurrentLesson = lessonNumber
	}
	return nil
}

func (m *memEnrollments) CompleteAndPropagate(_ context.Context, userID, courseID string, completedAt time.Time, watermark int) (bool, error) {
	e, ok := m.rows[userID+"/"+courseID]
	if !ok {
		return false, shared.ErrEnrollmentNotFound
	}
	first := e.CompletedAt == nil
	if first {
		t := completedAt
		e.CompletedAt = &t
	}
	for _, other := range m.rows {
		if other.UserID == userID && watermark > other.UnlockedCourses {
			other.UnlockedCourses = watermark
		}
	}
	return first, nil
}

func (m *memEnrollments) CountCompleted(_ context.Context, userID string) (int, error) {
	n := 0
	for _, e := range m.rows {
		if e.UserID == userID && e.CompletedAt != nil {
			n++
		}
	}
	return n, nil
}

// memLessonProgress is an in-memory progress.LessonProgressRepository.
type memLessonProgress struct {
	rows    map[string]*progress.LessonProgress
	catalog *memCatalog
}

func newMemLessonProgress(catalog *memCatalog) *memLessonProgress {
	return &memLessonProgress{rows: make(map[string]*progress.LessonProgress), catalog: catalog}
}

func (m *memLessonProgress) Get(_ context.Context, userID, lessonID string) (*progress.LessonProgress, error) {
	if lp, ok := m.rows[userID+"/"+lessonID]; ok {
		cp := *lp
		return &cp, nil
	}
	return nil, shared.ErrProgressNotFound
}

func (m *memLessonProgress) row(userID, lessonID string) *progress.LessonProgress {
	k := userID + "/" + lessonID
	lp, ok := m.rows[k]
	if !ok {
		lp = &progress.LessonProgress{UserID: userID, LessonID: lessonID, CurrentActivity: 1}
		m.rows[k] = lp
	}
	return lp
}

func (m *memLessonProgress) AdvanceActivityCursor(_ context.Context, userID, lessonID string, activityNumber int) error {
	lp := m.row(userID, lessonID)
	if activityNumber > lp.CurrentActivity {
		lp.CurrentActivity = activityNumber
	}
	return nil
}

func (m *memLessonProgress) MarkCompleted(_ context.Context, userID, lessonID string, at time.Time) (bool, error) {
	lp := m.row(userID, lessonID)
	if lp.Completed {
		return false, nil
	}
	lp.Completed = true
	t := at
	lp.CompletedAt = &t
	return true, nil
}

func (m *memLessonProgress) SaveVideoPosition(_ context.Context, userID, lessonID string, seconds int) error {
	m.row(userID, lessonID).VideoPosition = seconds
	return nil
}

func (m *memLessonProgress) CountCompletedLessons(_ context.Context, userID, courseID string) (int, error) {
	n := 0
	for _, lp := range m.rows {
		if lp.UserID != userID || !lp.Completed {
			continue
		}
		if l, ok := m.catalog.lessons[lp.LessonID]; ok && l.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

// memSubmissions is an in-memory progress.SubmissionRepository.
type memSubmissions struct {
	rows map[string]*progress.ActivitySubmission
}

func newMemSubmissions() *memSubmissions {
	return &memSubmissions{rows: make(map[string]*progress.ActivitySubmission)}
}

func (m *memSubmissions) Upsert(_ context.Context, s *progress.ActivitySubmission) error {
	cp := *s
	m.rows[s.UserID+"/"+s.ActivityID] = &cp
	return nil
}

func (m *memSubmissions) Get(_ context.Context, userID, activityID string) (*progress.ActivitySubmission, error) {
	if s, ok := m.rows[userID+"/"+activityID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, shared.NewDomainError("progress", "Find", shared.ErrNotFound, "submission not found")
}

func (m *memSubmissions) CountCompleted(_ context.Context, userID string, activityIDs []string) (int, error) {
	n := 0
	for _, id := range activityIDs {
		if s, ok := m.rows[userID+"/"+id]; ok && s.Completed {
			n++
		}
	}
	return n, nil
}

// memProjects is an in-memory progress.ProjectRepository.
type memProjects struct {
	rows map[string]*progress.FinalProjectSubmission
}

func newMemProjects() *memProjects {
	return &memProjects{rows: make(map[string]*progress.FinalProjectSubmission)}
}

func (m *memProjects) Upsert(_ context.Context, s *progress.FinalProjectSubmission) error {
	cp := *s
	m.rows[s.UserID+"/"+s.ProjectID] = &cp
	return nil
}

func (m *memProjects) Get(_ context.Context, userID, projectID string) (*progress.FinalProjectSubmission, error) {
	if s, ok := m.rows[userID+"/"+projectID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, shared.ErrProjectNotFound
}

func (m *memProjects) SetStatus(_ context.Context, userID, projectID string, status progress.ProjectStatus, reviewedAt time.Time) error {
	s, ok := m.rows[userID+"/"+projectID]
	if !ok {
		return shared.ErrProjectNotFound
	}
	s.Status = status
	t := reviewedAt
	s.ReviewedAt = &t
	return nil
}

// memExamResults is an in-memory progress.ExamResultRepository.
type memExamResults struct {
	rows map[string]*progress.FinalExamResult
}

func newMemExamResults() *memExamResults {
	return &memExamResults{rows: make(map[string]*progress.FinalExamResult)}
}

func (m *memExamResults) Upsert(_ context.Context, r *progress.FinalExamResult) error {
	cp := *r
	m.rows[r.UserID+"/"+r.ExamID] = &cp
	return nil
}

func (m *memExamResults) Get(_ context.Context, userID, examID string) (*progress.FinalExamResult, error) {
	if r, ok := m.rows[userID+"/"+examID]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, shared.NewDomainError("exam", "Find", shared.ErrNotFound, "exam result not found")
}

// memUsers is an in-memory user.Repository.
type memUsers struct {
	rows map[string]*user.User
}

func newMemUsers() *memUsers {
	return &memUsers{rows: make(map[string]*user.User)}
}

func (m *memUsers) Create(_ context.Context, u *user.User) error {
	for _, existing := range m.rows {
		if existing.Email == u.Email {
			return shared.ErrUserAlreadyExists
		}
	}
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	if u, ok := m.rows[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, shared.ErrUserNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range m.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, shared.ErrUserNotFound
}

// capturingPublisher records every published event.
type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) ofType(t shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.Event
	for _, e := range p.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

// env bundles a fully wired command stack over in-memory storage.
type env struct {
	catalog     *memCatalog
	enrollments *memEnrollments
	lessonProg  *memLessonProgress
	submissions *memSubmissions
	projects    *memProjects
	examResults *memExamResults
	users       *memUsers
	publisher   *capturingPublisher

	submitActivity *SubmitActivityHandler
	submitExam     *SubmitFinalExamHandler
	submitProject  *SubmitFinalProjectHandler
	reviewProject  *ReviewFinalProjectHandler
	completeCourse *CompleteCourseHandler
	enroll         *EnrollHandler
}

func newEnv() *env {
	e := &env{
		catalog:     newMemCatalog(),
		enrollments: newMemEnrollments(),
		submissions: newMemSubmissions(),
		projects:    newMemProjects(),
		examResults: newMemExamResults(),
		users:       newMemUsers(),
		publisher:   &capturingPublisher{},
	}
	e.lessonProg = newMemLessonProgress(e.catalog)

	access := progress.NewAccessEvaluator(e.catalog, e.enrollments, e.lessonProg)
	e.completeCourse = NewCompleteCourseHandler(
		e.catalog, e.enrollments, e.lessonProg, e.projects, e.examResults, e.publisher)
	e.submitActivity = NewSubmitActivityHandler(
		e.catalog, e.enrollments, e.lessonProg, e.submissions,
		access, progress.NewSubmissionValidator(), e.completeCourse, e.publisher)
	e.submitExam = NewSubmitFinalExamHandler(
		e.catalog, e.enrollments, e.projects, e.examResults,
		progress.NewGradingEngine(), e.completeCourse, e.publisher)
	e.submitProject = NewSubmitFinalProjectHandler(
		e.catalog, e.enrollments, e.lessonProg, e.projects, e.publisher)
	e.reviewProject = NewReviewFinalProjectHandler(
		e.catalog, e.projects, e.completeCourse, e.publisher)
	e.enroll = NewEnrollHandler(e.catalog, e.enrollments, access, e.publisher)
	return e
}
