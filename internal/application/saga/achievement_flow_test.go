package saga

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/achievement"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// memAchievements grants by (user, title) like the real repository.
type memAchievements struct {
	mu   sync.Mutex
	rows map[string]*achievement.Achievement
}

func newMemAchievements() *memAchievements {
	return &memAchievements{rows: make(map[string]*achievement.Achievement)}
}

func (m *memAchievements) Grant(_ context.Context, a *achievement.Achievement) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := a.UserID + "/" + a.Title
	if _, ok := m.rows[k]; ok {
		return false, nil
	}
	m.rows[k] = a
	return true, nil
}

func (m *memAchievements) ListByUser(_ context.Context, userID string) ([]*achievement.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*achievement.Achievement
	for _, a := range m.rows {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAchievements) CountByUser(_ context.Context, userID string) (int, error) {
	list, _ := m.ListByUser(context.Background(), userID)
	return len(list), nil
}

type capturingPublisher struct {
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func TestAchievementFlow_CourseCompleted(t *testing.T) {
	repo := newMemAchievements()
	pub := &capturingPublisher{}
	flow := NewAchievementFlowSaga(repo, achievement.NewEvaluator(), pub)

	result, err := flow.Execute(context.Background(), AchievementCheckInput{
		UserID:           "u1",
		Trigger:          TriggerCourseCompleted,
		CourseID:         "c1",
		CourseTitle:      "Foundations",
		CoursesCompleted: 1,
	})
	require.NoError(t, err)

	assert.True(t, result.HasNewAchievements())
	assert.Len(t, result.NewAchievements, 2, "course badge plus Graduate")
	assert.Len(t, pub.events, 2)
}

func TestAchievementFlow_IdempotentOnRedelivery(t *testing.T) {
	repo := newMemAchievements()
	pub := &capturingPublisher{}
	flow := NewAchievementFlowSaga(repo, achievement.NewEvaluator(), pub)

	input := AchievementCheckInput{
		UserID:           "u1",
		Trigger:          TriggerCourseCompleted,
		CourseID:         "c1",
		CourseTitle:      "Foundations",
		CoursesCompleted: 1,
	}

	first, err := flow.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, first.HasNewAchievements())

	second, err := flow.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, second.HasNewAchievements(), "re-delivery grants nothing")
	assert.Len(t, pub.events, len(first.NewAchievements), "no duplicate unlocked events")
}

func TestAchievementFlow_PerfectScore(t *testing.T) {
	repo := newMemAchievements()
	flow := NewAchievementFlowSaga(repo, achievement.NewEvaluator(), &capturingPublisher{})

	result, err := flow.Execute(context.Background(), AchievementCheckInput{
		UserID: "u1", Trigger: TriggerExamGraded, CourseID: "c1", ExamScore: 100,
	})
	require.NoError(t, err)
	require.Len(t, result.NewAchievements, 1)
	assert.Equal(t, achievement.TitlePerfectScore, result.NewAchievements[0].Title)

	result, err = flow.Execute(context.Background(), AchievementCheckInput{
		UserID: "u1", Trigger: TriggerExamGraded, CourseID: "c2", ExamScore: 85,
	})
	require.NoError(t, err)
	assert.False(t, result.HasNewAchievements())
}

func TestAchievementFlow_RejectsUnknownTrigger(t *testing.T) {
	flow := NewAchievementFlowSaga(newMemAchievements(), achievement.NewEvaluator(), &capturingPublisher{})

	_, err := flow.Execute(context.Background(), AchievementCheckInput{UserID: "u1", Trigger: "mystery"})
	assert.Error(t, err)
}
