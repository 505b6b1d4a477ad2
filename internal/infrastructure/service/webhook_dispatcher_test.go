package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/user"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/webhook"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/pkg/retry"
)

// memQueue is an in-memory webhook.Queue.
type memQueue struct {
	mu     sync.Mutex
	queues map[string][]*webhook.Message
	broken bool
}

func newMemQueue() *memQueue {
	return &memQueue{queues: make(map[string][]*webhook.Message)}
}

func (q *memQueue) Enqueue(_ context.Context, userID string, msg *webhook.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.broken {
		return shared.NewDomainError("webhook", "Enqueue", shared.ErrQueueUnavailable, "queue down")
	}
	q.queues[userID] = append(q.queues[userID], msg)
	return nil
}

func (q *memQueue) Dequeue(_ context.Context, userID string) (*webhook.Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	msgs := q.queues[userID]
	if len(msgs) == 0 {
		return nil, shared.NewDomainError("webhook", "Dequeue", shared.ErrNotFound, "queue is empty")
	}
	msg := msgs[0]
	q.queues[userID] = msgs[1:]
	return msg, nil
}

func (q *memQueue) Users(_ context.Context) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var users []string
	for id, msgs := range q.queues {
		if len(msgs) > 0 {
			users = append(users, id)
		}
	}
	return users, nil
}

// recordingSink captures delivered envelopes and can fail on demand.
type recordingSink struct {
	mu        sync.Mutex
	delivered []*webhook.Envelope
	failures  int
	permanent bool
}

func (s *recordingSink) Deliver(_ context.Context, e *webhook.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		if s.permanent {
			return shared.NewDomainError("webhook", "Deliver", shared.ErrExternalService, "rejected")
		}
		return shared.NewDomainError("webhook", "Deliver", shared.ErrServiceUnavailable, "receiver down")
	}
	s.delivered = append(s.delivered, e)
	return nil
}

type memUsers struct {
	users map[string]*user.User
}

func (r *memUsers) Create(_ context.Context, u *user.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return u, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, shared.ErrUserNotFound
}

func testDispatcher() (*WebhookDispatcher, *memQueue, *recordingSink) {
	queue := newMemQueue()
	sink := &recordingSink{}
	users := &memUsers{users: map[string]*user.User{
		"u1": {ID: "u1", Email: "a@b.c", ExternalID: "ext-u1"},
	}}
	d := NewWebhookDispatcher(queue, sink, users, nil)
	d.retrier = retry.New(retry.WithMaxAttempts(3), retry.WithInitialDelay(time.Millisecond))
	return d, queue, sink
}

func TestDispatcher_NotifyEnqueuesWithExternalID(t *testing.T) {
	d, queue, sink := testDispatcher()
	ctx := context.Background()

	err := d.Notify(ctx, "u1", shared.EventLessonCompleted, map[string]interface{}{"lessonId": "l1"})
	require.NoError(t, err)

	assert.Empty(t, sink.delivered, "notify should queue, not deliver inline")
	msg, err := queue.Dequeue(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ext-u1", msg.Envelope.ExternalUserID)
	assert.Equal(t, string(shared.EventLessonCompleted), msg.Envelope.EventType)
}

func TestDispatcher_NotifyFallsBackWhenQueueDown(t *testing.T) {
	d, queue, sink := testDispatcher()
	queue.broken = true

	err := d.Notify(context.Background(), "u1", shared.EventCourseCompleted, nil)
	require.NoError(t, err)
	require.Len(t, sink.delivered, 1)
	assert.Equal(t, "ext-u1", sink.delivered[0].ExternalUserID)
}

func TestDispatcher_NotifyUnknownUser(t *testing.T) {
	d, _, _ := testDispatcher()

	err := d.Notify(context.Background(), "ghost", shared.EventCourseCompleted, nil)
	assert.True(t, shared.IsNotFound(err))
}

func TestDispatcher_DrainDeliversInOrder(t *testing.T) {
	d, queue, sink := testDispatcher()
	ctx := context.Background()

	require.NoError(t, d.Notify(ctx, "u1", shared.EventLessonCompleted, map[string]interface{}{"n": 1}))
	require.NoError(t, d.Notify(ctx, "u1", shared.EventCourseCompleted, map[string]interface{}{"n": 2}))

	result, err := d.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Delivered)
	require.Len(t, sink.delivered, 2)
	assert.Equal(t, string(shared.EventLessonCompleted), sink.delivered[0].EventType)
	assert.Equal(t, string(shared.EventCourseCompleted), sink.delivered[1].EventType)

	_, err = queue.Dequeue(ctx, "u1")
	assert.True(t, shared.IsNotFound(err), "queue should be empty after drain")
}

func TestDispatcher_DrainBoundsBatchPerUser(t *testing.T) {
	d, queue, sink := testDispatcher()
	d.DrainBatch = 2
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, d.Notify(ctx, "u1", shared.EventLessonCompleted, map[string]interface{}{"n": i}))
	}

	result, err := d.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Delivered, "one run pops at most DrainBatch messages per user")
	assert.Len(t, sink.delivered, 2)

	msg, err := queue.Dequeue(ctx, "u1")
	require.NoError(t, err, "the third message waits for the next run")
	assert.Equal(t, string(shared.EventLessonCompleted), msg.Envelope.EventType)
}

func TestDispatcher_DrainRetriesTransientFailures(t *testing.T) {
	d, _, sink := testDispatcher()
	ctx := context.Background()
	sink.failures = 2

	require.NoError(t, d.Notify(ctx, "u1", shared.EventLessonCompleted, nil))

	result, err := d.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)
	assert.Equal(t, 0, result.Dropped)
}

func TestDispatcher_DrainDropsPermanentRejections(t *testing.T) {
	d, _, sink := testDispatcher()
	ctx := context.Background()
	sink.failures = 1
	sink.permanent = true

	require.NoError(t, d.Notify(ctx, "u1", shared.EventLessonCompleted, nil))

	result, err := d.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Dropped)
	assert.Empty(t, sink.delivered)
}

func TestDispatcher_DrainSkipsExpiredMessages(t *testing.T) {
	d, queue, sink := testDispatcher()
	ctx := context.Background()

	stale := &webhook.Message{
		Envelope:   webhook.NewEnvelope(shared.EventLessonCompleted, "ext-u1", nil),
		EnqueuedAt: time.Now().UTC().Add(-webhook.MaxAge - time.Hour),
	}
	require.NoError(t, queue.Enqueue(ctx, "u1", stale))
	require.NoError(t, d.Notify(ctx, "u1", shared.EventCourseCompleted, nil))

	result, err := d.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, 1, result.Delivered)
	require.Len(t, sink.delivered, 1)
	assert.Equal(t, string(shared.EventCourseCompleted), sink.delivered[0].EventType)
}

func TestDispatcher_SweepKeepsFreshMessages(t *testing.T) {
	d, queue, _ := testDispatcher()
	ctx := context.Background()

	stale := &webhook.Message{
		Envelope:   webhook.NewEnvelope(shared.EventLessonCompleted, "ext-u1", nil),
		EnqueuedAt: time.Now().UTC().Add(-webhook.MaxAge - time.Minute),
	}
	require.NoError(t, queue.Enqueue(ctx, "u1", stale))
	require.NoError(t, d.Notify(ctx, "u1", shared.EventCourseCompleted, nil))

	discarded, err := d.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, discarded)

	msg, err := queue.Dequeue(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, string(shared.EventCourseCompleted), msg.Envelope.EventType)
	_, err = queue.Dequeue(ctx, "u1")
	assert.True(t, shared.IsNotFound(err))
}
