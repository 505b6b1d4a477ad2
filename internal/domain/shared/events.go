// Package shared contains common domain types, errors and events that are
// used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven side effects of the
// progression engine. Each event represents something significant that
// happened in the domain.
const (
	// Enrollment events
	EventUserRegistered    EventType = "user.registered"
	EventEnrollmentCreated EventType = "enrollment.created"

	// Progression events
	EventActivitySubmitted EventType = "activity.submitted"
	EventLessonCompleted   EventType = "lesson.completed"
	EventCourseCompleted   EventType = "course.completed"
	EventExamSubmitted     EventType = "exam.submitted"
	EventProjectSubmitted  EventType = "project.submitted"
	EventProjectReviewed   EventType = "project.reviewed"

	// Side-effect events
	EventAchievementUnlocked EventType = "achievement.unlocked"
	EventCertificateIssued   EventType = "certificate.issued"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a domain event. Handlers must be safe to call
// concurrently and must treat every event as potentially re-delivered.
type EventHandler func(event Event) error

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(event Event) error
}

// EventBus routes domain events to subscribed handlers.
type EventBus interface {
	EventPublisher
	Subscribe(eventType EventType, handler EventHandler) error
	SubscribeAll(handler EventHandler) error
	Close() error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Enrollment Events
// ═══════════════════════════════════════════════════════════════════════════

// EnrollmentCreatedEvent is emitted when a user enrolls in a course.
type EnrollmentCreatedEvent struct {
	BaseEvent
	UserID       string `json:"user_id"`
	CourseID     string `json:"course_id"`
	CourseNumber int    `json:"course_number"`
}

// NewEnrollmentCreatedEvent creates an EnrollmentCreatedEvent.
func NewEnrollmentCreatedEvent(userID, courseID string, courseNumber int) EnrollmentCreatedEvent {
	return EnrollmentCreatedEvent{
		BaseEvent:    NewBaseEvent(EventEnrollmentCreated, userID),
		UserID:       userID,
		CourseID:     courseID,
		CourseNumber: courseNumber,
	}
}

// Payload implements Event interface.
func (e EnrollmentCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":       e.UserID,
		"course_id":     e.CourseID,
		"course_number": e.CourseNumber,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progression Events
// ═══════════════════════════════════════════════════════════════════════════

// LessonCompletedEvent is emitted when the last required activity of a
// lesson is completed. It fires exactly once per (user, lesson): only the
// call that actually flipped the lesson to completed publishes it.
type LessonCompletedEvent struct {
	BaseEvent
	UserID       string `json:"user_id"`
	CourseID     string `json:"course_id"`
	LessonID     string `json:"lesson_id"`
	LessonNumber int    `json:"lesson_number"`
}

// NewLessonCompletedEvent creates a LessonCompletedEvent.
func NewLessonCompletedEvent(userID, courseID, lessonID string, lessonNumber int) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent:    NewBaseEvent(EventLessonCompleted, userID),
		UserID:       userID,
		CourseID:     courseID,
		LessonID:     lessonID,
		LessonNumber: lessonNumber,
	}
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":       e.UserID,
		"course_id":     e.CourseID,
		"lesson_id":     e.LessonID,
		"lesson_number": e.LessonNumber,
	}
}

// CourseCompletedEvent is emitted when a course transitions to completed.
// Like LessonCompletedEvent it fires only on the transition, never on
// repeated completion calls.
type CourseCompletedEvent struct {
	BaseEvent
	UserID           string `json:"user_id"`
	CourseID         string `json:"course_id"`
	CourseNumber     int    `json:"course_number"`
	CourseTitle      string `json:"course_title"`
	CoursesCompleted int    `json:"courses_completed"`
}

// NewCourseCompletedEvent creates a CourseCompletedEvent.
func NewCourseCompletedEvent(userID, courseID, courseTitle string, courseNumber, coursesCompleted int) CourseCompletedEvent {
	return CourseCompletedEvent{
		BaseEvent:        NewBaseEvent(EventCourseCompleted, userID),
		UserID:           userID,
		CourseID:         courseID,
		CourseNumber:     courseNumber,
		CourseTitle:      courseTitle,
		CoursesCompleted: coursesCompleted,
	}
}

// Payload implements Event interface.
func (e CourseCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":           e.UserID,
		"course_id":         e.CourseID,
		"course_number":     e.CourseNumber,
		"course_title":      e.CourseTitle,
		"courses_completed": e.CoursesCompleted,
	}
}

// ProjectSubmittedEvent is emitted when a final project is submitted or
// resubmitted for review.
type ProjectSubmittedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	ProjectID string `json:"project_id"`
	CourseID  string `json:"course_id"`
}

// NewProjectSubmittedEvent creates a ProjectSubmittedEvent.
func NewProjectSubmittedEvent(userID, projectID, courseID string) ProjectSubmittedEvent {
	return ProjectSubmittedEvent{
		BaseEvent: NewBaseEvent(EventProjectSubmitted, userID),
		UserID:    userID,
		ProjectID: projectID,
		CourseID:  courseID,
	}
}

// Payload implements Event interface.
func (e ProjectSubmittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"project_id": e.ProjectID,
		"course_id":  e.CourseID,
	}
}

// ProjectReviewedEvent is emitted when a reviewer records a verdict on a
// final project submission.
type ProjectReviewedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	ProjectID string `json:"project_id"`
	CourseID  string `json:"course_id"`
	Status    string `json:"status"`
}

// NewProjectReviewedEvent creates a ProjectReviewedEvent.
func NewProjectReviewedEvent(userID, projectID, courseID, status string) ProjectReviewedEvent {
	return ProjectReviewedEvent{
		BaseEvent: NewBaseEvent(EventProjectReviewed, userID),
		UserID:    userID,
		ProjectID: projectID,
		CourseID:  courseID,
		Status:    status,
	}
}

// Payload implements Event interface.
func (e ProjectReviewedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"project_id": e.ProjectID,
		"course_id":  e.CourseID,
		"status":     e.Status,
	}
}

// ExamSubmittedEvent is emitted when a final exam is fully auto-graded.
// Exams that are pending manual review do not emit this event.
type ExamSubmittedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	ExamID   string `json:"exam_id"`
	CourseID string `json:"course_id"`
	Score    int    `json:"score"`
	Passed   bool   `json:"passed"`
}

// NewExamSubmittedEvent creates an ExamSubmittedEvent.
func NewExamSubmittedEvent(userID, examID, courseID string, score int, passed bool) ExamSubmittedEvent {
	return ExamSubmittedEvent{
		BaseEvent: NewBaseEvent(EventExamSubmitted, userID),
		UserID:    userID,
		ExamID:    examID,
		CourseID:  courseID,
		Score:     score,
		Passed:    passed,
	}
}

// Payload implements Event interface.
func (e ExamSubmittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"exam_id":   e.ExamID,
		"course_id": e.CourseID,
		"score":     e.Score,
		"passed":    e.Passed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Side-Effect Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted when an achievement is granted for
// the first time.
type AchievementUnlockedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Title  string `json:"title"`
	Rarity string `json:"rarity"`
}

// NewAchievementUnlockedEvent creates an AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(userID, title, rarity string) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent: NewBaseEvent(EventAchievementUnlocked, userID),
		UserID:    userID,
		Title:     title,
		Rarity:    rarity,
	}
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"title":   e.Title,
		"rarity":  e.Rarity,
	}
}

// CertificateIssuedEvent is emitted when a certificate is created.
type CertificateIssuedEvent struct {
	BaseEvent
	UserID           string `json:"user_id"`
	CourseID         string `json:"course_id"`
	VerificationCode string `json:"verification_code"`
}

// NewCertificateIssuedEvent creates a CertificateIssuedEvent.
func NewCertificateIssuedEvent(userID, courseID, code string) CertificateIssuedEvent {
	return CertificateIssuedEvent{
		BaseEvent:        NewBaseEvent(EventCertificateIssued, userID),
		UserID:           userID,
		CourseID:         courseID,
		VerificationCode: code,
	}
}

// Payload implements Event interface.
func (e CertificateIssuedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":           e.UserID,
		"course_id":         e.CourseID,
		"verification_code": e.VerificationCode,
	}
}
