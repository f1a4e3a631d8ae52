package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of learning events published to the bus
type EventType string

const (
	EventSubmissionRecorded EventType = "submission.recorded"

	EventTaskAssigned EventType = "task.assigned"
	EventTaskArchived EventType = "task.archived"
)

const (
	eventSource  = "learning-service"
	eventVersion = "1.0"
)

// LearningEvent is the envelope of every published event
type LearningEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type SubmissionRecordedEvent struct {
	UserID            string    `json:"user_id"`
	Email             string    `json:"email"`
	UserName          string    `json:"user_name"`
	MainCourseID      string    `json:"main_course_id"`
	SubCourseID       string    `json:"sub_course_id"`
	CorrectCount      int       `json:"correct_count"`
	TotalQuestions    int       `json:"total_questions"`
	PercentageSuccess float64   `json:"percentage_success"`
	TotalTime         float64   `json:"total_time"` // seconds
	SubmittedAt       time.Time `json:"submitted_at"`
}

type TaskAssignedEvent struct {
	TaskID         string    `json:"task_id"`
	Message        string    `json:"message"`
	LinkURL        string    `json:"link_url,omitempty"`
	AssignedEmails []string  `json:"assigned_emails"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

type TaskArchivedEvent struct {
	TaskID     string    `json:"task_id"`
	ArchivedBy string    `json:"archived_by"`
	ArchivedAt time.Time `json:"archived_at"`
}

func newEvent(eventType EventType, data interface{}) *LearningEvent {
	return &LearningEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewSubmissionRecordedEvent(data SubmissionRecordedEvent) *LearningEvent {
	return newEvent(EventSubmissionRecorded, data)
}

func NewTaskAssignedEvent(data TaskAssignedEvent) *LearningEvent {
	return newEvent(EventTaskAssigned, data)
}

func NewTaskArchivedEvent(data TaskArchivedEvent) *LearningEvent {
	return newEvent(EventTaskArchived, data)
}

// GenerateEventID returns a time-ordered unique id
func GenerateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
