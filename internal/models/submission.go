package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission is the persisted result of one completed quiz attempt.
// The primary key is (user, sub-course), so there is no attempt history.
type Submission struct {
	UserID       string `json:"user_id" gorm:"primaryKey;size:255"`
	CourseID     string `json:"course_id" gorm:"primaryKey;size:36"` // sub-course id
	MainCourseID string `json:"main_course_id" gorm:"size:36;index"`

	Email    string `json:"email" gorm:"not null;size:255;index"`
	UserName string `json:"user_name" gorm:"size:100"`

	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	TotalTime         float64   `json:"total_time"` // seconds
	PercentageSuccess float64   `json:"percentage_success"`
	CorrectCount      int       `json:"correct_count"`
	TotalQuestions    int       `json:"total_questions"`

	UserAnswers datatypes.JSON `json:"user_answers" gorm:"type:jsonb"` // []*string

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Submission) TableName() string {
	return "submissions"
}
