package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

type MainCourse struct {
	ID          string  `json:"id" gorm:"primaryKey;size:36"`
	Name        string  `json:"name" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	Thumbnail   *string `json:"thumbnail" gorm:"size:500" validate:"omitempty,url"`

	CreatedBy string         `json:"created_by" gorm:"size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	SubCourses []SubCourse `json:"sub_courses,omitempty" gorm:"foreignKey:MainCourseID"`
}

func (MainCourse) TableName() string {
	return "main_courses"
}

// SubCourse is a quiz/lesson unit nested under a main course.
type SubCourse struct {
	ID           string `json:"id" gorm:"primaryKey;size:36"`
	MainCourseID string `json:"main_course_id" gorm:"not null;size:36;index"`
	Name         string `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description  string `json:"description" gorm:"type:text" validate:"max=5000"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Media     []Media    `json:"media,omitempty" gorm:"foreignKey:SubCourseID"`
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:SubCourseID"`
}

func (SubCourse) TableName() string {
	return "sub_courses"
}

// Images returns the image entries in stored order.
func (s *SubCourse) Images() []Media {
	return s.mediaOfKind(MediaImage)
}

// Videos returns the video entries in stored order.
func (s *SubCourse) Videos() []Media {
	return s.mediaOfKind(MediaVideo)
}

func (s *SubCourse) mediaOfKind(kind MediaKind) []Media {
	var items []Media
	for _, m := range s.Media {
		if m.Kind == kind {
			items = append(items, m)
		}
	}
	return items
}

type Media struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	SubCourseID string    `json:"sub_course_id" gorm:"not null;size:36;index"`
	Kind        MediaKind `json:"kind" gorm:"not null;size:10" validate:"required,media_kind"`
	URL         string    `json:"url" gorm:"not null;size:1000" validate:"required,url"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Media) TableName() string {
	return "sub_course_media"
}

// PlayableURL rewrites Dropbox share links into their direct-download form.
func (m Media) PlayableURL() string {
	if !strings.Contains(m.URL, "dropbox.com") {
		return m.URL
	}
	url := strings.Replace(m.URL, "www.dropbox.com", "dl.dropboxusercontent.com", 1)
	return strings.Replace(url, "?dl=1", "", 1)
}

type Question struct {
	ID          uint     `json:"id" gorm:"primaryKey"`
	SubCourseID string   `json:"sub_course_id" gorm:"not null;size:36;index"`
	Position    int      `json:"position" gorm:"not null"`
	Text        string   `json:"text" gorm:"not null;type:text" validate:"required"`
	Answers     []Answer `json:"answers" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" validate:"required,min=1,dive"`
}

func (Question) TableName() string {
	return "questions"
}

type Answer struct {
	ID         uint   `json:"-" gorm:"primaryKey"`
	QuestionID uint   `json:"-" gorm:"not null;index"`
	Position   int    `json:"-" gorm:"not null"`
	Text       string `json:"text" gorm:"not null;type:text" validate:"required"`
	Correct    bool   `json:"correct" gorm:"default:false"`
}

func (Answer) TableName() string {
	return "answers"
}
