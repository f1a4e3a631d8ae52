package models

import (
	"time"

	"gorm.io/datatypes"
)

type TaskStatus string

const (
	TaskActive   TaskStatus = "active"
	TaskArchived TaskStatus = "archived"
)

type Task struct {
	ID             string         `json:"id" gorm:"primaryKey;size:36"`
	Message        string         `json:"message" gorm:"not null;type:text"`
	LinkURL        string         `json:"link_url" gorm:"size:1000"`
	AssignedEmails datatypes.JSON `json:"assigned_emails" gorm:"type:jsonb"` // []string
	CreatedBy      string         `json:"created_by" gorm:"not null;size:255;index"`
	Status         TaskStatus     `json:"status" gorm:"default:active;size:20;index"`

	CreatedAt  time.Time  `json:"created_at"`
	ArchivedAt *time.Time `json:"archived_at"`
}

func (Task) TableName() string {
	return "tasks"
}
