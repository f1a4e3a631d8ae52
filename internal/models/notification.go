package models

import (
	"time"
)

type NotificationKind string

const (
	NotificationTaskAssigned NotificationKind = "task_assigned"
	NotificationTaskCreated  NotificationKind = "task_created"
)

type Notification struct {
	ID      string           `json:"id" gorm:"primaryKey;size:36"`
	Kind    NotificationKind `json:"kind" gorm:"not null;size:30;index"`
	Message string           `json:"message" gorm:"type:text"`
	LinkURL string           `json:"link_url" gorm:"size:1000"`

	// Recipients
	RecipientEmail string `json:"recipient_email" gorm:"size:255;index"` // task_assigned
	AssignedEmails string `json:"assigned_emails" gorm:"type:text"`      // task_created, comma separated
	CreatedBy      string `json:"created_by" gorm:"not null;size:255;index"`

	TaskID *string `json:"task_id" gorm:"size:36;index"`

	IsRead    bool      `json:"is_read" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
