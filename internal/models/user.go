package models

import (
	"time"
)

type UserRole string

const (
	RoleUser       UserRole = "user"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "SuperAdmin"
)

// IsAdmin reports whether the role may use the admin tooling.
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type User struct {
	EmailKey   string   `json:"email_key" gorm:"primaryKey;size:255"`
	Email      string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Name       string   `json:"name" gorm:"not null;size:100"`
	Role       UserRole `json:"role" gorm:"not null;size:20;default:user"`
	Department string   `json:"department" gorm:"size:100;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// CourseAccess grants a user a main course, or a single sub-course of it when
// SubCourseKey is set.
type CourseAccess struct {
	EmailKey     string    `json:"email_key" gorm:"primaryKey;size:255"`
	MainCourseID string    `json:"main_course_id" gorm:"primaryKey;size:36"`
	SubCourseKey string    `json:"sub_course_key" gorm:"primaryKey;size:200;default:''"`
	HasAccess    bool      `json:"has_access" gorm:"default:true"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (CourseAccess) TableName() string {
	return "course_access"
}

type Department struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null;size:100" validate:"required,min=1,max=100"`
	CreatedAt time.Time `json:"created_at"`
}

func (Department) TableName() string {
	return "departments"
}
