package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"gorm.io/gorm"
)

// Repository groups every repository of the service. WithTransaction hands fn
// a Repository whose members all share one database transaction.
type Repository interface {
	Course() CourseRepository
	User() UserRepository
	Access() CourseAccessRepository
	Department() DepartmentRepository
	Submission() SubmissionRepository
	Task() TaskRepository
	Notification() NotificationRepository

	WithTransaction(ctx context.Context, fn func(tx Repository) error) error
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Role       *models.UserRole `json:"role"`
	Department string           `json:"department"`
	Search     string           `json:"search"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
	SortBy     string           `json:"sort_by"`    // "name", "email", "created_at"
	SortOrder  string           `json:"sort_order"` // "asc", "desc"
}

type SubmissionFilters struct {
	UserID       string     `json:"user_id"`
	Email        string     `json:"email"`
	MainCourseID string     `json:"main_course_id"`
	SubCourseID  string     `json:"sub_course_id"`
	DateFrom     *time.Time `json:"date_from"`
	DateTo       *time.Time `json:"date_to"`
	Limit        int        `json:"limit"`
	Offset       int        `json:"offset"`
	SortBy       string     `json:"sort_by"` // "end_time", "percentage_success", "total_time"
	SortOrder    string     `json:"sort_order"`
}

type TaskFilters struct {
	Status *models.TaskStatus `json:"status"`
	// Email restricts to tasks assigned to or created by this address
	Email  string `json:"email"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}
