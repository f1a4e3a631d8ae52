package repositories

import (
	"context"

	"github.com/SAP-F-2025/learning-service/internal/models"
)

// UserRepository reads and writes user records keyed by email key
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmailKey(ctx context.Context, emailKey string) (*models.User, error)
	GetByEmailKeys(ctx context.Context, emailKeys []string) ([]*models.User, error)
	ExistsByEmailKey(ctx context.Context, emailKey string) (bool, error)
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	UpdateRole(ctx context.Context, emailKey string, role models.UserRole) error
}

// CourseAccessRepository manages which users may open which courses.
// An empty subCourseKey addresses the whole main course.
type CourseAccessRepository interface {
	Grant(ctx context.Context, emailKey, mainCourseID, subCourseKey string) error
	Get(ctx context.Context, emailKey, mainCourseID, subCourseKey string) (*models.CourseAccess, error)
	Delete(ctx context.Context, emailKey, mainCourseID, subCourseKey string) error
	// RevokeCourse removes every grant of the user on the main course
	RevokeCourse(ctx context.Context, emailKey, mainCourseID string) error

	// HasAccess is true for a whole-course grant or a grant on subCourseKey
	HasAccess(ctx context.Context, emailKey, mainCourseID, subCourseKey string) (bool, error)
	ListCourseIDs(ctx context.Context, emailKey string) ([]string, error)
	ListForUser(ctx context.Context, emailKey string) ([]*models.CourseAccess, error)
	ListEnrolledUsers(ctx context.Context, mainCourseID string) ([]*models.User, error)
}

type DepartmentRepository interface {
	Create(ctx context.Context, department *models.Department) error
	List(ctx context.Context) ([]*models.Department, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
}
