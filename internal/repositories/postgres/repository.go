package postgres

import (
	"context"
	"strings"

	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{db: db}
}

func (r *repository) Course() repositories.CourseRepository {
	return NewCoursePostgreSQL(r.db)
}

func (r *repository) User() repositories.UserRepository {
	return NewUserPostgreSQL(r.db)
}

func (r *repository) Access() repositories.CourseAccessRepository {
	return NewCourseAccessPostgreSQL(r.db)
}

func (r *repository) Department() repositories.DepartmentRepository {
	return NewDepartmentPostgreSQL(r.db)
}

func (r *repository) Submission() repositories.SubmissionRepository {
	return NewSubmissionPostgreSQL(r.db)
}

func (r *repository) Task() repositories.TaskRepository {
	return NewTaskPostgreSQL(r.db)
}

func (r *repository) Notification() repositories.NotificationRepository {
	return NewNotificationPostgreSQL(r.db)
}

func (r *repository) WithTransaction(ctx context.Context, fn func(tx repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}

// SharedHelpers holds query building used by several repositories
type SharedHelpers struct{}

// ApplyPaginationAndSort orders by sortBy when it is one of allowed, otherwise
// by defaultSort, then applies limit and offset.
func (SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int, allowed []string, defaultSort string) *gorm.DB {
	column := defaultSort
	for _, a := range allowed {
		if a == sortBy {
			column = sortBy
			break
		}
	}

	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}
	query = query.Order(column + " " + direction)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// notFoundIfUnaffected turns a write that matched nothing into ErrRecordNotFound
func notFoundIfUnaffected(result *gorm.DB) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
