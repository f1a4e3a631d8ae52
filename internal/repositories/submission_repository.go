package repositories

import (
	"context"

	"github.com/SAP-F-2025/learning-service/internal/models"
)

type SubmissionRepository interface {
	// CreateIfAbsent inserts the submission unless one already exists for the
	// same user and sub-course. It reports whether a row was written.
	CreateIfAbsent(ctx context.Context, submission *models.Submission) (bool, error)
	// Upsert overwrites any previous submission of the user for the sub-course
	Upsert(ctx context.Context, submission *models.Submission) error
	Get(ctx context.Context, userID, subCourseID string) (*models.Submission, error)
	List(ctx context.Context, filters SubmissionFilters) ([]*models.Submission, int64, error)
}

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, filters TaskFilters) ([]*models.Task, error)
	// Archive moves an active task to archived. It returns gorm.ErrRecordNotFound
	// when no active task has the id.
	Archive(ctx context.Context, id string) (*models.Task, error)
}

type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []*models.Notification) error
	ListForRecipient(ctx context.Context, email string, limit int) ([]*models.Notification, error)
	ListAll(ctx context.Context) ([]*models.Notification, error)
	// MarkRead returns gorm.ErrRecordNotFound when the recipient has no such notification
	MarkRead(ctx context.Context, id, email string) error
	CountUnread(ctx context.Context, email string) (int64, error)
}
