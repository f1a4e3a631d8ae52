package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"gorm.io/gorm"
)

type TaskPostgreSQL struct {
	db *gorm.DB
}

func NewTaskPostgreSQL(db *gorm.DB) repositories.TaskRepository {
	return &TaskPostgreSQL{db: db}
}

func (t *TaskPostgreSQL) Create(ctx context.Context, task *models.Task) error {
	return t.db.WithContext(ctx).Create(task).Error
}

func (t *TaskPostgreSQL) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := t.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (t *TaskPostgreSQL) List(ctx context.Context, filters repositories.TaskFilters) ([]*models.Task, error) {
	tasks := make([]*models.Task, 0)

	query := t.db.WithContext(ctx).Model(&models.Task{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Email != "" {
		email := strings.ToLower(filters.Email)
		query = query.Where(
			"(LOWER(created_by) = ? OR EXISTS (SELECT 1 FROM jsonb_array_elements_text(assigned_emails) AS a(email) WHERE LOWER(a.email) = ?))",
			email, email)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (t *TaskPostgreSQL) Archive(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, "id = ? AND status = ?", id, models.TaskActive).Error; err != nil {
			return err
		}

		now := time.Now()
		task.Status = models.TaskArchived
		task.ArchivedAt = &now
		return tx.Model(&task).Updates(map[string]interface{}{
			"status":      task.Status,
			"archived_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}
