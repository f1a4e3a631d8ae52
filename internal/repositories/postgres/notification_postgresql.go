package postgres

import (
	"context"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"gorm.io/gorm"
)

type NotificationPostgreSQL struct {
	db *gorm.DB
}

func NewNotificationPostgreSQL(db *gorm.DB) repositories.NotificationRepository {
	return &NotificationPostgreSQL{db: db}
}

func (n *NotificationPostgreSQL) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return n.db.WithContext(ctx).Create(&notifications).Error
}

func (n *NotificationPostgreSQL) ListForRecipient(ctx context.Context, email string, limit int) ([]*models.Notification, error) {
	notifications := make([]*models.Notification, 0)
	query := n.db.WithContext(ctx).
		Where("LOWER(recipient_email) = ?", email).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (n *NotificationPostgreSQL) ListAll(ctx context.Context) ([]*models.Notification, error) {
	notifications := make([]*models.Notification, 0)
	if err := n.db.WithContext(ctx).Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (n *NotificationPostgreSQL) MarkRead(ctx context.Context, id, email string) error {
	result := n.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND LOWER(recipient_email) = ?", id, email).
		Update("is_read", true)
	return notFoundIfUnaffected(result)
}

func (n *NotificationPostgreSQL) CountUnread(ctx context.Context, email string) (int64, error) {
	var count int64
	if err := n.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("LOWER(recipient_email) = ? AND is_read = ?", email, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
