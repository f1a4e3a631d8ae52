package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/learning-service/internal/auth"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

const defaultNotificationLimit = 50

// NotificationService reads and acknowledges the caller's notifications
type NotificationService interface {
	GetUserNotifications(ctx context.Context, identity auth.Identity, limit int) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, identity auth.Identity, notificationID string) error
	UnreadCount(ctx context.Context, identity auth.Identity) (int64, error)
}

type notificationService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewNotificationService(repo repositories.Repository, logger *slog.Logger) NotificationService {
	return &notificationService{
		repo:   repo,
		logger: logger,
	}
}

func (s *notificationService) GetUserNotifications(ctx context.Context, identity auth.Identity, limit int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultNotificationLimit
	}
	notifications, err := s.repo.Notification().ListForRecipient(ctx, normalizeEmail(identity.Email), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *notificationService) MarkNotificationRead(ctx context.Context, identity auth.Identity, notificationID string) error {
	if err := s.repo.Notification().MarkRead(ctx, notificationID, normalizeEmail(identity.Email)); err != nil {
		if repositories.IsNotFound(err) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	s.logger.Debug("Notification marked read", "notification_id", notificationID, "email", identity.Email)
	return nil
}

// UnreadCount backs the navbar badge
func (s *notificationService) UnreadCount(ctx context.Context, identity auth.Identity) (int64, error) {
	count, err := s.repo.Notification().CountUnread(ctx, normalizeEmail(identity.Email))
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
