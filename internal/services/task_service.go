package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/auth"
	"github.com/SAP-F-2025/learning-service/internal/events"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/validator"
	"github.com/google/uuid"
)

// TaskService assigns tasks to users and fans them out as notifications
type TaskService interface {
	CreateTask(ctx context.Context, identity auth.Identity, req *CreateTaskRequest) (*models.Task, error)
	ListTasks(ctx context.Context, identity auth.Identity) ([]*models.Task, error)
	EndTask(ctx context.Context, identity auth.Identity, taskID string) (*models.Task, error)
	ListArchivedTasks(ctx context.Context, identity auth.Identity) ([]*models.Task, error)
}

type CreateTaskRequest struct {
	Message        string   `json:"message" validate:"required,min=1,max=2000"`
	LinkURL        string   `json:"link_url" validate:"omitempty,url"`
	AssignedEmails []string `json:"assigned_emails" validate:"required,min=1,dive,required,email"`
}

type taskService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *ServiceLogger
	now       func() time.Time
}

func NewTaskService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) TaskService {
	return &taskService{
		repo:      repo,
		publisher: publisher,
		validator: validator,
		logger:    NewServiceLogger(logger, LogConfig{Service: "learning-service", Component: "task"}),
		now:       time.Now,
	}
}

// CreateTask stores the task with one notification per assignee plus one for
// the creator, all in a single transaction.
func (s *taskService) CreateTask(ctx context.Context, identity auth.Identity, req *CreateTaskRequest) (task *models.Task, err error) {
	op := s.logger.WithOperation(ctx, "create_task", identity.UserID)
	defer func() { op.LogResult(taskID(task), "task", err) }()

	if err := requireAdmin(identity, "", "task", "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	assignees := uniqueEmails(req.AssignedEmails)
	creator := normalizeEmail(identity.Email)
	assigned, err := json.Marshal(assignees)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal assignees: %w", err)
	}

	now := s.now()
	task = &models.Task{
		ID:             uuid.NewString(),
		Message:        req.Message,
		LinkURL:        req.LinkURL,
		AssignedEmails: assigned,
		CreatedBy:      creator,
		Status:         models.TaskActive,
		CreatedAt:      now,
	}

	notifications := make([]*models.Notification, 0, len(assignees)+1)
	for _, email := range assignees {
		notifications = append(notifications, &models.Notification{
			ID:             uuid.NewString(),
			Kind:           models.NotificationTaskAssigned,
			Message:        task.Message,
			LinkURL:        task.LinkURL,
			RecipientEmail: email,
			CreatedBy:      creator,
			TaskID:         &task.ID,
			CreatedAt:      now,
		})
	}
	notifications = append(notifications, &models.Notification{
		ID:             uuid.NewString(),
		Kind:           models.NotificationTaskCreated,
		Message:        task.Message,
		LinkURL:        task.LinkURL,
		RecipientEmail: creator,
		AssignedEmails: strings.Join(assignees, ", "),
		CreatedBy:      creator,
		TaskID:         &task.ID,
		CreatedAt:      now,
	})

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Task().Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		if err := tx.Notification().CreateBatch(ctx, notifications); err != nil {
			return fmt.Errorf("failed to create notifications: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewTaskAssignedEvent(events.TaskAssignedEvent{
		TaskID:         task.ID,
		Message:        task.Message,
		LinkURL:        task.LinkURL,
		AssignedEmails: assignees,
		CreatedBy:      task.CreatedBy,
		CreatedAt:      task.CreatedAt,
	}))
	op.LogAudit(AuditEventCreate, task.ID, "task", len(assignees))
	return task, nil
}

// ListTasks returns the active tasks assigned to or created by the caller
func (s *taskService) ListTasks(ctx context.Context, identity auth.Identity) ([]*models.Task, error) {
	status := models.TaskActive
	tasks, err := s.repo.Task().List(ctx, repositories.TaskFilters{Status: &status, Email: normalizeEmail(identity.Email)})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// EndTask archives a task. Assignees, the creator and admins may end it.
func (s *taskService) EndTask(ctx context.Context, identity auth.Identity, taskID string) (archived *models.Task, err error) {
	op := s.logger.WithOperation(ctx, "end_task", identity.UserID)
	defer func() { op.LogResult(taskID, "task", err) }()

	task, err := s.repo.Task().GetByID(ctx, taskID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task.Status == models.TaskArchived {
		return nil, NewBusinessRuleError("task_active", "task is already archived", map[string]interface{}{"task_id": taskID})
	}
	if !identity.IsAdmin() && !canEndTask(task, identity.Email) {
		return nil, NewPermissionError(identity.UserID, taskID, "task", "end", "not assigned to or created by user")
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		archived, err = tx.Task().Archive(ctx, taskID)
		return err
	})
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to archive task: %w", err)
	}

	archivedAt := s.now()
	if archived.ArchivedAt != nil {
		archivedAt = *archived.ArchivedAt
	}
	s.publish(ctx, events.NewTaskArchivedEvent(events.TaskArchivedEvent{
		TaskID:     taskID,
		ArchivedBy: identity.Email,
		ArchivedAt: archivedAt,
	}))
	return archived, nil
}

func (s *taskService) ListArchivedTasks(ctx context.Context, identity auth.Identity) ([]*models.Task, error) {
	if err := requireAdmin(identity, "", "task", "list_archived"); err != nil {
		return nil, err
	}
	status := models.TaskArchived
	tasks, err := s.repo.Task().List(ctx, repositories.TaskFilters{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("failed to list archived tasks: %w", err)
	}
	return tasks, nil
}

func (s *taskService) publish(ctx context.Context, event *events.LearningEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.logger.Warn("Failed to publish task event", "event_type", event.Type, "error", err)
	}
}

func canEndTask(task *models.Task, email string) bool {
	if strings.EqualFold(task.CreatedBy, email) {
		return true
	}
	var assignees []string
	if err := json.Unmarshal(task.AssignedEmails, &assignees); err != nil {
		return false
	}
	return slices.ContainsFunc(assignees, func(a string) bool {
		return strings.EqualFold(a, email)
	})
}

func uniqueEmails(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = normalizeEmail(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// normalizeEmail is the form task and notification emails are stored and
// queried in.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func taskID(task *models.Task) string {
	if task == nil {
		return ""
	}
	return task.ID
}
