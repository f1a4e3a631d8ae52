package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	BaseHandler
	taskService         services.TaskService
	notificationService services.NotificationService
}

func NewTaskHandler(taskService services.TaskService, notificationService services.NotificationService, logger utils.Logger) *TaskHandler {
	return &TaskHandler{
		BaseHandler:         NewBaseHandler(logger),
		taskService:         taskService,
		notificationService: notificationService,
	}
}

// ===== TASKS =====

// CreateTask assigns a task to users
// @Summary Create task
// @Tags tasks
// @Accept json
// @Produce json
// @Param task body services.CreateTaskRequest true "Task"
// @Success 201 {object} models.Task
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	var req services.CreateTaskRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating task", "assignees", len(req.AssignedEmails))

	task, err := h.taskService.CreateTask(c.Request.Context(), identity, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// ListTasks lists active tasks assigned to or created by the caller
// @Summary List tasks
// @Tags tasks
// @Produce json
// @Success 200 {array} models.Task
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// EndTask archives a task
// @Summary End task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} models.Task
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /tasks/{id}/end [post]
func (h *TaskHandler) EndTask(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	task, err := h.taskService.EndTask(c.Request.Context(), identity, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// ListArchivedTasks lists the task history
// @Summary List archived tasks
// @Tags tasks
// @Produce json
// @Success 200 {array} models.Task
// @Router /tasks/archived [get]
func (h *TaskHandler) ListArchivedTasks(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListArchivedTasks(c.Request.Context(), identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// ===== NOTIFICATIONS =====

// ListNotifications lists the caller's notifications, newest first
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Param limit query int false "Maximum number of notifications"
// @Success 200 {array} models.Notification
// @Router /notifications [get]
func (h *TaskHandler) ListNotifications(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	notifications, err := h.notificationService.GetUserNotifications(c.Request.Context(), identity, parseIntQuery(c, "limit", 0))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// UnreadCount returns the badge count
// @Summary Unread notification count
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]int64
// @Router /notifications/unread-count [get]
func (h *TaskHandler) UnreadCount(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(c.Request.Context(), identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkNotificationRead marks one notification as read
// @Summary Mark notification read
// @Tags notifications
// @Param id path string true "Notification ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /notifications/{id}/read [post]
func (h *TaskHandler) MarkNotificationRead(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	if err := h.notificationService.MarkNotificationRead(c.Request.Context(), identity, id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Notification marked as read"})
}
