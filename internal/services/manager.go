package services

import (
	"log/slog"

	"github.com/SAP-F-2025/learning-service/internal/auth"
	"github.com/SAP-F-2025/learning-service/internal/cache"
	"github.com/SAP-F-2025/learning-service/internal/config"
	"github.com/SAP-F-2025/learning-service/internal/events"
	"github.com/SAP-F-2025/learning-service/internal/quiz"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/validator"
)

// ServiceManager wires every service of the API
type ServiceManager struct {
	Quiz         QuizService
	Course       CourseService
	User         UserService
	Task         TaskService
	Notification NotificationService
	Progress     ProgressService
}

type Dependencies struct {
	Repo        repositories.Repository
	Sessions    cache.SessionStore
	Loader      quiz.SubCourseLoader
	Invalidator SubCourseInvalidator
	Publisher   events.EventPublisher
	Provisioner auth.UserProvisioner
	Quiz        config.QuizConfig
	Logger      *slog.Logger
}

func NewServiceManager(deps Dependencies) *ServiceManager {
	v := validator.New(deps.Quiz.StrictAnswerKeys)

	return &ServiceManager{
		Quiz:         NewQuizService(deps.Repo, deps.Sessions, deps.Loader, deps.Publisher, deps.Logger, deps.Quiz),
		Course:       NewCourseService(deps.Repo, deps.Invalidator, deps.Logger, v),
		User:         NewUserService(deps.Repo, deps.Provisioner, deps.Logger, v),
		Task:         NewTaskService(deps.Repo, deps.Publisher, deps.Logger, v),
		Notification: NewNotificationService(deps.Repo, deps.Logger),
		Progress:     NewProgressService(deps.Repo, deps.Logger),
	}
}
