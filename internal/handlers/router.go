package handlers

import (
	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	quizHandler     *QuizHandler
	courseHandler   *CourseHandler
	userHandler     *UserHandler
	taskHandler     *TaskHandler
	progressHandler *ProgressHandler

	resolver IdentityResolver
	logger   utils.Logger
}

func NewHandlerManager(serviceManager *services.ServiceManager, resolver IdentityResolver, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		quizHandler:     NewQuizHandler(serviceManager.Quiz, logger),
		courseHandler:   NewCourseHandler(serviceManager.Course, logger),
		userHandler:     NewUserHandler(serviceManager.User, logger),
		taskHandler:     NewTaskHandler(serviceManager.Task, serviceManager.Notification, logger),
		progressHandler: NewProgressHandler(serviceManager.Progress, logger),
		resolver:        resolver,
		logger:          logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.Use(utils.RequestID(), utils.LoggerMiddleware(hm.logger))

	// Health check endpoint
	router.GET("/health", HealthCheck)

	admin := RequireAdmin()

	// API v1 routes
	v1 := router.Group("/api/v1", AuthMiddleware(hm.resolver, hm.logger))
	{
		v1.GET("/me", hm.userHandler.Me)

		// Quiz flow
		v1.POST("/sub-courses/:sub_course_id/sessions", hm.quizHandler.StartSession)
		sessions := v1.Group("/quiz-sessions/:session_id")
		{
			sessions.GET("", hm.quizHandler.GetSession)
			sessions.DELETE("", hm.quizHandler.AbandonSession)
			sessions.POST("/media/next", hm.quizHandler.NextMedia)
			sessions.POST("/media/prev", hm.quizHandler.PrevMedia)
			sessions.POST("/questions/next", hm.quizHandler.NextQuestion)
			sessions.POST("/questions/prev", hm.quizHandler.PrevQuestion)
			sessions.PUT("/questions/:index", hm.quizHandler.GoToQuestion)
			sessions.PUT("/answer", hm.quizHandler.SelectAnswer)
			sessions.POST("/submit", hm.quizHandler.Submit)
		}

		// Submissions
		v1.GET("/submissions", hm.quizHandler.ListSubmissions)
		v1.GET("/submissions/:user_id/:sub_course_id", hm.quizHandler.GetSubmission)

		// Course routes
		courses := v1.Group("/courses")
		{
			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.POST("", admin, hm.courseHandler.CreateCourse)
			courses.PUT("/:id", admin, hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", admin, hm.courseHandler.DeleteCourse)

			// Sub-course content
			courses.POST("/:id/sub-courses", admin, hm.courseHandler.CreateSubCourse)
			courses.GET("/:id/sub-courses/:sub_course_id", admin, hm.courseHandler.GetSubCourse)
			courses.PUT("/:id/sub-courses/:sub_course_id", admin, hm.courseHandler.UpdateSubCourse)
			courses.DELETE("/:id/sub-courses/:sub_course_id", admin, hm.courseHandler.DeleteSubCourse)
			courses.POST("/:id/sub-courses/:sub_course_id/media", admin, hm.courseHandler.AddMedia)
			courses.DELETE("/:id/sub-courses/:sub_course_id/media/:media_id", admin, hm.courseHandler.DeleteMedia)
			courses.PUT("/:id/sub-courses/:sub_course_id/questions", admin, hm.courseHandler.ReplaceQuestions)

			// Access management
			courses.POST("/:id/access", admin, hm.userHandler.GrantCourseAccess)
			courses.DELETE("/:id/access", admin, hm.userHandler.RevokeCourseAccess)
			courses.GET("/:id/enrolled", admin, hm.userHandler.ListEnrolledUsers)
		}

		// User routes
		users := v1.Group("/users", admin)
		{
			users.GET("", hm.userHandler.ListUsers)
			users.POST("", hm.userHandler.CreateUser)
			users.POST("/bulk", hm.userHandler.BulkUpload)
			users.PUT("/:email/role", hm.userHandler.UpdateRole)
			users.POST("/:email/access/:course_id/:sub_course_key/toggle", hm.userHandler.ToggleSubCourseAccess)
		}

		// Department routes
		v1.GET("/departments", admin, hm.userHandler.ListDepartments)
		v1.POST("/departments", admin, hm.userHandler.CreateDepartment)

		// Task routes
		tasks := v1.Group("/tasks")
		{
			tasks.GET("", hm.taskHandler.ListTasks)
			tasks.POST("", admin, hm.taskHandler.CreateTask)
			tasks.GET("/archived", admin, hm.taskHandler.ListArchivedTasks)
			tasks.POST("/:id/end", hm.taskHandler.EndTask)
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", hm.taskHandler.ListNotifications)
			notifications.GET("/unread-count", hm.taskHandler.UnreadCount)
			notifications.POST("/:id/read", hm.taskHandler.MarkNotificationRead)
		}

		// Progress routes
		v1.GET("/progress/export", admin, hm.progressHandler.ExportProgress)
	}
}
