package repositories

import (
	"context"

	"github.com/SAP-F-2025/learning-service/internal/models"
)

// CourseRepository covers main courses and everything nested under them
type CourseRepository interface {
	// Main courses
	CreateMainCourse(ctx context.Context, course *models.MainCourse) error
	GetMainCourse(ctx context.Context, id string) (*models.MainCourse, error)
	// ListMainCourses returns all courses when ids is nil, otherwise only those ids
	ListMainCourses(ctx context.Context, ids []string) ([]*models.MainCourse, error)
	UpdateMainCourse(ctx context.Context, course *models.MainCourse) error
	DeleteMainCourse(ctx context.Context, id string) error

	// Sub-courses
	CreateSubCourse(ctx context.Context, subCourse *models.SubCourse) error
	// GetSubCourse loads media and questions with their answers, in position order
	GetSubCourse(ctx context.Context, mainCourseID, subCourseID string) (*models.SubCourse, error)
	UpdateSubCourse(ctx context.Context, subCourse *models.SubCourse) error
	DeleteSubCourse(ctx context.Context, mainCourseID, subCourseID string) error

	// Content
	AddMedia(ctx context.Context, media *models.Media) error
	DeleteMedia(ctx context.Context, subCourseID, mediaID string) error
	ReplaceQuestions(ctx context.Context, subCourseID string, questions []models.Question) error
}
