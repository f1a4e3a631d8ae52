package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"gorm.io/gorm"
)

type CoursePostgreSQL struct {
	db *gorm.DB
}

func NewCoursePostgreSQL(db *gorm.DB) repositories.CourseRepository {
	return &CoursePostgreSQL{db: db}
}

func (c *CoursePostgreSQL) CreateMainCourse(ctx context.Context, course *models.MainCourse) error {
	return c.db.WithContext(ctx).Omit("SubCourses").Create(course).Error
}

func (c *CoursePostgreSQL) GetMainCourse(ctx context.Context, id string) (*models.MainCourse, error) {
	var course models.MainCourse
	if err := c.db.WithContext(ctx).
		Preload("SubCourses", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&course, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) ListMainCourses(ctx context.Context, ids []string) ([]*models.MainCourse, error) {
	courses := make([]*models.MainCourse, 0)
	if ids != nil && len(ids) == 0 {
		return courses, nil
	}

	query := c.db.WithContext(ctx).
		Preload("SubCourses", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Order("name ASC")
	if ids != nil {
		query = query.Where("id IN ?", ids)
	}

	if err := query.Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *CoursePostgreSQL) UpdateMainCourse(ctx context.Context, course *models.MainCourse) error {
	result := c.db.WithContext(ctx).
		Model(&models.MainCourse{}).
		Where("id = ?", course.ID).
		Updates(map[string]interface{}{
			"name":        course.Name,
			"description": course.Description,
			"thumbnail":   course.Thumbnail,
		})
	return notFoundIfUnaffected(result)
}

func (c *CoursePostgreSQL) DeleteMainCourse(ctx context.Context, id string) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("main_course_id = ?", id).Delete(&models.SubCourse{}).Error; err != nil {
			return fmt.Errorf("failed to delete sub-courses: %w", err)
		}
		if err := tx.Where("main_course_id = ?", id).Delete(&models.CourseAccess{}).Error; err != nil {
			return fmt.Errorf("failed to delete course access: %w", err)
		}
		return notFoundIfUnaffected(tx.Where("id = ?", id).Delete(&models.MainCourse{}))
	})
}

func (c *CoursePostgreSQL) CreateSubCourse(ctx context.Context, subCourse *models.SubCourse) error {
	return c.db.WithContext(ctx).Omit("Media", "Questions").Create(subCourse).Error
}

func (c *CoursePostgreSQL) GetSubCourse(ctx context.Context, mainCourseID, subCourseID string) (*models.SubCourse, error) {
	var subCourse models.SubCourse
	if err := c.db.WithContext(ctx).
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Questions.Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("main_course_id = ? AND id = ?", mainCourseID, subCourseID).
		First(&subCourse).Error; err != nil {
		return nil, err
	}
	return &subCourse, nil
}

func (c *CoursePostgreSQL) UpdateSubCourse(ctx context.Context, subCourse *models.SubCourse) error {
	result := c.db.WithContext(ctx).
		Model(&models.SubCourse{}).
		Where("main_course_id = ? AND id = ?", subCourse.MainCourseID, subCourse.ID).
		Updates(map[string]interface{}{
			"name":        subCourse.Name,
			"description": subCourse.Description,
		})
	return notFoundIfUnaffected(result)
}

func (c *CoursePostgreSQL) DeleteSubCourse(ctx context.Context, mainCourseID, subCourseID string) error {
	result := c.db.WithContext(ctx).
		Where("main_course_id = ? AND id = ?", mainCourseID, subCourseID).
		Delete(&models.SubCourse{})
	return notFoundIfUnaffected(result)
}

func (c *CoursePostgreSQL) AddMedia(ctx context.Context, media *models.Media) error {
	return c.db.WithContext(ctx).Create(media).Error
}

func (c *CoursePostgreSQL) DeleteMedia(ctx context.Context, subCourseID, mediaID string) error {
	result := c.db.WithContext(ctx).
		Where("sub_course_id = ? AND id = ?", subCourseID, mediaID).
		Delete(&models.Media{})
	return notFoundIfUnaffected(result)
}

// ReplaceQuestions drops the current question list and writes questions in
// the given order.
func (c *CoursePostgreSQL) ReplaceQuestions(ctx context.Context, subCourseID string, questions []models.Question) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := tx.Model(&models.Question{}).Select("id").Where("sub_course_id = ?", subCourseID)
		if err := tx.Where("question_id IN (?)", existing).Delete(&models.Answer{}).Error; err != nil {
			return fmt.Errorf("failed to delete answers: %w", err)
		}
		if err := tx.Where("sub_course_id = ?", subCourseID).Delete(&models.Question{}).Error; err != nil {
			return fmt.Errorf("failed to delete questions: %w", err)
		}
		if len(questions) == 0 {
			return nil
		}

		for i := range questions {
			questions[i].ID = 0
			questions[i].SubCourseID = subCourseID
			questions[i].Position = i
			for j := range questions[i].Answers {
				questions[i].Answers[j].ID = 0
				questions[i].Answers[j].QuestionID = 0
				questions[i].Answers[j].Position = j
			}
		}
		if err := tx.Create(&questions).Error; err != nil {
			return fmt.Errorf("failed to create questions: %w", err)
		}
		return nil
	})
}
