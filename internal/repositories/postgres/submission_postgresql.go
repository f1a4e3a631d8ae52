package postgres

import (
	"context"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubmissionPostgreSQL struct {
	db      *gorm.DB
	helpers SharedHelpers
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

func (s *SubmissionPostgreSQL) CreateIfAbsent(ctx context.Context, submission *models.Submission) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(submission)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *SubmissionPostgreSQL) Upsert(ctx context.Context, submission *models.Submission) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			UpdateAll: true,
		}).
		Create(submission).Error
}

func (s *SubmissionPostgreSQL) Get(ctx context.Context, userID, subCourseID string) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, subCourseID).
		First(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) List(ctx context.Context, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	submissions := make([]*models.Submission, 0)
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Submission{})
	query = s.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = s.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset,
		[]string{"end_time", "percentage_success", "total_time"}, "end_time")
	if err := query.Find(&submissions).Error; err != nil {
		return nil, 0, err
	}
	return submissions, total, nil
}

func (s *SubmissionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.SubmissionFilters) *gorm.DB {
	if filters.UserID != "" {
		query = query.Where("user_id = ?", filters.UserID)
	}
	if filters.Email != "" {
		query = query.Where("email = ?", filters.Email)
	}
	if filters.MainCourseID != "" {
		query = query.Where("main_course_id = ?", filters.MainCourseID)
	}
	if filters.SubCourseID != "" {
		query = query.Where("course_id = ?", filters.SubCourseID)
	}
	if filters.DateFrom != nil {
		query = query.Where("end_time >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("end_time <= ?", *filters.DateTo)
	}
	return query
}
