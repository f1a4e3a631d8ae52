package postgres

import (
	"context"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserPostgreSQL struct {
	db      *gorm.DB
	helpers SharedHelpers
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (u *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	return u.db.WithContext(ctx).Create(user).Error
}

func (u *UserPostgreSQL) GetByEmailKey(ctx context.Context, emailKey string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, "email_key = ?", emailKey).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByEmailKeys(ctx context.Context, emailKeys []string) ([]*models.User, error) {
	users := make([]*models.User, 0)
	if len(emailKeys) == 0 {
		return users, nil
	}
	if err := u.db.WithContext(ctx).Where("email_key IN ?", emailKeys).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (u *UserPostgreSQL) ExistsByEmailKey(ctx context.Context, emailKey string) (bool, error) {
	var count int64
	if err := u.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email_key = ?", emailKey).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (u *UserPostgreSQL) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := u.db.WithContext(ctx).Model(&models.User{})
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if filters.Department != "" {
		query = query.Where("department = ?", filters.Department)
	}
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = u.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset,
		[]string{"name", "email", "created_at"}, "created_at")
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (u *UserPostgreSQL) UpdateRole(ctx context.Context, emailKey string, role models.UserRole) error {
	result := u.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email_key = ?", emailKey).
		Update("role", role)
	return notFoundIfUnaffected(result)
}

type CourseAccessPostgreSQL struct {
	db *gorm.DB
}

func NewCourseAccessPostgreSQL(db *gorm.DB) repositories.CourseAccessRepository {
	return &CourseAccessPostgreSQL{db: db}
}

func (a *CourseAccessPostgreSQL) Grant(ctx context.Context, emailKey, mainCourseID, subCourseKey string) error {
	access := &models.CourseAccess{
		EmailKey:     emailKey,
		MainCourseID: mainCourseID,
		SubCourseKey: subCourseKey,
		HasAccess:    true,
	}
	return a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email_key"}, {Name: "main_course_id"}, {Name: "sub_course_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"has_access": true,
				"updated_at": time.Now(),
			}),
		}).
		Create(access).Error
}

func (a *CourseAccessPostgreSQL) Get(ctx context.Context, emailKey, mainCourseID, subCourseKey string) (*models.CourseAccess, error) {
	var access models.CourseAccess
	if err := a.db.WithContext(ctx).
		Where("email_key = ? AND main_course_id = ? AND sub_course_key = ?", emailKey, mainCourseID, subCourseKey).
		First(&access).Error; err != nil {
		return nil, err
	}
	return &access, nil
}

func (a *CourseAccessPostgreSQL) Delete(ctx context.Context, emailKey, mainCourseID, subCourseKey string) error {
	result := a.db.WithContext(ctx).
		Where("email_key = ? AND main_course_id = ? AND sub_course_key = ?", emailKey, mainCourseID, subCourseKey).
		Delete(&models.CourseAccess{})
	return notFoundIfUnaffected(result)
}

func (a *CourseAccessPostgreSQL) RevokeCourse(ctx context.Context, emailKey, mainCourseID string) error {
	return a.db.WithContext(ctx).
		Where("email_key = ? AND main_course_id = ?", emailKey, mainCourseID).
		Delete(&models.CourseAccess{}).Error
}

func (a *CourseAccessPostgreSQL) HasAccess(ctx context.Context, emailKey, mainCourseID, subCourseKey string) (bool, error) {
	var count int64
	if err := a.db.WithContext(ctx).
		Model(&models.CourseAccess{}).
		Where("email_key = ? AND main_course_id = ? AND has_access = ?", emailKey, mainCourseID, true).
		Where("sub_course_key IN ?", []string{"", subCourseKey}).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (a *CourseAccessPostgreSQL) ListCourseIDs(ctx context.Context, emailKey string) ([]string, error) {
	ids := make([]string, 0)
	if err := a.db.WithContext(ctx).
		Model(&models.CourseAccess{}).
		Where("email_key = ? AND has_access = ?", emailKey, true).
		Distinct().
		Pluck("main_course_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (a *CourseAccessPostgreSQL) ListForUser(ctx context.Context, emailKey string) ([]*models.CourseAccess, error) {
	var grants []*models.CourseAccess
	if err := a.db.WithContext(ctx).
		Where("email_key = ?", emailKey).
		Order("main_course_id, sub_course_key").
		Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

func (a *CourseAccessPostgreSQL) ListEnrolledUsers(ctx context.Context, mainCourseID string) ([]*models.User, error) {
	users := make([]*models.User, 0)
	if err := a.db.WithContext(ctx).
		Model(&models.User{}).
		Distinct("users.*").
		Joins("JOIN course_access ON course_access.email_key = users.email_key").
		Where("course_access.main_course_id = ? AND course_access.has_access = ?", mainCourseID, true).
		Order("users.name ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

type DepartmentPostgreSQL struct {
	db *gorm.DB
}

func NewDepartmentPostgreSQL(db *gorm.DB) repositories.DepartmentRepository {
	return &DepartmentPostgreSQL{db: db}
}

func (d *DepartmentPostgreSQL) Create(ctx context.Context, department *models.Department) error {
	return d.db.WithContext(ctx).Create(department).Error
}

func (d *DepartmentPostgreSQL) List(ctx context.Context) ([]*models.Department, error) {
	departments := make([]*models.Department, 0)
	if err := d.db.WithContext(ctx).Order("name ASC").Find(&departments).Error; err != nil {
		return nil, err
	}
	return departments, nil
}

func (d *DepartmentPostgreSQL) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).
		Model(&models.Department{}).
		Where("LOWER(name) = LOWER(?)", name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
