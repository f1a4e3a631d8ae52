package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/learning-service/internal/auth"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/validator"
	"github.com/google/uuid"
)

type UserService interface {
	// Users
	CreateUser(ctx context.Context, identity auth.Identity, req *CreateUserRequest) (*models.User, error)
	ListUsers(ctx context.Context, identity auth.Identity, filters repositories.UserFilters) ([]*models.User, int64, error)
	UpdateRole(ctx context.Context, identity auth.Identity, email string, role models.UserRole) (*models.User, error)
	BulkUpload(ctx context.Context, identity auth.Identity, reader io.Reader) (*models.BulkUploadSummary, error)

	// Course access
	GrantCourseAccess(ctx context.Context, identity auth.Identity, mainCourseID string, emails []string) error
	RevokeCourseAccess(ctx context.Context, identity auth.Identity, mainCourseID string, emails []string) error
	ToggleSubCourseAccess(ctx context.Context, identity auth.Identity, email, mainCourseID, subCourseKey string) (bool, error)
	ListEnrolledUsers(ctx context.Context, identity auth.Identity, mainCourseID string) ([]*models.User, error)

	// Departments
	ListDepartments(ctx context.Context) ([]*models.Department, error)
	CreateDepartment(ctx context.Context, identity auth.Identity, name string) (*models.Department, error)
}

type CreateUserRequest struct {
	Email      string          `json:"email" validate:"required,email"`
	Name       string          `json:"name" validate:"max=100"`
	Password   string          `json:"password" validate:"omitempty,min=6"`
	Role       models.UserRole `json:"role" validate:"omitempty,user_role"`
	Department string          `json:"department" validate:"max=100"`
}

type CourseAccessRequest struct {
	Emails []string `json:"emails" validate:"required,min=1,dive,required,email"`
}

type DepartmentRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type userService struct {
	repo        repositories.Repository
	provisioner auth.UserProvisioner
	validator   *validator.Validator
	logger      *ServiceLogger
}

// NewUserService builds the service. provisioner may be nil, in which case
// users only get a local record.
func NewUserService(repo repositories.Repository, provisioner auth.UserProvisioner, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{
		repo:        repo,
		provisioner: provisioner,
		validator:   validator,
		logger:      NewServiceLogger(logger, LogConfig{Service: "learning-service", Component: "user"}),
	}
}

// ===== USERS =====

func (s *userService) CreateUser(ctx context.Context, identity auth.Identity, req *CreateUserRequest) (user *models.User, err error) {
	op := s.logger.WithOperation(ctx, "create_user", identity.UserID)
	defer func() { op.LogResult(req.Email, "user", err) }()

	if err := requireAdmin(identity, req.Email, "user", "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Role == models.RoleSuperAdmin && !identity.IsSuperAdmin() {
		return nil, NewPermissionError(identity.UserID, req.Email, "user", "create", "only a SuperAdmin can create a SuperAdmin")
	}

	user = newUser(req.Email, req.Name, req.Role, req.Department)
	exists, err := s.repo.User().ExistsByEmailKey(ctx, user.EmailKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	if err := s.provision(ctx, user, req.Password); err != nil {
		return nil, err
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	op.LogAudit(AuditEventCreate, user.EmailKey, "user", user.Role)
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, identity auth.Identity, filters repositories.UserFilters) ([]*models.User, int64, error) {
	if err := requireAdmin(identity, "", "user", "list"); err != nil {
		return nil, 0, err
	}
	users, total, err := s.repo.User().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *userService) UpdateRole(ctx context.Context, identity auth.Identity, email string, role models.UserRole) (user *models.User, err error) {
	op := s.logger.WithOperation(ctx, "update_role", identity.UserID)
	defer func() { op.LogResult(email, "user", err) }()

	if err := requireAdmin(identity, email, "user", "update_role"); err != nil {
		return nil, err
	}
	if err := s.validator.Var("role", string(role), "required,user_role"); err != nil {
		return nil, err
	}
	if role == models.RoleSuperAdmin && !identity.IsSuperAdmin() {
		return nil, NewPermissionError(identity.UserID, email, "user", "update_role", "only a SuperAdmin can grant SuperAdmin")
	}

	key := models.EmailKey(email)
	if err := s.repo.User().UpdateRole(ctx, key, role); err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	user, err = s.repo.User().GetByEmailKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	op.LogAudit(AuditEventUpdate, key, "user_role", role)
	return user, nil
}

// BulkUpload reads a CSV with the header email,name,password,role,department.
// Existing users are skipped and invalid rows are reported without stopping
// the upload.
func (s *userService) BulkUpload(ctx context.Context, identity auth.Identity, reader io.Reader) (summary *models.BulkUploadSummary, err error) {
	op := s.logger.WithOperation(ctx, "bulk_upload_users", identity.UserID)
	defer func() { op.LogResult("", "user", err) }()

	if err := requireAdmin(identity, "", "user", "bulk_upload"); err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, validationFailure("file", fmt.Sprintf("failed to read CSV: %v", err), nil)
	}
	if len(records) < 2 {
		return nil, validationFailure("file", "CSV must have header row and at least one data row", len(records))
	}

	headerMap := make(map[string]int)
	for i, header := range records[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	if _, ok := headerMap["email"]; !ok {
		return nil, validationFailure("headers", "missing required column: email", "email")
	}

	summary = &models.BulkUploadSummary{
		TotalRows: len(records) - 1,
		Added:     []models.User{},
		Skipped:   []string{},
		Errors:    []models.ImportValidationError{},
	}
	seen := make(map[string]bool)

	for i, record := range records[1:] {
		row := i + 2
		field := func(name string) string {
			if idx, ok := headerMap[name]; ok && idx < len(record) {
				return strings.TrimSpace(record[idx])
			}
			return ""
		}

		req := &CreateUserRequest{
			Email:      field("email"),
			Name:       field("name"),
			Password:   field("password"),
			Role:       models.UserRole(field("role")),
			Department: field("department"),
		}
		if rowErr := s.validateRow(row, req, identity); rowErr != nil {
			summary.Errors = append(summary.Errors, *rowErr)
			continue
		}

		user := newUser(req.Email, req.Name, req.Role, req.Department)
		if seen[user.EmailKey] {
			summary.Skipped = append(summary.Skipped, req.Email)
			continue
		}
		seen[user.EmailKey] = true

		exists, err := s.repo.User().ExistsByEmailKey(ctx, user.EmailKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check user %s: %w", req.Email, err)
		}
		if exists {
			summary.Skipped = append(summary.Skipped, req.Email)
			continue
		}

		if err := s.provision(ctx, user, req.Password); err != nil {
			summary.Errors = append(summary.Errors, models.ImportValidationError{
				Row: row, Column: "email", Message: err.Error(), Value: req.Email,
			})
			continue
		}
		if err := s.repo.User().Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", req.Email, err)
		}
		summary.Added = append(summary.Added, *user)
	}

	s.logger.logger.Info("Bulk user upload completed",
		"total_rows", summary.TotalRows,
		"added", len(summary.Added),
		"skipped", len(summary.Skipped),
		"errors", len(summary.Errors))
	return summary, nil
}

func (s *userService) validateRow(row int, req *CreateUserRequest, identity auth.Identity) *models.ImportValidationError {
	if err := s.validator.Validate(req); err != nil {
		var errs ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			return &models.ImportValidationError{
				Row:     row,
				Column:  errs[0].Field,
				Message: errs[0].Message,
				Value:   fmt.Sprint(errs[0].Value),
			}
		}
		return &models.ImportValidationError{Row: row, Message: err.Error()}
	}
	if req.Role == models.RoleSuperAdmin && !identity.IsSuperAdmin() {
		return &models.ImportValidationError{
			Row: row, Column: "role", Message: "only a SuperAdmin can create a SuperAdmin", Value: string(req.Role),
		}
	}
	return nil
}

func (s *userService) provision(ctx context.Context, user *models.User, password string) error {
	if s.provisioner == nil || password == "" {
		return nil
	}
	return s.provisioner.Provision(ctx, user, password)
}

func newUser(email, name string, role models.UserRole, department string) *models.User {
	email = strings.TrimSpace(email)
	if name == "" {
		name = "Unknown"
	}
	if role == "" {
		role = models.RoleUser
	}
	return &models.User{
		EmailKey:   models.EmailKey(email),
		Email:      email,
		Name:       name,
		Role:       role,
		Department: department,
	}
}

// ===== COURSE ACCESS =====

func (s *userService) GrantCourseAccess(ctx context.Context, identity auth.Identity, mainCourseID string, emails []string) (err error) {
	op := s.logger.WithOperation(ctx, "grant_course_access", identity.UserID)
	defer func() { op.LogResult(mainCourseID, "course_access", err) }()

	if err := s.checkAccessChange(ctx, identity, mainCourseID, emails); err != nil {
		return err
	}
	return s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		for _, email := range emails {
			if err := tx.Access().Grant(ctx, models.EmailKey(email), mainCourseID, ""); err != nil {
				return fmt.Errorf("failed to grant access to %s: %w", email, err)
			}
		}
		return nil
	})
}

func (s *userService) RevokeCourseAccess(ctx context.Context, identity auth.Identity, mainCourseID string, emails []string) (err error) {
	op := s.logger.WithOperation(ctx, "revoke_course_access", identity.UserID)
	defer func() { op.LogResult(mainCourseID, "course_access", err) }()

	if err := s.checkAccessChange(ctx, identity, mainCourseID, emails); err != nil {
		return err
	}
	return s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		for _, email := range emails {
			if err := tx.Access().RevokeCourse(ctx, models.EmailKey(email), mainCourseID); err != nil {
				return fmt.Errorf("failed to revoke access of %s: %w", email, err)
			}
		}
		return nil
	})
}

func (s *userService) checkAccessChange(ctx context.Context, identity auth.Identity, mainCourseID string, emails []string) error {
	if err := requireAdmin(identity, mainCourseID, "course_access", "update"); err != nil {
		return err
	}
	if err := s.validator.Validate(&CourseAccessRequest{Emails: emails}); err != nil {
		return err
	}
	if _, err := s.repo.Course().GetMainCourse(ctx, mainCourseID); err != nil {
		if repositories.IsNotFound(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to get course: %w", err)
	}
	return nil
}

// ToggleSubCourseAccess flips a single sub-course grant and returns the new state
func (s *userService) ToggleSubCourseAccess(ctx context.Context, identity auth.Identity, email, mainCourseID, subCourseKey string) (bool, error) {
	if err := requireAdmin(identity, subCourseKey, "course_access", "toggle"); err != nil {
		return false, err
	}
	if strings.TrimSpace(subCourseKey) == "" {
		return false, validationFailure("sub_course_key", "is required", subCourseKey)
	}

	key := models.EmailKey(email)
	current, err := s.repo.Access().Get(ctx, key, mainCourseID, subCourseKey)
	if err != nil && !repositories.IsNotFound(err) {
		return false, fmt.Errorf("failed to read course access: %w", err)
	}

	if current != nil && current.HasAccess {
		if err := s.repo.Access().Delete(ctx, key, mainCourseID, subCourseKey); err != nil {
			return false, fmt.Errorf("failed to remove course access: %w", err)
		}
		return false, nil
	}
	if err := s.repo.Access().Grant(ctx, key, mainCourseID, subCourseKey); err != nil {
		return false, fmt.Errorf("failed to grant course access: %w", err)
	}
	return true, nil
}

func (s *userService) ListEnrolledUsers(ctx context.Context, identity auth.Identity, mainCourseID string) ([]*models.User, error) {
	if err := requireAdmin(identity, mainCourseID, "course_access", "list"); err != nil {
		return nil, err
	}
	users, err := s.repo.Access().ListEnrolledUsers(ctx, mainCourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrolled users: %w", err)
	}
	return users, nil
}

// ===== DEPARTMENTS =====

func (s *userService) ListDepartments(ctx context.Context) ([]*models.Department, error) {
	departments, err := s.repo.Department().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return departments, nil
}

func (s *userService) CreateDepartment(ctx context.Context, identity auth.Identity, name string) (*models.Department, error) {
	if err := requireAdmin(identity, "", "department", "create"); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := s.validator.Validate(&DepartmentRequest{Name: name}); err != nil {
		return nil, err
	}

	exists, err := s.repo.Department().ExistsByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check department: %w", err)
	}
	if exists {
		return nil, ErrDepartmentExists
	}

	department := &models.Department{ID: uuid.NewString(), Name: name}
	if err := s.repo.Department().Create(ctx, department); err != nil {
		return nil, fmt.Errorf("failed to create department: %w", err)
	}
	return department, nil
}
