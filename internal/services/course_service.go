package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/SAP-F-2025/learning-service/internal/auth"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/validator"
	"github.com/google/uuid"
)

type CourseService interface {
	// Main courses
	ListCourses(ctx context.Context, identity auth.Identity) ([]*models.MainCourse, error)
	GetCourse(ctx context.Context, identity auth.Identity, id string) (*models.MainCourse, error)
	CreateCourse(ctx context.Context, identity auth.Identity, req *CourseRequest) (*models.MainCourse, error)
	UpdateCourse(ctx context.Context, identity auth.Identity, id string, req *CourseRequest) (*models.MainCourse, error)
	DeleteCourse(ctx context.Context, identity auth.Identity, id string) error

	// Sub-courses
	GetSubCourse(ctx context.Context, identity auth.Identity, mainCourseID, subCourseID string) (*models.SubCourse, error)
	CreateSubCourse(ctx context.Context, identity auth.Identity, mainCourseID string, req *SubCourseRequest) (*models.SubCourse, error)
	UpdateSubCourse(ctx context.Context, identity auth.Identity, mainCourseID, subCourseID string, req *SubCourseRequest) (*models.SubCourse, error)
	DeleteSubCourse(ctx context.Context, identity auth.Identity, mainCourseID, subCourseID string) error

	// Content
	AddMedia(ctx context.Context, identity auth.Identity, mainCourseID, subCourseID string, req *MediaRequest) (*models.Media, error)
	DeleteMedia(ctx context.Context, identity auth.Identity, mainCourseID, subCourseID, mediaID string) error
	ReplaceQuestions(ctx context.Context, identity auth.Identity, mainCourseID, subCourseID string, req *ReplaceQuestionsRequest) (*models.SubCourse, error)
}

// SubCourseInvalidator drops cached copies of edited sub-courses. An empty
// subCourseID covers the whole main course.
type SubCourseInvalidator interface {
	Invalidate(ctx context.Context, mainCourseID, subCourseID string) error
}

type CourseRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Thumbnail   *string `json:"thumbnail" validate:"omitempty,url"`
}

type SubCourseRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=5000"`
}

type MediaRequest struct {
	Kind models.MediaKind `json:"kind" validate:"required,media_kind"`
	URL  string           `json:"url" validate:"required,url"`
}

type AnswerInput struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

type QuestionInput struct {
	Text    string        `json:"text"`
	Answers []AnswerInput `json:"answers"`
}

type ReplaceQuestionsRequest struct {
	Questions []QuestionInput `json:"questions"`
}

type courseService struct {
	repo        repositories.Repository
	invalidator SubCourseInvalidator
	validator   *validator.Validator
	logger      *ServiceLogger
}

func NewCourseService(repo repositories.Repository, invalidator SubCourseInvalidator, logger *slog.Logger, validator *validator.Validator) CourseService {
	return &courseService{
		repo:        repo,
		invalidator: invalidator,
		validator:   validator,
		logger:      NewServiceLogger(logger, LogConfig{Service: "learning-service", Component: "course"}),
	}
}

// ===== MAIN COURSES =====

// ListCourses returns every course to admins and the granted ones to learners
func (s *courseService) ListCourses(ctx context.Context, identity auth.Identity) ([]*models.MainCourse, error) {
	var ids []string
	if !identity.IsAdmin() {
		granted, err := s.repo.Access().ListCourseIDs(ctx, identity.EmailKey())
		if err != nil {
			return nil, fmt.Errorf("failed to list course access: %w", err)
		}
		ids = make([]string, 0, len(granted))
		ids = append(ids, granted...)
	}

	courses, err := s.repo.Course().ListMainCourses(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

func (s *courseService) GetCourse(ctx context.Context, identity auth.Identity, id string) (*models.MainCourse, error) {
	if !identity.IsAdmin() {
		granted, err := s.repo.Access().ListCourseIDs(ctx, identity.EmailKey())
		if err != nil {
			return nil, fmt.Errorf("failed to list course access: %w", err)
		}
		if !slices.Contains(granted, id) {
			return nil, fmt.Errorf("%w: %s", ErrCourseAccessDenied, id)
		}
	}

	course, err := s.repo.Course().GetMainCourse(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

func (s *courseService) CreateCourse(ctx context.Context, identity auth.Identity, req *CourseRequest) (course *models.MainCourse, err error) {
	op := s.logger.WithOperation(ctx, "create_course", identity.UserID)
	defer func() { op.LogResult(courseID(course), "main_course", err) }()

	if err := requireAdmin(identity, "", "main_course", "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course = &models.MainCourse{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
		CreatedBy:   identity.Email,
	}
	if err := s.repo.Course().CreateMainCourse(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	op.LogAudit(AuditEventCreate, course.ID, "main_course", course.Name)
	return course, nil
}

func (s *courseService) UpdateCourse(ctx context.Context, identity auth.Identity, id string, req *CourseRequest) (*models.MainCourse, error) {
	if err := requireAdmin(identity, id, "main_course", "update"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course := &models.MainCourse{ID: id, Name: req.Name, Description: req.Description, Thumbnail: req.Thumbnail}
	if err := s.repo.Course().UpdateMainCourse(ctx, course); err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	return s.GetCourse(ctx, identity, id)
}

func (s *courseService) DeleteCourse(ctx context.Context, identity auth.Identity, id string) (err error) {
	op := s.logger.WithOperation(ctx, "delete_course", identity.UserID)
	defer func() { op.LogResult(id, "main_course", err) }()

	if err := requireAdmin(identity, id, "main_course", "delete"); err != nil {
		return err
	}
	if err := s.repo.Course().DeleteMainCourse(ctx, id); err != nil {
		if repositories.IsNotFound(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.invalidate(ctx, id, "")
	op.LogAudit(AuditEventDelete, id, "main_course", nil)
	return nil
}

// ===== SUB-COURSES =====

func (s *courseService) GetSubCourse(ctx context.Context, identity auth.Identity, mainCourseID, subCourseID string) (*models.SubCourse, error) {
	if err := requireAdmin(identity, subCourseID, "sub_course", "read"); err != nil {
		return nil, err
	}
	return s.getSubCourse(ctx, mainCourseID, subCourseID)
}

func (s *courseService) CreateSubCourse(ctx context.Context, identity auth.Identity, mainCourseID string, req *SubCourseRequest) (*models.SubCourse, error) {
	if err := requireAdmin(identity, mainCourseID, "sub_course", "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.repo.Course().GetMainCourse(ctx, mainCourseID); err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	subCourse := &models.SubCourse{
		ID:           uuid.NewString(),
		MainCourseID: mainCourseID,
		Name:         req.Name,
		Description:  req.Description,
	}
	if err := s.repo.Course().CreateSubCourse(ctx, subCourse); err != nil {
		return nil, fmt.Errorf("failed to create sub-course: %w", err)
	}
	return subCourse, nil
}

func (s *courseService) UpdateSubCourse(ctx context.Context, identity auth.Identity, mainCourseID, subCourseID string, req *SubCourseRequest) (*models.SubCourse, error) {
	if err := requireAdmin(identity, subCourseID, "sub_course", "update"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	subCourse := &models.SubCourse{ID: subCourseID, MainCourseID: mainCourseID, Name: req.Name, Description: req.Description}
	if err := s.repo.Course().UpdateSubCourse(ctx, subCourse); err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrSubCourseNotFound
		}
		return nil, fmt.Errorf("failed to update sub-course: %w", err)
	}

	s.invalidate(ctx, mainCourseID, subCourseID)
	return s.getSubCourse(ctx, mainCourseID, subCourseID)
}

func (s *courseService) DeleteSubCourse(ctx context.Context, identity auth.Identity, mainCourseID, subCourseID string) error {
	if err := requireAdmin(identity, subCourseID, "sub_course", "delete"); err != nil {
		return err
	}
	if err := s.repo.Course().DeleteSubCourse(ctx, mainCourseID, subCourseID); err != nil {
		if repositories.IsNotFound(err) {
			return ErrSubCourseNotFound
		}
		return fmt.Errorf("failed to delete sub-course: %w", err)
	}

	s.invalidate(ctx, mainCourseID, subCourseID)
	return nil
}

// ===== CONTENT =====

func (s *courseService) AddMedia(ctx context.Context, identity auth.Identity, mainCourseID, subCourseID string, req *MediaRequest) (*models.Media, error) {
	if err := requireAdmin(identity, subCourseID, "media", "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.getSubCourse(ctx, mainCourseID, subCourseID); err != nil {
		return nil, err
	}

	// Media is played back in id order, so ids must grow with time
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate media id: %w", err)
	}
	media := &models.Media{
		ID:          id.String(),
		SubCourseID: subCourseID,
		Kind:        req.Kind,
		URL:         req.URL,
	}
	if err := s.repo.Course().AddMedia(ctx, media); err != nil {
		return nil, fmt.Errorf("failed to add media: %w", err)
	}

	s.invalidate(ctx, mainCourseID, subCourseID)
	return media, nil
}

func (s *courseService) DeleteMedia(ctx context.Context, identity auth.Identity, mainCourseID, subCourseID, mediaID string) error {
	if err := requireAdmin(identity, mediaID, "media", "delete"); err != nil {
		return err
	}
	if _, err := s.getSubCourse(ctx, mainCourseID, subCourseID); err != nil {
		return err
	}
	if err := s.repo.Course().DeleteMedia(ctx, subCourseID, mediaID); err != nil {
		if repositories.IsNotFound(err) {
			return ErrMediaNotFound
		}
		return fmt.Errorf("failed to delete media: %w", err)
	}

	s.invalidate(ctx, mainCourseID, subCourseID)
	return nil
}

func (s *courseService) ReplaceQuestions(ctx context.Context, identity auth.Identity, mainCourseID, subCourseID string, req *ReplaceQuestionsRequest) (subCourse *models.SubCourse, err error) {
	op := s.logger.WithOperation(ctx, "replace_questions", identity.UserID)
	defer func() { op.LogResult(subCourseID, "sub_course", err) }()

	if err := requireAdmin(identity, subCourseID, "questions", "update"); err != nil {
		return nil, err
	}

	questions := make([]models.Question, len(req.Questions))
	for i, in := range req.Questions {
		answers := make([]models.Answer, len(in.Answers))
		for j, a := range in.Answers {
			answers[j] = models.Answer{Text: a.Text, Correct: a.Correct, Position: j}
		}
		questions[i] = models.Question{SubCourseID: subCourseID, Position: i, Text: in.Text, Answers: answers}
	}
	if err := s.validator.Question().ValidateQuestions(questions); err != nil {
		return nil, err
	}

	if _, err := s.getSubCourse(ctx, mainCourseID, subCourseID); err != nil {
		return nil, err
	}
	if err := s.repo.Course().ReplaceQuestions(ctx, subCourseID, questions); err != nil {
		return nil, fmt.Errorf("failed to replace questions: %w", err)
	}

	s.invalidate(ctx, mainCourseID, subCourseID)
	op.LogAudit(AuditEventUpdate, subCourseID, "questions", len(questions))
	return s.getSubCourse(ctx, mainCourseID, subCourseID)
}

// ===== HELPERS =====

func (s *courseService) getSubCourse(ctx context.Context, mainCourseID, subCourseID string) (*models.SubCourse, error) {
	subCourse, err := s.repo.Course().GetSubCourse(ctx, mainCourseID, subCourseID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrSubCourseNotFound
		}
		return nil, fmt.Errorf("failed to get sub-course: %w", err)
	}
	return subCourse, nil
}

// invalidate never fails an edit; a stale entry expires with its TTL
func (s *courseService) invalidate(ctx context.Context, mainCourseID, subCourseID string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, mainCourseID, subCourseID); err != nil {
		s.logger.logger.Warn("Failed to invalidate sub-course cache",
			"main_course_id", mainCourseID, "sub_course_id", subCourseID, "error", err)
	}
}

func courseID(course *models.MainCourse) string {
	if course == nil {
		return ""
	}
	return course.ID
}

func requireAdmin(identity auth.Identity, resourceID, resource, action string) error {
	if identity.IsAdmin() {
		return nil
	}
	return NewPermissionError(identity.UserID, resourceID, resource, action, "admin role required")
}
