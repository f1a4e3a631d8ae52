package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/auth"
	"github.com/SAP-F-2025/learning-service/internal/cache"
	"github.com/SAP-F-2025/learning-service/internal/config"
	"github.com/SAP-F-2025/learning-service/internal/events"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/quiz"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/google/uuid"
)

// QuizService runs learner quiz sessions and exposes their submissions
type QuizService interface {
	StartSession(ctx context.Context, identity auth.Identity, mainCourseID, subCourseID string) (*SessionResponse, error)
	GetSession(ctx context.Context, identity auth.Identity, sessionID string) (*SessionResponse, error)
	AbandonSession(ctx context.Context, identity auth.Identity, sessionID string) error

	// Navigation
	NextMedia(ctx context.Context, identity auth.Identity, sessionID string) (*SessionResponse, error)
	PrevMedia(ctx context.Context, identity auth.Identity, sessionID string) (*SessionResponse, error)
	NextQuestion(ctx context.Context, identity auth.Identity, sessionID string) (*SessionResponse, error)
	PrevQuestion(ctx context.Context, identity auth.Identity, sessionID string) (*SessionResponse, error)
	GoToQuestion(ctx context.Context, identity auth.Identity, sessionID string, index int) (*SessionResponse, error)

	// Answering
	SelectAnswer(ctx context.Context, identity auth.Identity, sessionID, answer string) (*SessionResponse, error)
	Submit(ctx context.Context, identity auth.Identity, sessionID string) (*SessionResponse, error)

	// Submissions
	GetSubmission(ctx context.Context, identity auth.Identity, userID, subCourseID string) (*models.Submission, error)
	ListSubmissions(ctx context.Context, identity auth.Identity, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error)
}

type SessionResponse struct {
	SessionID    string `json:"session_id"`
	MainCourseID string `json:"main_course_id"`
	SubCourseID  string `json:"sub_course_id"`
	quiz.View
	Submission *models.Submission `json:"submission,omitempty"`
}

func newSessionResponse(id string, session *quiz.Session) *SessionResponse {
	ref := session.Ref()
	return &SessionResponse{
		SessionID:    id,
		MainCourseID: ref.MainCourseID,
		SubCourseID:  ref.SubCourseID,
		View:         session.View(),
		Submission:   session.Submission(),
	}
}

type quizService struct {
	repo      repositories.Repository
	sessions  cache.SessionStore
	loader    quiz.SubCourseLoader
	publisher events.EventPublisher
	logger    *ServiceLogger
	config    config.QuizConfig
	now       func() time.Time
}

func NewQuizService(
	repo repositories.Repository,
	sessions cache.SessionStore,
	loader quiz.SubCourseLoader,
	publisher events.EventPublisher,
	logger *slog.Logger,
	cfg config.QuizConfig,
) QuizService {
	return &quizService{
		repo:      repo,
		sessions:  sessions,
		loader:    loader,
		publisher: publisher,
		logger:    NewServiceLogger(logger, LogConfig{Service: "learning-service", Component: "quiz"}),
		config:    cfg,
		now:       time.Now,
	}
}

// ===== SESSION LIFECYCLE =====

func (s *quizService) StartSession(ctx context.Context, identity auth.Identity, mainCourseID, subCourseID string) (resp *SessionResponse, err error) {
	op := s.logger.WithOperation(ctx, "start_session", identity.UserID)
	defer func() { op.LogResult(subCourseID, "sub_course", err) }()

	ref := quiz.CourseRef{
		MainCourseID: strings.TrimSpace(mainCourseID),
		SubCourseID:  strings.TrimSpace(subCourseID),
	}
	if ref.MainCourseID == "" {
		return nil, quiz.ErrMissingMainCourse
	}
	if ref.SubCourseID == "" {
		return nil, quiz.ErrMissingSubCourse
	}

	if !identity.IsAdmin() {
		allowed, err := s.repo.Access().HasAccess(ctx, identity.EmailKey(), ref.MainCourseID, ref.SubCourseID)
		if err != nil {
			return nil, fmt.Errorf("failed to check course access: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrCourseAccessDenied, ref.SubCourseID)
		}
	}

	loadCtx := ctx
	if s.config.LoadTimeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, s.config.LoadTimeout)
		defer cancel()
	}

	session := quiz.NewSession(s.now(), quiz.MediaOrder(s.config.MediaOrder))
	if err := session.Load(loadCtx, s.loader, ref); err != nil {
		return nil, err
	}

	name, err := s.learnerName(ctx, identity)
	if err != nil {
		return nil, err
	}

	stored := &cache.StoredSession{
		ID:       uuid.NewString(),
		OwnerID:  identity.UserID,
		Email:    identity.Email,
		UserName: name,
		Snapshot: session.Snapshot(),
	}
	if err := s.sessions.Create(ctx, stored); err != nil {
		return nil, fmt.Errorf("failed to store quiz session: %w", err)
	}

	return newSessionResponse(stored.ID, session), nil
}

// learnerName prefers the stored user name over the token's display name
func (s *quizService) learnerName(ctx context.Context, identity auth.Identity) (string, error) {
	user, err := s.repo.User().GetByEmailKey(ctx, identity.EmailKey())
	switch {
	case err == nil && user.Name != "":
		return user.Name, nil
	case err != nil && !repositories.IsNotFound(err):
		return "", fmt.Errorf("failed to load learner: %w", err)
	}
	if identity.Name != "" {
		return identity.Name, nil
	}
	return "User", nil
}

func (s *quizService) GetSession(ctx context.Context, identity auth.Identity, sessionID string) (*SessionResponse, error) {
	stored, err := s.ownedSession(ctx, identity, sessionID)
	if err != nil {
		return nil, err
	}
	session, err := quiz.Restore(stored.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to restore quiz session: %w", err)
	}
	return newSessionResponse(stored.ID, session), nil
}

func (s *quizService) AbandonSession(ctx context.Context, identity auth.Identity, sessionID string) error {
	if _, err := s.ownedSession(ctx, identity, sessionID); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return s.sessionError(sessionID, err)
	}
	return nil
}

// ===== NAVIGATION =====

func (s *quizService) NextMedia(ctx context.Context, identity auth.Identity, sessionID string) (*SessionResponse, error) {
	return s.mutate(ctx, identity, sessionID, step((*quiz.Session).NextMedia))
}

func (s *quizService) PrevMedia(ctx context.Context, identity auth.Identity, sessionID string) (*SessionResponse, error) {
	return s.mutate(ctx, identity, sessionID, step((*quiz.Session).PrevMedia))
}

func (s *quizService) NextQuestion(ctx context.Context, identity auth.Identity, sessionID string) (*SessionResponse, error) {
	return s.mutate(ctx, identity, sessionID, step((*quiz.Session).NextQuestion))
}

func (s *quizService) PrevQuestion(ctx context.Context, identity auth.Identity, sessionID string) (*SessionResponse, error) {
	return s.mutate(ctx, identity, sessionID, step((*quiz.Session).PrevQuestion))
}

func (s *quizService) GoToQuestion(ctx context.Context, identity auth.Identity, sessionID string, index int) (*SessionResponse, error) {
	return s.mutate(ctx, identity, sessionID, func(_ *cache.StoredSession, session *quiz.Session) error {
		return session.GoToQuestion(index)
	})
}

func step(fn func(*quiz.Session) error) func(*cache.StoredSession, *quiz.Session) error {
	return func(_ *cache.StoredSession, session *quiz.Session) error {
		return fn(session)
	}
}

// ===== ANSWERING =====

func (s *quizService) SelectAnswer(ctx context.Context, identity auth.Identity, sessionID, answer string) (*SessionResponse, error) {
	return s.mutate(ctx, identity, sessionID, func(_ *cache.StoredSession, session *quiz.Session) error {
		return session.SelectAnswer(answer)
	})
}

func (s *quizService) Submit(ctx context.Context, identity auth.Identity, sessionID string) (resp *SessionResponse, err error) {
	op := s.logger.WithOperation(ctx, "submit_quiz", identity.UserID)
	defer func() { op.LogResult(sessionID, "quiz_session", err) }()

	// The store may replay the update; the writer makes sure only one row is written
	writer := &onceWriter{next: newSubmissionWriter(s.repo, s.config.AllowResubmit)}
	now := s.now()

	resp, err = s.mutate(ctx, identity, sessionID, func(stored *cache.StoredSession, session *quiz.Session) error {
		learner := quiz.Learner{UserID: stored.OwnerID, Email: stored.Email, Name: stored.UserName}
		_, err := session.Submit(ctx, learner, now, writer)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishSubmission(ctx, writer.written)
	return resp, nil
}

func (s *quizService) publishSubmission(ctx context.Context, submission *models.Submission) {
	if submission == nil || s.publisher == nil {
		return
	}
	event := events.NewSubmissionRecordedEvent(events.SubmissionRecordedEvent{
		UserID:            submission.UserID,
		Email:             submission.Email,
		UserName:          submission.UserName,
		MainCourseID:      submission.MainCourseID,
		SubCourseID:       submission.CourseID,
		CorrectCount:      submission.CorrectCount,
		TotalQuestions:    submission.TotalQuestions,
		PercentageSuccess: submission.PercentageSuccess,
		TotalTime:         submission.TotalTime,
		SubmittedAt:       submission.EndTime,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.logger.Warn("Failed to publish submission event",
			"user_id", submission.UserID, "sub_course_id", submission.CourseID, "error", err)
	}
}

// ===== SUBMISSIONS =====

func (s *quizService) GetSubmission(ctx context.Context, identity auth.Identity, userID, subCourseID string) (*models.Submission, error) {
	if !identity.IsAdmin() && userID != identity.UserID {
		return nil, NewPermissionError(identity.UserID, subCourseID, "submission", "read", "not the submitting user")
	}

	submission, err := s.repo.Submission().Get(ctx, userID, subCourseID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return submission, nil
}

func (s *quizService) ListSubmissions(ctx context.Context, identity auth.Identity, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	if !identity.IsAdmin() {
		filters.UserID = identity.UserID
		filters.Email = ""
	}

	submissions, total, err := s.repo.Submission().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, total, nil
}

// ===== HELPERS =====

func (s *quizService) ownedSession(ctx context.Context, identity auth.Identity, sessionID string) (*cache.StoredSession, error) {
	stored, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, s.sessionError(sessionID, err)
	}
	if stored.OwnerID != identity.UserID {
		// Other users' sessions are reported as missing
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return stored, nil
}

// mutate applies fn to the stored session and saves the result atomically
func (s *quizService) mutate(ctx context.Context, identity auth.Identity, sessionID string, fn func(*cache.StoredSession, *quiz.Session) error) (*SessionResponse, error) {
	var resp *SessionResponse
	_, err := s.sessions.Update(ctx, sessionID, func(stored *cache.StoredSession) error {
		if stored.OwnerID != identity.UserID {
			return cache.ErrSessionNotFound
		}

		session, err := quiz.Restore(stored.Snapshot)
		if err != nil {
			return fmt.Errorf("failed to restore quiz session: %w", err)
		}
		if err := fn(stored, session); err != nil {
			return err
		}

		stored.Snapshot = session.Snapshot()
		resp = newSessionResponse(stored.ID, session)
		return nil
	})
	if err != nil {
		return nil, s.sessionError(sessionID, err)
	}
	return resp, nil
}

func (s *quizService) sessionError(sessionID string, err error) error {
	switch {
	case errors.Is(err, cache.ErrSessionNotFound):
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	case errors.Is(err, cache.ErrSessionConflict):
		return ErrSessionBusy
	}
	return err
}

// ===== SUBMISSION WRITERS =====

// repositorySubmissionWriter stores submissions. Unless overwrite is set a
// second submission for the same user and sub-course is refused. A row left
// by an earlier attempt of the same session counts as written, so a submit
// whose session save was lost can be completed.
type repositorySubmissionWriter struct {
	repo      repositories.Repository
	overwrite bool
}

func newSubmissionWriter(repo repositories.Repository, overwrite bool) *repositorySubmissionWriter {
	return &repositorySubmissionWriter{repo: repo, overwrite: overwrite}
}

func (w *repositorySubmissionWriter) WriteSubmission(ctx context.Context, submission *models.Submission) error {
	if w.overwrite {
		return w.repo.Submission().Upsert(ctx, submission)
	}
	created, err := w.repo.Submission().CreateIfAbsent(ctx, submission)
	if err != nil {
		return err
	}
	if created {
		return nil
	}

	existing, err := w.repo.Submission().Get(ctx, submission.UserID, submission.CourseID)
	if err != nil && !repositories.IsNotFound(err) {
		return err
	}
	if existing != nil && sameSession(existing, submission) {
		return nil
	}
	return ErrAlreadySubmitted
}

// sameSession reports whether both submissions come from one quiz session.
// Start times are compared at the precision postgres keeps.
func sameSession(a, b *models.Submission) bool {
	return a.StartTime.Truncate(time.Microsecond).Equal(b.StartTime.Truncate(time.Microsecond))
}

// onceWriter forwards the first successful write and turns later calls into
// no-ops.
type onceWriter struct {
	next    quiz.SubmissionWriter
	written *models.Submission
}

func (w *onceWriter) WriteSubmission(ctx context.Context, submission *models.Submission) error {
	if w.written != nil {
		return nil
	}
	if err := w.next.WriteSubmission(ctx, submission); err != nil {
		return err
	}
	w.written = submission
	return nil
}

// ===== SUB-COURSE LOADING =====

type repositoryLoader struct {
	repo repositories.Repository
}

// NewRepositoryLoader reads sub-courses straight from the course repository
func NewRepositoryLoader(repo repositories.Repository) quiz.SubCourseLoader {
	return &repositoryLoader{repo: repo}
}

func (l *repositoryLoader) LoadSubCourse(ctx context.Context, ref quiz.CourseRef) (*models.SubCourse, error) {
	subCourse, err := l.repo.Course().GetSubCourse(ctx, ref.MainCourseID, ref.SubCourseID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, quiz.ErrSubCourseNotFound
		}
		return nil, err
	}
	return subCourse, nil
}
