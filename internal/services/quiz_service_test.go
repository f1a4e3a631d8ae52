package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/auth"
	"github.com/SAP-F-2025/learning-service/internal/cache"
	"github.com/SAP-F-2025/learning-service/internal/config"
	"github.com/SAP-F-2025/learning-service/internal/events"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/quiz"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	learner = auth.Identity{UserID: "u-dana", Email: "dana@example.com", Name: "Dana T", Role: models.RoleUser}
	admin   = auth.Identity{UserID: "u-admin", Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin}
)

type quizFixture struct {
	svc       *quizService
	repo      *memoryRepo
	sessions  *cache.MemorySessionStore
	publisher *events.MockEventPublisher
}

func seedCourse(repo *memoryRepo) {
	repo.courses["main-1"] = &models.MainCourse{ID: "main-1", Name: "Warehouse"}
	repo.subCourses["sub-1"] = &models.SubCourse{
		ID:           "sub-1",
		MainCourseID: "main-1",
		Name:         "Forklift safety",
		Media: []models.Media{
			{ID: "m2", SubCourseID: "sub-1", Kind: models.MediaVideo, URL: "https://www.dropbox.com/s/abc/intro.mp4?dl=1"},
			{ID: "m1", SubCourseID: "sub-1", Kind: models.MediaImage, URL: "https://img.example.com/1.png"},
		},
		Questions: []models.Question{
			{ID: 1, Position: 0, Text: "Wear a helmet?", Answers: []models.Answer{{Text: "Yes", Correct: true}, {Text: "No"}}},
			{ID: 2, Position: 1, Text: "Max speed?", Answers: []models.Answer{{Text: "5 km/h", Correct: true}, {Text: "20 km/h"}}},
		},
	}
	repo.users["dana@example,com"] = &models.User{EmailKey: "dana@example,com", Email: "dana@example.com", Name: "Dana", Role: models.RoleUser}
	repo.access[accessKey{"dana@example,com", "main-1", ""}] = &models.CourseAccess{
		EmailKey: "dana@example,com", MainCourseID: "main-1", HasAccess: true,
	}
}

func newQuizFixture(t *testing.T, cfg config.QuizConfig) *quizFixture {
	t.Helper()
	repo := newMemoryRepo()
	seedCourse(repo)
	sessions := cache.NewMemorySessionStore()
	publisher := events.NewMockEventPublisher(nil)

	svc := NewQuizService(repo, sessions, NewRepositoryLoader(repo), publisher, discardLogger(), cfg).(*quizService)
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(90 * time.Second)
		return clock
	}
	return &quizFixture{svc: svc, repo: repo, sessions: sessions, publisher: publisher}
}

func (f *quizFixture) start(t *testing.T, identity auth.Identity) *SessionResponse {
	t.Helper()
	resp, err := f.svc.StartSession(context.Background(), identity, "main-1", "sub-1")
	require.NoError(t, err)
	return resp
}

func (f *quizFixture) answerAll(t *testing.T, identity auth.Identity, sessionID string, answers ...string) {
	t.Helper()
	ctx := context.Background()
	for i, a := range answers {
		_, err := f.svc.GoToQuestion(ctx, identity, sessionID, i)
		require.NoError(t, err)
		_, err = f.svc.SelectAnswer(ctx, identity, sessionID, a)
		require.NoError(t, err)
	}
}

func TestQuizService_StartSession(t *testing.T) {
	f := newQuizFixture(t, config.QuizConfig{LoadTimeout: time.Second})

	resp := f.start(t, learner)

	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, quiz.StateViewing, resp.State)
	assert.Equal(t, "main-1", resp.MainCourseID)
	assert.Equal(t, "sub-1", resp.SubCourseID)
	assert.Equal(t, 2, resp.TotalQuestions)
	require.NotNil(t, resp.Question)
	assert.Equal(t, "Wear a helmet?", resp.Question.Text)
	assert.Equal(t, []string{"Yes", "No"}, resp.Question.Answers)
	assert.False(t, resp.CanSubmit)

	// Images come first, then videos
	require.NotNil(t, resp.Media)
	assert.Equal(t, "m1", resp.Media.ID)
	assert.Equal(t, 2, resp.MediaCount)

	stored, err := f.sessions.Get(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Dana", stored.UserName)
	assert.Equal(t, learner.UserID, stored.OwnerID)
}

func TestQuizService_StartSession_Errors(t *testing.T) {
	f := newQuizFixture(t, config.QuizConfig{})
	ctx := context.Background()

	_, err := f.svc.StartSession(ctx, learner, "", "sub-1")
	assert.ErrorIs(t, err, quiz.ErrMissingMainCourse)
	assert.True(t, IsValidation(err))

	_, err = f.svc.StartSession(ctx, learner, "main-1", "missing")
	assert.True(t, IsNotFound(err))

	stranger := auth.Identity{UserID: "u-lee", Email: "lee@example.com", Role: models.RoleUser}
	_, err = f.svc.StartSession(ctx, stranger, "main-1", "sub-1")
	assert.ErrorIs(t, err, ErrCourseAccessDenied)
	assert.True(t, IsUnauthorized(err))

	// Admins skip the access check and fall back to their token name
	resp, err := f.svc.StartSession(ctx, admin, "main-1", "sub-1")
	require.NoError(t, err)
	stored, err := f.sessions.Get(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Admin", stored.UserName)
}

func TestQuizService_SubCourseGrantIsEnough(t *testing.T) {
	f := newQuizFixture(t, config.QuizConfig{})
	lee := auth.Identity{UserID: "u-lee", Email: "lee@example.com", Role: models.RoleUser}
	f.repo.access[accessKey{"lee@example,com", "main-1", "sub-1"}] = &models.CourseAccess{HasAccess: true}

	resp := f.start(t, lee)
	assert.Equal(t, quiz.StateViewing, resp.State)
}

func TestQuizService_NavigationAndSubmit(t *testing.T) {
	f := newQuizFixture(t, config.QuizConfig{})
	ctx := context.Background()
	resp := f.start(t, learner)
	id := resp.SessionID

	resp, err := f.svc.NextMedia(ctx, learner, id)
	require.NoError(t, err)
	assert.Equal(t, "https://dl.dropboxusercontent.com/s/abc/intro.mp4", resp.Media.URL)
	assert.False(t, resp.HasNextMedia)

	resp, err = f.svc.PrevMedia(ctx, learner, id)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.MediaIndex)

	resp, err = f.svc.SelectAnswer(ctx, learner, id, "No")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.AnsweredCount)
	assert.Equal(t, 0, resp.QuestionIndex)

	resp, err = f.svc.NextQuestion(ctx, learner, id)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.QuestionIndex)

	_, err = f.svc.SelectAnswer(ctx, learner, id, "100 km/h")
	assert.ErrorIs(t, err, quiz.ErrUnknownAnswer)
	assert.True(t, IsValidation(err))

	resp, err = f.svc.SelectAnswer(ctx, learner, id, "5 km/h")
	require.NoError(t, err)
	assert.True(t, resp.CanSubmit)

	resp, err = f.svc.PrevQuestion(ctx, learner, id)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.QuestionIndex)

	resp, err = f.svc.Submit(ctx, learner, id)
	require.NoError(t, err)
	assert.Equal(t, quiz.StateSubmitted, resp.State)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 1, resp.Result.CorrectCount)
	assert.Equal(t, 50.0, resp.Result.Percentage)
	require.NotNil(t, resp.Submission)
	assert.Greater(t, resp.Submission.TotalTime, 0.0)

	saved, err := f.repo.Submission().Get(ctx, learner.UserID, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "Dana", saved.UserName)
	assert.Equal(t, "main-1", saved.MainCourseID)
	assert.JSONEq(t, `["No","5 km/h"]`, string(saved.UserAnswers))

	published := f.publisher.EventsOfType(events.EventSubmissionRecorded)
	require.Len(t, published, 1)
	data := published[0].Data.(events.SubmissionRecordedEvent)
	assert.Equal(t, 50.0, data.PercentageSuccess)

	_, err = f.svc.NextQuestion(ctx, learner, id)
	assert.ErrorIs(t, err, quiz.ErrSessionSubmitted)
	assert.True(t, IsConflict(err))
}

func TestQuizService_SubmitRequiresAllAnswers(t *testing.T) {
	f := newQuizFixture(t, config.QuizConfig{})
	ctx := context.Background()
	resp := f.start(t, learner)

	_, err := f.svc.SelectAnswer(ctx, learner, resp.SessionID, "Yes")
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, learner, resp.SessionID)
	assert.ErrorIs(t, err, quiz.ErrSubmitNotReady)
	assert.True(t, IsBusinessRule(err))
	assert.Empty(t, f.repo.submissions)
}

func TestQuizService_SecondSubmissionRejected(t *testing.T) {
	f := newQuizFixture(t, config.QuizConfig{})
	ctx := context.Background()

	first := f.start(t, learner)
	second := f.start(t, learner)
	f.answerAll(t, learner, first.SessionID, "Yes", "5 km/h")
	f.answerAll(t, learner, second.SessionID, "No", "20 km/h")

	_, err := f.svc.Submit(ctx, learner, first.SessionID)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, learner, second.SessionID)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.ErrorIs(t, err, quiz.ErrWriteFailed)
	assert.True(t, IsConflict(err))

	resp, err := f.svc.GetSession(ctx, learner, second.SessionID)
	require.NoError(t, err)
	assert.Equal(t, quiz.StateViewing, resp.State)

	saved, err := f.repo.Submission().Get(ctx, learner.UserID, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, saved.PercentageSuccess)
	assert.Len(t, f.publisher.GetPublishedEvents(), 1)
}

func TestQuizService_ResubmitOverwrites(t *testing.T) {
	f := newQuizFixture(t, config.QuizConfig{AllowResubmit: true})
	ctx := context.Background()

	for _, answers := range [][]string{{"Yes", "5 km/h"}, {"No", "20 km/h"}} {
		resp := f.start(t, learner)
		f.answerAll(t, learner, resp.SessionID, answers...)
		_, err := f.svc.Submit(ctx, learner, resp.SessionID)
		require.NoError(t, err)
	}

	assert.Len(t, f.repo.submissions, 1)
	saved, err := f.repo.Submission().Get(ctx, learner.UserID, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, saved.PercentageSuccess)
}

func TestQuizService_WriteFailureKeepsSession(t *testing.T) {
	f := newQuizFixture(t, config.QuizConfig{})
	ctx := context.Background()
	submissions := new(MockSubmissionRepository)
	f.repo.submissionOverride = submissions

	submissions.On("CreateIfAbsent", mock.Anything, mock.AnythingOfType("*models.Submission")).
		Return(false, errors.New("connection reset")).Once()
	submissions.On("CreateIfAbsent", mock.Anything, mock.AnythingOfType("*models.Submission")).
		Return(true, nil).Once()

	resp := f.start(t, learner)
	f.answerAll(t, learner, resp.SessionID, "Yes", "5 km/h")

	_, err := f.svc.Submit(ctx, learner, resp.SessionID)
	assert.ErrorIs(t, err, quiz.ErrWriteFailed)

	view, err := f.svc.GetSession(ctx, learner, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, quiz.StateViewing, view.State)
	assert.Equal(t, 2, view.AnsweredCount)

	view, err = f.svc.Submit(ctx, learner, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, quiz.StateSubmitted, view.State)
	submissions.AssertNumberOfCalls(t, "CreateIfAbsent", 2)
}

// replayingStore runs the update callback extra times before applying it, as
// the Redis store does when the watched key changes. With conflict set it
// gives up after the replays, like a store that lost every retry.
type replayingStore struct {
	*cache.MemorySessionStore
	replays  int
	conflict bool
}

func (s *replayingStore) Update(ctx context.Context, id string, fn func(*cache.StoredSession) error) (*cache.StoredSession, error) {
	for i := 0; i < s.replays; i++ {
		stored, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(stored); err != nil {
			return nil, err
		}
	}
	if s.conflict {
		return nil, cache.ErrSessionConflict
	}
	return s.MemorySessionStore.Update(ctx, id, fn)
}

func TestQuizService_ReplayedSubmitWritesOnce(t *testing.T) {
	f := newQuizFixture(t, config.QuizConfig{})
	ctx := context.Background()
	submissions := new(MockSubmissionRepository)
	f.repo.submissionOverride = submissions
	store := &replayingStore{MemorySessionStore: f.sessions}
	f.svc.sessions = store

	submissions.On("CreateIfAbsent", mock.Anything, mock.AnythingOfType("*models.Submission")).
		Return(true, nil).Once()

	resp := f.start(t, learner)
	f.answerAll(t, learner, resp.SessionID, "Yes", "5 km/h")

	store.replays = 2
	view, err := f.svc.Submit(ctx, learner, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, quiz.StateSubmitted, view.State)

	submissions.AssertNumberOfCalls(t, "CreateIfAbsent", 1)
	assert.Len(t, f.publisher.EventsOfType(events.EventSubmissionRecorded), 1)
}

func TestQuizService_SubmitCompletesAfterLostSessionSave(t *testing.T) {
	f := newQuizFixture(t, config.QuizConfig{})
	ctx := context.Background()
	store := &replayingStore{MemorySessionStore: f.sessions}
	f.svc.sessions = store

	resp := f.start(t, learner)
	f.answerAll(t, learner, resp.SessionID, "Yes", "5 km/h")

	store.replays, store.conflict = 5, true
	_, err := f.svc.Submit(ctx, learner, resp.SessionID)
	assert.ErrorIs(t, err, ErrSessionBusy)
	assert.True(t, IsConflict(err))

	_, err = f.repo.Submission().Get(ctx, learner.UserID, "sub-1")
	require.NoError(t, err)
	view, err := f.svc.GetSession(ctx, learner, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, quiz.StateViewing, view.State)
	assert.Empty(t, f.publisher.GetPublishedEvents())

	store.replays, store.conflict = 0, false
	view, err = f.svc.Submit(ctx, learner, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, quiz.StateSubmitted, view.State)
	assert.Len(t, f.repo.submissions, 1)
	assert.Len(t, f.publisher.EventsOfType(events.EventSubmissionRecorded), 1)

	// A different session for the same sub-course is still refused
	other := f.start(t, learner)
	f.answerAll(t, learner, other.SessionID, "No", "20 km/h")
	_, err = f.svc.Submit(ctx, learner, other.SessionID)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestQuizService_Ownership(t *testing.T) {
	f := newQuizFixture(t, config.QuizConfig{})
	ctx := context.Background()
	resp := f.start(t, learner)

	other := auth.Identity{UserID: "u-other", Email: "other@example.com", Role: models.RoleAdmin}
	_, err := f.svc.GetSession(ctx, other, resp.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.NextQuestion(ctx, other, resp.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, f.svc.AbandonSession(ctx, other, resp.SessionID), ErrSessionNotFound)

	require.NoError(t, f.svc.AbandonSession(ctx, learner, resp.SessionID))
	_, err = f.svc.GetSession(ctx, learner, resp.SessionID)
	assert.True(t, IsNotFound(err))
}

func TestQuizService_GoToQuestionOutOfRange(t *testing.T) {
	f := newQuizFixture(t, config.QuizConfig{})
	resp := f.start(t, learner)

	_, err := f.svc.GoToQuestion(context.Background(), learner, resp.SessionID, 5)
	assert.ErrorIs(t, err, quiz.ErrQuestionOutOfRange)
}

func TestQuizService_Submissions(t *testing.T) {
	f := newQuizFixture(t, config.QuizConfig{})
	ctx := context.Background()
	f.repo.submissions["u-dana|sub-1"] = &models.Submission{UserID: "u-dana", CourseID: "sub-1", Email: "dana@example.com"}
	f.repo.submissions["u-lee|sub-1"] = &models.Submission{UserID: "u-lee", CourseID: "sub-1", Email: "lee@example.com"}

	_, err := f.svc.GetSubmission(ctx, learner, "u-lee", "sub-1")
	assert.True(t, IsUnauthorized(err))

	got, err := f.svc.GetSubmission(ctx, admin, "u-lee", "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "lee@example.com", got.Email)

	_, err = f.svc.GetSubmission(ctx, learner, "u-dana", "sub-9")
	assert.ErrorIs(t, err, ErrSubmissionNotFound)

	own, total, err := f.svc.ListSubmissions(ctx, learner, repositories.SubmissionFilters{UserID: "u-lee"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "u-dana", own[0].UserID)

	_, total, err = f.svc.ListSubmissions(ctx, admin, repositories.SubmissionFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
