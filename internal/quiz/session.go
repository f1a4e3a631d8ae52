package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/models"
)

type State string

const (
	StateLoading   State = "loading"
	StateViewing   State = "viewing"
	StateSubmitted State = "submitted"
)

// CourseRef locates a sub-course. MainCourseID comes from the query string,
// SubCourseID from the route.
type CourseRef struct {
	MainCourseID string `json:"main_course_id"`
	SubCourseID  string `json:"sub_course_id"`
}

// SubCourseLoader fetches a sub-course. Implementations return
// ErrSubCourseNotFound (possibly wrapped) when nothing exists at ref.
type SubCourseLoader interface {
	LoadSubCourse(ctx context.Context, ref CourseRef) (*models.SubCourse, error)
}

// SubmissionWriter persists a finished attempt.
type SubmissionWriter interface {
	WriteSubmission(ctx context.Context, submission *models.Submission) error
}

// Learner identifies who is taking the quiz.
type Learner struct {
	UserID string
	Email  string
	Name   string
}

// Session drives one learner through the media and questions of a sub-course.
// It is not safe for concurrent use; callers serialize access per session.
type Session struct {
	state      State
	ref        CourseRef
	subCourse  *models.SubCourse
	mediaOrder MediaOrder
	media      *MediaSequencer

	questionIndex int
	answers       []*string
	startedAt     time.Time
	submission    *models.Submission
}

// NewSession starts a session in the loading state. startedAt is the moment the
// learner opened the sub-course and is the origin of the total time.
func NewSession(startedAt time.Time, order MediaOrder) *Session {
	if order == "" {
		order = OrderGrouped
	}
	return &Session{
		state:      StateLoading,
		mediaOrder: order,
		media:      NewMediaSequencer(nil),
		startedAt:  startedAt,
	}
}

// Load fetches the sub-course and moves the session to viewing. A missing main
// course id fails before the loader is called.
func (s *Session) Load(ctx context.Context, loader SubCourseLoader, ref CourseRef) error {
	if s.state != StateLoading {
		return ErrAlreadyLoaded
	}
	if ref.MainCourseID == "" {
		return ErrMissingMainCourse
	}
	if ref.SubCourseID == "" {
		return ErrMissingSubCourse
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subCourse, err := loader.LoadSubCourse(ctx, ref)
	if err != nil {
		return fmt.Errorf("error fetching sub-course details: %w", err)
	}
	if subCourse == nil {
		return fmt.Errorf("sub-course %s in main course %s: %w", ref.SubCourseID, ref.MainCourseID, ErrSubCourseNotFound)
	}

	s.ref = ref
	s.attach(subCourse)
	s.state = StateViewing
	return nil
}

func (s *Session) attach(subCourse *models.SubCourse) {
	sorted := *subCourse
	sorted.Questions = slices.Clone(subCourse.Questions)
	slices.SortStableFunc(sorted.Questions, func(a, b models.Question) int {
		return a.Position - b.Position
	})

	s.subCourse = &sorted
	s.media = NewMediaSequencer(BuildMediaSequence(sorted.Images(), sorted.Videos(), s.mediaOrder))
	s.answers = make([]*string, len(sorted.Questions))
	s.questionIndex = 0
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Ref() CourseRef {
	return s.ref
}

func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

func (s *Session) TotalQuestions() int {
	if s.subCourse == nil {
		return 0
	}
	return len(s.subCourse.Questions)
}

func (s *Session) QuestionIndex() int {
	return s.questionIndex
}

func (s *Session) MediaIndex() int {
	return s.media.Index()
}

// Submission returns the record written on submit, or nil before that.
func (s *Session) Submission() *models.Submission {
	return s.submission
}

func (s *Session) requireViewing() error {
	switch s.state {
	case StateLoading:
		return ErrNotLoaded
	case StateSubmitted:
		return ErrSessionSubmitted
	}
	return nil
}

func (s *Session) NextMedia() error {
	if err := s.requireViewing(); err != nil {
		return err
	}
	s.media.Next()
	return nil
}

func (s *Session) PrevMedia() error {
	if err := s.requireViewing(); err != nil {
		return err
	}
	s.media.Prev()
	return nil
}

func (s *Session) NextQuestion() error {
	if err := s.requireViewing(); err != nil {
		return err
	}
	if s.questionIndex < s.TotalQuestions()-1 {
		s.questionIndex++
	}
	return nil
}

func (s *Session) PrevQuestion() error {
	if err := s.requireViewing(); err != nil {
		return err
	}
	if s.questionIndex > 0 {
		s.questionIndex--
	}
	return nil
}

// GoToQuestion jumps straight to a question, as the overview grid does.
func (s *Session) GoToQuestion(index int) error {
	if err := s.requireViewing(); err != nil {
		return err
	}
	if index < 0 || index >= s.TotalQuestions() {
		return ErrQuestionOutOfRange
	}
	s.questionIndex = index
	return nil
}

// SelectAnswer records text as the answer to the current question. The
// question index does not change.
func (s *Session) SelectAnswer(text string) error {
	if err := s.requireViewing(); err != nil {
		return err
	}
	if s.TotalQuestions() == 0 {
		return ErrQuestionOutOfRange
	}

	question := s.subCourse.Questions[s.questionIndex]
	if !slices.ContainsFunc(question.Answers, func(a models.Answer) bool { return a.Text == text }) {
		return ErrUnknownAnswer
	}

	selected := text
	s.answers[s.questionIndex] = &selected
	return nil
}

func (s *Session) AnsweredCount() int {
	count := 0
	for _, a := range s.answers {
		if a != nil {
			count++
		}
	}
	return count
}

// CanSubmit reports whether every question has a recorded answer. A sub-course
// without questions can be submitted right away.
func (s *Session) CanSubmit() bool {
	return s.state == StateViewing && s.AnsweredCount() == s.TotalQuestions()
}

// Answers returns a copy of the sparse answer sequence.
func (s *Session) Answers() []*string {
	return slices.Clone(s.answers)
}

// Result scores the answers recorded so far.
func (s *Session) Result() Result {
	if s.subCourse == nil {
		return Result{}
	}
	return Score(s.subCourse.Questions, s.answers)
}

// Submit scores the session and performs the single terminal write. When the
// write fails the session stays in viewing with its answers, so the learner
// can try again.
func (s *Session) Submit(ctx context.Context, learner Learner, now time.Time, writer SubmissionWriter) (*models.Submission, error) {
	if err := s.requireViewing(); err != nil {
		return nil, err
	}
	if !s.CanSubmit() {
		return nil, ErrSubmitNotReady
	}

	result := s.Result()
	answers, err := json.Marshal(s.answers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user answers: %w", err)
	}

	submission := &models.Submission{
		UserID:            learner.UserID,
		CourseID:          s.ref.SubCourseID,
		MainCourseID:      s.ref.MainCourseID,
		Email:             learner.Email,
		UserName:          learner.Name,
		StartTime:         s.startedAt,
		EndTime:           now,
		TotalTime:         now.Sub(s.startedAt).Seconds(),
		PercentageSuccess: result.Percentage,
		CorrectCount:      result.CorrectCount,
		TotalQuestions:    result.TotalQuestions,
		UserAnswers:       answers,
	}

	if err := writer.WriteSubmission(ctx, submission); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	s.submission = submission
	s.state = StateSubmitted
	return submission, nil
}
