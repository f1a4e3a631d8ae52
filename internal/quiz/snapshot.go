package quiz

import (
	"fmt"
	"slices"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/models"
)

// Snapshot is the serializable form of a Session, stored between requests.
type Snapshot struct {
	State         State              `json:"state"`
	Ref           CourseRef          `json:"ref"`
	SubCourse     *models.SubCourse  `json:"sub_course,omitempty"`
	MediaOrder    MediaOrder         `json:"media_order"`
	MediaIndex    int                `json:"media_index"`
	QuestionIndex int                `json:"question_index"`
	Answers       []*string          `json:"answers"`
	StartedAt     time.Time          `json:"started_at"`
	Submission    *models.Submission `json:"submission,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		State:         s.state,
		Ref:           s.ref,
		SubCourse:     s.subCourse,
		MediaOrder:    s.mediaOrder,
		MediaIndex:    s.media.Index(),
		QuestionIndex: s.questionIndex,
		Answers:       slices.Clone(s.answers),
		StartedAt:     s.startedAt,
		Submission:    s.submission,
	}
}

// Restore rebuilds a Session from a snapshot.
func Restore(snap Snapshot) (*Session, error) {
	s := NewSession(snap.StartedAt, snap.MediaOrder)
	s.state = snap.State
	s.ref = snap.Ref
	s.submission = snap.Submission

	if snap.State == StateLoading {
		return s, nil
	}
	if snap.SubCourse == nil {
		return nil, fmt.Errorf("snapshot in state %s has no sub-course", snap.State)
	}

	s.attach(snap.SubCourse)
	if len(snap.Answers) > len(s.answers) {
		return nil, fmt.Errorf("snapshot has %d answers for %d questions", len(snap.Answers), len(s.answers))
	}
	copy(s.answers, snap.Answers)

	if total := s.TotalQuestions(); total > 0 && (snap.QuestionIndex < 0 || snap.QuestionIndex >= total) {
		return nil, fmt.Errorf("snapshot question index %d: %w", snap.QuestionIndex, ErrQuestionOutOfRange)
	}
	s.questionIndex = snap.QuestionIndex
	s.media.Seek(snap.MediaIndex)
	return s, nil
}
