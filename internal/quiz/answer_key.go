package quiz

import "github.com/SAP-F-2025/learning-service/internal/models"

type KeyKind int

const (
	NoCorrect KeyKind = iota
	SingleCorrect
	MultipleCorrect
)

func (k KeyKind) String() string {
	switch k {
	case SingleCorrect:
		return "single_correct"
	case MultipleCorrect:
		return "multiple_correct"
	default:
		return "no_correct"
	}
}

// AnswerKey describes which answers of a question are flagged correct.
type AnswerKey struct {
	Kind    KeyKind
	Indices []int
}

// KeyOf classifies the correct flags of a question.
func KeyOf(q models.Question) AnswerKey {
	var indices []int
	for i, a := range q.Answers {
		if a.Correct {
			indices = append(indices, i)
		}
	}

	switch len(indices) {
	case 0:
		return AnswerKey{Kind: NoCorrect}
	case 1:
		return AnswerKey{Kind: SingleCorrect, Indices: indices}
	default:
		return AnswerKey{Kind: MultipleCorrect, Indices: indices}
	}
}

// Index returns the correct answer index of a single-correct key.
func (k AnswerKey) Index() (int, bool) {
	if k.Kind != SingleCorrect {
		return 0, false
	}
	return k.Indices[0], true
}
