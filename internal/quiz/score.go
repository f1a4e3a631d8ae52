package quiz

import (
	"math"

	"github.com/SAP-F-2025/learning-service/internal/models"
)

type Result struct {
	CorrectCount   int     `json:"correct_count"`
	TotalQuestions int     `json:"total_questions"`
	Percentage     float64 `json:"percentage"`
}

// Score compares each recorded answer against the answers flagged correct on
// its question. A match against any correct answer counts, so questions with
// several correct flags accept each of them. answers may be shorter than
// questions; missing entries count as unanswered.
func Score(questions []models.Question, answers []*string) Result {
	result := Result{TotalQuestions: len(questions)}
	for i, q := range questions {
		var answer *string
		if i < len(answers) {
			answer = answers[i]
		}
		if IsCorrect(q, answer) {
			result.CorrectCount++
		}
	}

	if result.TotalQuestions == 0 {
		return result
	}
	result.Percentage = roundTo2(float64(result.CorrectCount) / float64(result.TotalQuestions) * 100)
	return result
}

// IsCorrect reports whether answer equals the text of an answer flagged correct.
func IsCorrect(q models.Question, answer *string) bool {
	if answer == nil {
		return false
	}
	for _, a := range q.Answers {
		if a.Correct && a.Text == *answer {
			return true
		}
	}
	return false
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
