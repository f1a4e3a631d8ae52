package validator

import (
	"fmt"
	"strings"

	apperrors "github.com/SAP-F-2025/learning-service/internal/errors"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/quiz"
)

type (
	ValidationError  = apperrors.ValidationError
	ValidationErrors = apperrors.ValidationErrors
)

// QuestionValidator checks the content of a sub-course question list
type QuestionValidator struct {
	strictAnswerKeys bool
}

// NewQuestionValidator returns a validator. With strictAnswerKeys every
// question needs exactly one correct answer.
func NewQuestionValidator(strictAnswerKeys bool) *QuestionValidator {
	return &QuestionValidator{strictAnswerKeys: strictAnswerKeys}
}

func (v *QuestionValidator) ValidateQuestions(questions []models.Question) error {
	var errs ValidationErrors
	for i, q := range questions {
		errs = append(errs, v.validateQuestion(i, q)...)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *QuestionValidator) validateQuestion(index int, q models.Question) ValidationErrors {
	var errs ValidationErrors
	prefix := fmt.Sprintf("questions[%d]", index)

	if strings.TrimSpace(q.Text) == "" {
		errs = append(errs, *NewValidationErrorWithRule(prefix+".text", "is required", "required", q.Text))
	}
	if len(q.Answers) == 0 {
		errs = append(errs, *NewValidationErrorWithRule(prefix+".answers", "must have at least one answer", "min", nil))
		return errs
	}

	seen := make(map[string]bool, len(q.Answers))
	for j, a := range q.Answers {
		field := fmt.Sprintf("%s.answers[%d].text", prefix, j)
		text := strings.TrimSpace(a.Text)
		switch {
		case text == "":
			errs = append(errs, *NewValidationErrorWithRule(field, "is required", "required", a.Text))
		case seen[text]:
			// Answers are recorded by text, so duplicates would be indistinguishable
			errs = append(errs, *NewValidationErrorWithRule(field, "duplicates another answer", "unique", a.Text))
		}
		seen[text] = true
	}

	if v.strictAnswerKeys {
		if key := quiz.KeyOf(q); key.Kind != quiz.SingleCorrect {
			errs = append(errs, *NewValidationErrorWithRule(prefix+".answers", "must have exactly one correct answer", "single_correct", key.Kind.String()))
		}
	}
	return errs
}

func NewValidationErrorWithRule(field, message, rule string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Rule: rule, Value: value}
}
