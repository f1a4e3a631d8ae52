package validator

import (
	"errors"
	"testing"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addUserRequest struct {
	Email string          `json:"email" validate:"required,email"`
	Role  models.UserRole `json:"role" validate:"required,user_role"`
}

type addMediaRequest struct {
	Kind models.MediaKind `json:"kind" validate:"required,media_kind"`
	URL  string           `json:"url" validate:"required,url"`
}

func TestValidate_CustomTags(t *testing.T) {
	v := New(false)

	assert.NoError(t, v.Validate(addUserRequest{Email: "a@example.com", Role: models.RoleSuperAdmin}))
	assert.NoError(t, v.Validate(addMediaRequest{Kind: models.MediaVideo, URL: "https://example.com/v.mp4"}))

	err := v.Validate(addUserRequest{Email: "a@example.com", Role: "owner"})
	var errs ValidationErrors
	require.True(t, errors.As(err, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "role", errs[0].Field)
	assert.Equal(t, "user_role", errs[0].Rule)

	err = v.Validate(addMediaRequest{Kind: "audio", URL: "https://example.com"})
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, "kind", errs[0].Field)
}

func TestVar(t *testing.T) {
	v := New(false)

	assert.NoError(t, v.Var("email", "dana@example.com", "required,email"))

	err := v.Var("email", "dana", "required,email")
	var errs ValidationErrors
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, "email", errs[0].Field)
}

func TestValidateQuestions(t *testing.T) {
	valid := models.Question{Text: "Where is the exit?", Answers: []models.Answer{
		{Text: "Left", Correct: true},
		{Text: "Right"},
	}}

	assert.NoError(t, NewQuestionValidator(false).ValidateQuestions([]models.Question{valid}))
	assert.NoError(t, NewQuestionValidator(false).ValidateQuestions(nil))

	invalid := []models.Question{
		{Text: " ", Answers: []models.Answer{{Text: "a"}, {Text: "a"}}},
		{Text: "No answers"},
	}
	err := NewQuestionValidator(false).ValidateQuestions(invalid)
	var errs ValidationErrors
	require.True(t, errors.As(err, &errs))

	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	assert.Equal(t, []string{"questions[0].text", "questions[0].answers[1].text", "questions[1].answers"}, fields)
}

func TestValidateQuestions_StrictAnswerKeys(t *testing.T) {
	multi := models.Question{Text: "Pick", Answers: []models.Answer{
		{Text: "a", Correct: true},
		{Text: "b", Correct: true},
	}}
	none := models.Question{Text: "Pick", Answers: []models.Answer{{Text: "a"}}}

	assert.NoError(t, NewQuestionValidator(false).ValidateQuestions([]models.Question{multi, none}))

	err := NewQuestionValidator(true).ValidateQuestions([]models.Question{multi, none})
	var errs ValidationErrors
	require.True(t, errors.As(err, &errs))
	require.Len(t, errs, 2)
	assert.Equal(t, "multiple_correct", errs[0].Value)
	assert.Equal(t, "no_correct", errs[1].Value)
}
