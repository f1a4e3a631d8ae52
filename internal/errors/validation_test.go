package errors

import (
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("email", "is required", "")

	if err.Field != "email" {
		t.Errorf("Expected field to be 'email', got '%s'", err.Field)
	}

	if err.Message != "is required" {
		t.Errorf("Expected message to be 'is required', got '%s'", err.Message)
	}

	expected := "validation error on field 'email': is required"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	errs = append(errs, *NewValidationError("name", "is required", nil))
	expected := "validation failed: name is required"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	errs = append(errs, *NewValidationError("role", "must be a valid user role", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("url", "must be a valid URL", "url", "not a link")

	if err.Rule != "url" {
		t.Errorf("Expected rule to be 'url', got '%s'", err.Rule)
	}
}

type mediaRequest struct {
	Kind string `validate:"required"`
	URL  string `validate:"required,url"`
}

type sampleRequest struct {
	Name  string         `validate:"required"`
	Media []mediaRequest `validate:"dive"`
}

func TestToValidationErrors(t *testing.T) {
	v := validator.New()
	err := v.Struct(sampleRequest{Media: []mediaRequest{{Kind: "image", URL: "nope"}}})

	errs := ToValidationErrors(err)
	if len(errs) != 2 {
		t.Fatalf("Expected 2 errors, got %d: %v", len(errs), errs)
	}
	if errs[0].Field != "Name" || errs[0].Message != "is required" {
		t.Errorf("Unexpected first error: %+v", errs[0])
	}
	if errs[1].Field != "Media[0].URL" || errs[1].Rule != "url" {
		t.Errorf("Unexpected second error: %+v", errs[1])
	}

	wrapped := fmt.Errorf("create media: %w", errs)
	if got := ToValidationErrors(wrapped); len(got) != 2 {
		t.Errorf("Expected wrapped ValidationErrors to pass through, got %v", got)
	}

	if got := ToValidationErrors(fmt.Errorf("boom")); got != nil {
		t.Errorf("Expected nil for unrelated error, got %v", got)
	}
}
