package validator

import (
	"reflect"
	"strings"

	apperrors "github.com/SAP-F-2025/learning-service/internal/errors"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator combines struct tag validation with the question content rules
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

func New(strictAnswerKeys bool) *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(strictAnswerKeys),
	}
}

// Validate checks struct tags and returns ValidationErrors on failure
func (v *Validator) Validate(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if errs := apperrors.ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Var validates a single value against a tag
func (v *Validator) Var(field string, value interface{}, tag string) error {
	if err := v.structValidator.Var(value, tag); err != nil {
		errs := apperrors.ToValidationErrors(err)
		for i := range errs {
			errs[i].Field = field
		}
		if len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("user_role", validateUserRole)
	validate.RegisterValidation("media_kind", validateMediaKind)

	// Report json names in errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch models.UserRole(fl.Field().String()) {
	case models.RoleUser, models.RoleAdmin, models.RoleSuperAdmin:
		return true
	}
	return false
}

func validateMediaKind(fl validator.FieldLevel) bool {
	switch models.MediaKind(fl.Field().String()) {
	case models.MediaImage, models.MediaVideo:
		return true
	}
	return false
}
