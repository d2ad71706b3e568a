package utils

import (
	"reflect"
	"strings"

	apperrors "github.com/brightmind-edu/tutor-journey-service/internal/errors"
	"github.com/brightmind-edu/tutor-journey-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Custom validation functions

func ValidateQuestionType(fl validator.FieldLevel) bool {
	validTypes := []models.QuestionType{
		models.MCSA,
		models.MCMA,
		models.TrueFalse,
		models.FillInBlank,
		models.WordMatch,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func ValidateQuizType(fl validator.FieldLevel) bool {
	validTypes := []models.QuizType{
		models.QuizDiagnostic,
		models.QuizPop,
		models.QuizProgressCheck,
		models.QuizFinalAssessment,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func ValidateDifficultyLevel(fl validator.FieldLevel) bool {
	validLevels := []models.DifficultyLevel{
		models.DifficultyBeginner,
		models.DifficultyIntermediate,
		models.DifficultyAdvanced,
	}

	value := fl.Field().String()
	for _, validLevel := range validLevels {
		if string(validLevel) == value {
			return true
		}
	}
	return false
}

// Validator wraps the underlying validate instance and converts its raw
// field errors to the shared validation error type.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a validator with all custom rules registered.
func NewValidator() *Validator {
	validate := validator.New()
	RegisterCustomValidators(validate)
	return &Validator{validate: validate}
}

// Validate checks a struct against its validate tags.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		if converted := apperrors.ToValidationErrors(err); len(converted) > 0 {
			return converted
		}
		return err
	}
	return nil
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", ValidateQuestionType)
	validate.RegisterValidation("quiz_type", ValidateQuizType)
	validate.RegisterValidation("difficulty_level", ValidateDifficultyLevel)

	// Use json tag names in error messages.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
