package validator

import (
	"reflect"
	"strings"

	"github.com/astromirror/quiz-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps the struct validator with the quiz-specific custom tags
// registered once.
type Validator struct {
	structValidator *validator.Validate
}

// New creates the shared validator instance.
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{structValidator: structValidator}
}

// Validate validates struct tags and returns normalized validation errors.
func (v *Validator) Validate(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if ve := ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("scoring_dimension", validateScoringDimension)
	validate.RegisterValidation("element_key", validateElementKey)
	validate.RegisterValidation("modality_key", validateModalityKey)
	validate.RegisterValidation("orientation_key", validateOrientationKey)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validation functions

func validateScoringDimension(fl validator.FieldLevel) bool {
	return models.IsValidDimension(models.ScoringDimension(fl.Field().String()))
}

func validateElementKey(fl validator.FieldLevel) bool {
	return dimensionInGroup(fl.Field().String(), models.ElementDimensions)
}

func validateModalityKey(fl validator.FieldLevel) bool {
	return dimensionInGroup(fl.Field().String(), models.ModalityDimensions)
}

func validateOrientationKey(fl validator.FieldLevel) bool {
	return dimensionInGroup(fl.Field().String(), models.OrientationDimensions)
}

func dimensionInGroup(value string, group []models.ScoringDimension) bool {
	for _, dim := range group {
		if string(dim) == value {
			return true
		}
	}
	return false
}
