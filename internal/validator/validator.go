package validator

import (
	"reflect"
	"strings"

	apperrors "github.com/SAP-F-2025/marking-service/internal/errors"
	"github.com/SAP-F-2025/marking-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator combines struct-tag validation with the marking scheme rules
type Validator struct {
	structValidator *validator.Validate
	schemeValidator *SchemeValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
		schemeValidator: NewSchemeValidator(structValidator),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := apperrors.ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Scheme returns the marking scheme validator
func (v *Validator) Scheme() *SchemeValidator {
	return v.schemeValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("grading_type", validateGradingType)
	validate.RegisterValidation("pass_score", validatePassScore)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateGradingType(fl validator.FieldLevel) bool {
	return models.GradingType(fl.Field().String()).IsValid()
}

func validatePassScore(fl validator.FieldLevel) bool {
	score := fl.Field().Int()
	return score >= 0 && score <= 100
}
