package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// studentCodePattern matches codes like Y4D_K_123456.
var studentCodePattern = regexp.MustCompile(`^[A-Z0-9]+(_[A-Z0-9]+)*_[0-9]{6}$`)

// Validator is the main validator instance that combines all validation types
type Validator struct {
	structValidator   *validator.Validate
	businessValidator *BusinessValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		businessValidator: NewBusinessValidator(),
	}
}

// ValidateStruct validates struct tags only. Failures come back as ValidationErrors.
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// ValidateBusiness validates business rules only
func (v *Validator) ValidateBusiness(s interface{}) ValidationErrors {
	return v.businessValidator.Validate(s)
}

// Validate performs complete validation (struct + business rules)
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		return err
	}

	if errors := v.ValidateBusiness(s); len(errors) > 0 {
		return errors
	}

	return nil
}

// Business returns the business validator
func (v *Validator) Business() *BusinessValidator {
	return v.businessValidator
}

// ValidStudentCode reports whether code has the PREFIX_NNNNNN shape.
func ValidStudentCode(code string) bool {
	return studentCodePattern.MatchString(code)
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("user_role", validateUserRole)
	validate.RegisterValidation("user_status", validateUserStatus)
	validate.RegisterValidation("placement_status", validatePlacementStatus)
	validate.RegisterValidation("document_type", validateDocumentType)
	validate.RegisterValidation("student_code", validateStudentCode)
	validate.RegisterValidation("gender", validateGender)

	// Report fields by their json names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateUserRole(fl validator.FieldLevel) bool {
	return models.UserRole(fl.Field().String()).Valid()
}

func validateUserStatus(fl validator.FieldLevel) bool {
	switch models.UserStatus(fl.Field().String()) {
	case models.StatusActive, models.StatusInactive, models.StatusBlocked:
		return true
	}
	return false
}

func validatePlacementStatus(fl validator.FieldLevel) bool {
	switch models.PlacementStatus(fl.Field().String()) {
	case models.PlacementNotPlaced, models.PlacementPlaced, models.PlacementMultipleOffers:
		return true
	}
	return false
}

func validateDocumentType(fl validator.FieldLevel) bool {
	value := models.DocumentType(fl.Field().String())
	for _, t := range models.DocumentTypes {
		if t == value {
			return true
		}
	}
	return false
}

func validateStudentCode(fl validator.FieldLevel) bool {
	return ValidStudentCode(fl.Field().String())
}

func validateGender(fl validator.FieldLevel) bool {
	switch models.Gender(fl.Field().String()) {
	case models.GenderMale, models.GenderFemale, models.GenderOther:
		return true
	}
	return false
}
