package validator

import (
	"bikerent/pkg/logger"
	"bikerent/pkg/model"
	"bikerent/pkg/sanitizer"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type RentalValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewRentalValidator(log *logger.Logger) *RentalValidator {
	v := validator.New()

	if err := v.RegisterValidation("tax_id", validateTaxID); err != nil {
		log.Fatal("Failed to register 'tax_id' validator",
			"error", err,
		)
	}

	log.Debug("Rental validator initialized successfully")

	return &RentalValidator{
		validate: v,
		logger:   log,
	}
}

func validateTaxID(fl validator.FieldLevel) bool {
	return IsValidTaxID(fl.Field().String())
}

// IsValidTaxID checks a Brazilian CPF: 11 digits once '.' and '-' are stripped,
// not all equal, with both mod-11 check digits correct.
func IsValidTaxID(taxID string) bool {
	for _, r := range taxID {
		if (r < '0' || r > '9') && r != '.' && r != '-' {
			return false
		}
	}

	digits := sanitizer.TaxIDDigits(taxID)
	if len(digits) != 11 {
		return false
	}

	if strings.Count(digits, digits[:1]) == len(digits) {
		return false
	}

	d := make([]int, 11)
	for i, r := range digits {
		d[i] = int(r - '0')
	}

	return checkDigit(d[:9]) == d[9] && checkDigit(d[:10]) == d[10]
}

func checkDigit(d []int) int {
	sum := 0
	weight := len(d) + 1
	for _, n := range d {
		sum += n * weight
		weight--
	}
	r := (sum * 10) % 11
	if r == 10 {
		return 0
	}
	return r
}

func (v *RentalValidator) ValidateRequest(req *model.RentalRequest) error {
	return v.validateStruct(req)
}

func (v *RentalValidator) ValidateReturn(req *model.ReturnRequest) error {
	return v.validateStruct(req)
}

func (v *RentalValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *RentalValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
		case "lte":
			message = fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "tax_id":
			message = fmt.Sprintf("%s must be a valid CPF (e.g., 047.835.850-40)", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
