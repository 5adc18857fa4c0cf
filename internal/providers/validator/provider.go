package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"medibook/pkg/logger"
	"medibook/pkg/model"
	"medibook/pkg/timeslot"
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

type ProviderValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewProviderValidator(log *logger.Logger) *ProviderValidator {
	v := validator.New()

	if err := v.RegisterValidation("time_of_day", validateTimeOfDay); err != nil {
		log.Fatal("Failed to register 'time_of_day' validator", "error", err)
	}

	log.Info("Provider validator initialized successfully")

	return &ProviderValidator{
		validate: v,
		logger:   log,
	}
}

// validateTimeOfDay accepts zero-padded 24-hour clock strings ("09:00").
// Schedule bounds are stored in this form only; the 12-hour form is an
// appointment-level concern.
func validateTimeOfDay(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return true
	}
	_, err := timeslot.Parse24(value)
	return err == nil
}

func (v *ProviderValidator) Validate(p *model.Provider) error {
	if err := v.validate.Struct(p); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return v.validateWindow(p.Availability.StartTime, p.Availability.EndTime)
}

func (v *ProviderValidator) ValidateUpdate(u *model.AvailabilityUpdate) error {
	if err := v.validate.Struct(u); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// validateWindow enforces start < end once both bounds are present.
func (v *ProviderValidator) validateWindow(start, end string) error {
	if start == "" || end == "" {
		return nil
	}

	startTod, err := timeslot.Parse24(start)
	if err != nil {
		return ValidationErrors{{Field: "StartTime", Message: "start_time must be in HH:MM 24-hour format"}}
	}
	endTod, err := timeslot.Parse24(end)
	if err != nil {
		return ValidationErrors{{Field: "EndTime", Message: "end_time must be in HH:MM 24-hour format"}}
	}

	if startTod >= endTod {
		return ValidationErrors{{Field: "EndTime", Message: "end_time must be after start_time"}}
	}
	return nil
}

func (v *ProviderValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be a valid E.164 phone number", err.Field())
		case "time_of_day":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
