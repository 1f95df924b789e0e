package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"travelapi/pkg/logger"
	"travelapi/pkg/model"

	"github.com/go-playground/validator/v10"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

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

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	return &BookingValidator{
		validate: validator.New(),
		logger:   log,
	}
}

// ValidateCreate checks a booking request in a fixed order so clients get a
// stable first error: guests, then contact, then tour type, then the
// type-specific date field, then the remaining field constraints.
func (v *BookingValidator) ValidateCreate(req *model.CreateBookingRequest) error {
	if len(req.Guests) == 0 {
		return ValidationErrors{
			ValidationError{Field: "Guests", Message: "at least one guest is required"},
		}
	}

	for i, guest := range req.Guests {
		if strings.TrimSpace(guest.FullName) == "" {
			return ValidationErrors{
				ValidationError{
					Field:   "Guests",
					Message: fmt.Sprintf("guest %d is missing a full name", i+1),
				},
			}
		}
	}

	if strings.TrimSpace(req.Contact.FullName) == "" {
		return ValidationErrors{
			ValidationError{Field: "Contact.FullName", Message: "contact full name is required"},
		}
	}
	if !emailRegex.MatchString(req.Contact.Email) {
		return ValidationErrors{
			ValidationError{Field: "Contact.Email", Message: "contact email must be a valid email address"},
		}
	}

	tourType := model.TourType(req.TourType)
	if tourType != model.TourTypePrivate && tourType != model.TourTypeGroup {
		return ValidationErrors{
			ValidationError{Field: "TourType", Message: "tour_type must be one of: private, group"},
		}
	}

	switch tourType {
	case model.TourTypeGroup:
		if req.TourDateID == "" {
			return ValidationErrors{
				ValidationError{Field: "TourDateID", Message: "tour_date_id is required for group tours"},
			}
		}
	case model.TourTypePrivate:
		if req.TravelDate == nil {
			return ValidationErrors{
				ValidationError{Field: "TravelDate", Message: "travel_date is required for private tours"},
			}
		}
	}

	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
