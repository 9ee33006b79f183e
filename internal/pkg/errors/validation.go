package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validationMessages = map[string]string{
	"required": "This field is required.",
	"email":    "Enter a valid email address.",
	"eqfield":  "The two password fields didn't match.",
	"oneof":    "Select a valid choice.",
}

// FromValidator converts validator.ValidationErrors into a validation AppError.
// Other errors are returned as a generic bad request.
func FromValidator(err error) *AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Wrap(err, CodeValidationFailed, "the submitted form is invalid", http.StatusBadRequest)
	}

	fieldErrors := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   fe.Field(),
			Code:    fe.Tag(),
			Message: validationMessage(fe),
		})
	}
	return Validation(fieldErrors...)
}

func validationMessage(fe validator.FieldError) string {
	if msg, ok := validationMessages[fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	}
	return "Enter a valid value."
}
