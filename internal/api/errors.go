package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/candidate-api/internal/api/middleware"
	"github.com/phrazzld/candidate-api/internal/api/shared"
	"github.com/phrazzld/candidate-api/internal/domain"
	"github.com/phrazzld/candidate-api/internal/service"
	"github.com/phrazzld/candidate-api/internal/service/auth"
	"github.com/phrazzld/candidate-api/internal/store"
	"github.com/phrazzld/candidate-api/internal/task"
)

// Client-facing messages.
const (
	MsgEmailRegistered     = "Email already registered"
	MsgCandidateEmailTaken = "A candidate with this email already exists."
	MsgInvalidCredentials  = "Invalid credentials"
	MsgCandidateNotFound   = "Candidate not found"
	MsgInvalidVerification = "Invalid or expired token"
	MsgInvalidRequestBody  = "Invalid request format"
	MsgQueueUnavailable    = "Service temporarily unavailable"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes
// without leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors
	var fieldErr *domain.ValidationError

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrMissingIdentity):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict and credential errors keep the 400 clients already handle
	case errors.Is(err, service.ErrEmailAlreadyRegistered),
		errors.Is(err, service.ErrCandidateEmailTaken),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusBadRequest

	// Validation errors
	case errors.As(err, &validationErrs),
		errors.As(err, &fieldErr),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusUnprocessableEntity

	case errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest

	case errors.Is(err, task.ErrQueueUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErrs validator.ValidationErrors
	var fieldErr *domain.ValidationError

	switch {
	case errors.Is(err, auth.ErrMissingIdentity):
		return middleware.MsgMissingEmail

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return middleware.MsgInvalidToken

	case errors.Is(err, store.ErrVerificationTokenNotFound):
		return MsgInvalidVerification

	case errors.Is(err, store.ErrCandidateNotFound):
		return MsgCandidateNotFound

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, service.ErrEmailAlreadyRegistered),
		errors.Is(err, store.ErrEmailExists):
		return MsgEmailRegistered

	case errors.Is(err, service.ErrCandidateEmailTaken),
		errors.Is(err, store.ErrCandidateEmailExists):
		return MsgCandidateEmailTaken

	case errors.Is(err, service.ErrInvalidCredentials):
		return MsgInvalidCredentials

	case errors.As(err, &fieldErr):
		return fmt.Sprintf("Invalid %s: %s", fieldErr.Field, fieldErr.Message)

	case errors.As(err, &validationErrs):
		return SanitizeValidationError(err)

	case errors.Is(err, domain.ErrValidation):
		return domainValidationMessage(err)

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"

	case errors.Is(err, task.ErrQueueUnavailable):
		return MsgQueueUnavailable

	default:
		return "An unexpected error occurred"
	}
}

// domainValidationMessage turns a domain sentinel into a field message.
func domainValidationMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyEmail):
		return "Invalid email: required field"
	case errors.Is(err, domain.ErrInvalidEmail):
		return "Invalid email: invalid email format"
	case errors.Is(err, domain.ErrEmptyName):
		return "Invalid name: required field"
	case errors.Is(err, domain.ErrNegativeExperience):
		return "Invalid experience: must be zero or greater"
	default:
		return "Validation failed"
	}
}

// HandleAPIError writes the status and safe message for err. When err maps to
// a 5xx, defaultMsg replaces the generic message and err is reported to
// monitoring.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)

	if status >= http.StatusInternalServerError {
		if status == http.StatusInternalServerError {
			message = middleware.MsgInternalError
			if defaultMsg != "" {
				message = defaultMsg
			}
		}
		shared.ReportError(r.Context(), err)
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// HandleValidationError writes a 422 with a sanitized description of the
// first invalid field.
func HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErr *domain.ValidationError
	message := SanitizeValidationError(err)
	if errors.As(err, &fieldErr) {
		message = fmt.Sprintf("Invalid %s: %s", fieldErr.Field, fieldErr.Message)
	}
	shared.RespondWithErrorAndLog(w, r, http.StatusUnprocessableEntity, message, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fe := validationErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag(), fe.Param()))
	}

	errMsg := err.Error()

	// Example format: "Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag, ""))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	if errors.Is(err, domain.ErrValidation) {
		return domainValidationMessage(err)
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag, param string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		if param != "" {
			return "must be at least " + param
		}
		return "too short"
	case "max":
		if param != "" {
			return "must be at most " + param
		}
		return "too long"
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param
	case "numeric", "number":
		return "must be an integer"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
