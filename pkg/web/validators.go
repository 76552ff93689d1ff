package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ValidationErrors flattens validator errors into field -> "failed on rule: <tag>".
// The boolean is false when err is not a validator.ValidationErrors.
func ValidationErrors(err error) (map[string]string, bool) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, false
	}
	errorResponse := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		// fieldErr.Tag() returns "required", "max", etc.
		errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
	}
	return errorResponse, true
}

// ValidateStruct runs v over payload and writes a 400 response when it fails.
// It reports whether the handler may proceed.
func ValidateStruct(w http.ResponseWriter, r *http.Request, logger *slog.Logger, v *validator.Validate, payload any) bool {
	err := v.Struct(payload)
	if err == nil {
		return true
	}
	if fieldErrors, ok := ValidationErrors(err); ok {
		logger.WarnContext(r.Context(), "Validation errors occurred", "errors", fieldErrors)
		RespondJSON(w, logger, http.StatusBadRequest, map[string]any{"validation_errors": fieldErrors})
		return false
	}
	logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
	RespondError(w, logger, http.StatusBadRequest, "Invalid request body")
	return false
}
