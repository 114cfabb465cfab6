package apierrors

import (
	"errors"
	"strings"

	callsProcessor "call-server/internal/calls/processor"
	"call-server/internal/store"
	"call-server/internal/summary"
)

// MapError converts domain/processor errors to APIErrors.
//
// If the error is already an APIError, it returns it as-is.
// If the error is a known domain error, it maps it to an appropriate APIError.
// If the error is unknown, it returns a sanitized InternalError (500).
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, callsProcessor.ErrDispatchFailed):
		return BadGateway(CodeDispatchFailed, "Failed to dispatch the call. Please try again later.", err)

	case errors.Is(err, callsProcessor.ErrCallNotFound):
		return NotFound(CodeCallNotFound, "Call not found")

	case errors.Is(err, summary.ErrGenerationFailed):
		return BadGateway(CodeSummaryFailed, "Summary service is temporarily unavailable. Please try again later.", err)

	case errors.Is(err, store.ErrNotFound):
		return NotFound(CodeNotFound, "Resource not found")

	default:
		return mapExternalServiceError(err)
	}
}

// mapExternalServiceError attempts to identify external service errors
// and map them to appropriate service-specific error responses.
func mapExternalServiceError(err error) *APIError {
	errMsg := strings.ToLower(err.Error())

	// AI service errors (Gemini, OpenAI)
	if strings.Contains(errMsg, "openai") || strings.Contains(errMsg, "gemini") || strings.Contains(errMsg, "ai service") {
		return ServiceUnavailable(
			CodeSummaryFailed,
			"AI service is temporarily unavailable. Please try again later.",
			err,
		)
	}

	// Telephony bridge errors
	if strings.Contains(errMsg, "twilio") || strings.Contains(errMsg, "sip") || strings.Contains(errMsg, "dispatch") {
		return ServiceUnavailable(
			CodeDispatchFailed,
			"Telephony service is temporarily unavailable. Please try again later.",
			err,
		)
	}

	// Default: Unknown error - return sanitized 500
	return InternalError(err)
}
