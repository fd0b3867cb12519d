package errors

import (
	"net/http"
	"strings"
)

// GenericPredictionMessage is shown for every failure that is not a validation problem.
const GenericPredictionMessage = "prediction failed"

// HTTPStatus maps an error to the status code returned by the API.
func HTTPStatus(err error) int {
	stdErr, ok := AsStandardError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch {
	case IsValidation(stdErr.Code):
		return http.StatusUnprocessableEntity
	case stdErr.Code == ErrCodeResultNotFound:
		return http.StatusNotFound
	case stdErr.Code == ErrCodeSearchQueryFailed, stdErr.Code == ErrCodeResultStoreFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage converts an error into the text shown to the end user. Validation
// errors keep their message and any context added by wrapping ("row 3: ...");
// everything else collapses to GenericPredictionMessage.
func UserMessage(err error) string {
	stdErr, ok := AsStandardError(err)
	if !ok {
		return GenericPredictionMessage
	}
	switch {
	case IsValidation(stdErr.Code):
		msg := stdErr.Message
		if stdErr.Details != "" {
			msg += ": " + stdErr.Details
		}
		return wrapPrefix(err, stdErr) + msg
	case stdErr.Code == ErrCodeResultNotFound:
		return stdErr.Message
	default:
		return GenericPredictionMessage
	}
}

// wrapPrefix returns the text fmt.Errorf("...: %w") put in front of stdErr.
func wrapPrefix(err error, stdErr *StandardError) string {
	outer, inner := err.Error(), stdErr.Error()
	if outer == inner || !strings.HasSuffix(outer, inner) {
		return ""
	}
	return strings.TrimSuffix(outer, inner)
}
