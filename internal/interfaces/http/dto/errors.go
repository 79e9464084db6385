package dto

import (
	"errors"
	"net/http"

	"github.com/retailops/backend/internal/domain/shared"
)

// Transport-level codes. Domain failures reuse shared.DomainError codes so
// clients see the same code the services raise.
const (
	CodeInternal        = "INTERNAL_ERROR"
	CodeBadRequest      = "BAD_REQUEST"
	CodeInvalidJSON     = "INVALID_JSON"
	CodeRequestTooLarge = "REQUEST_TOO_LARGE"
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeConflict        = "CONFLICT"
)

// codeStatus maps error codes to HTTP status codes. State-machine and
// invariant violations are client errors (400); duplicates are 409.
var codeStatus = map[string]int{
	shared.CodeValidation:          http.StatusBadRequest,
	shared.CodeAlreadyProcessed:    http.StatusBadRequest,
	shared.CodeAlreadySettled:      http.StatusBadRequest,
	shared.CodeInvalidTransition:   http.StatusBadRequest,
	shared.CodeInsufficientStock:   http.StatusBadRequest,
	shared.CodeInsufficientBalance: http.StatusBadRequest,
	shared.CodeOverpayment:         http.StatusBadRequest,
	shared.CodeNotFound:            http.StatusNotFound,
	shared.CodeForbidden:           http.StatusForbidden,
	shared.CodeUnauthorized:        http.StatusUnauthorized,
	shared.CodeAlreadyExists:       http.StatusConflict,
	shared.CodeConcurrencyConflict: http.StatusConflict,
	shared.CodeDuplicateRequest:    http.StatusConflict,

	CodeInternal:        http.StatusInternalServerError,
	CodeBadRequest:      http.StatusBadRequest,
	CodeInvalidJSON:     http.StatusBadRequest,
	CodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	CodeTokenExpired:    http.StatusUnauthorized,
	CodeConflict:        http.StatusConflict,
}

// HTTPStatus returns the status for code, 500 when the code is unknown.
func HTTPStatus(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError classifies err for a response. Domain errors keep their code
// and message; anything else becomes an opaque INTERNAL_ERROR and expose is
// false so the caller knows to log it.
func FromError(err error) (status int, info ErrorInfo, expose bool) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status = HTTPStatus(domainErr.Code)
		if status != http.StatusInternalServerError {
			return status, ErrorInfo{Code: domainErr.Code, Message: domainErr.Message}, true
		}
	}
	return http.StatusInternalServerError, ErrorInfo{Code: CodeInternal, Message: "internal server error"}, false
}
