package errs

import "net/http"

// Failure classes. Codes follow HTTP semantics so the API layer can map
// them 1:1 and the realtime layer can reuse the same values.
const (
	CodeValidation   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeInternal     = 500
)

var (
	ErrValidation   = NewCodeError(CodeValidation, "invalid payload")
	ErrUnauthorized = NewCodeError(CodeUnauthorized, "unauthorized")
	ErrForbidden    = NewCodeError(CodeForbidden, "forbidden")
	ErrNotFound     = NewCodeError(CodeNotFound, "not found")
	ErrInternal     = NewCodeError(CodeInternal, "internal error")
)

// HTTPStatus maps an error to the status the API surface should answer with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
