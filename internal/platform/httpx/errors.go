package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors shared by the domain packages.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldErrors is implemented by errors that carry a list of validation messages.
type FieldErrors interface {
	error
	Messages() []string
}

// RespondError maps domain errors to the JSON failure envelope. Unknown errors
// become a 500 with fallback as message; the raw error is attached only when
// exposeDetail is set.
func RespondError(w http.ResponseWriter, err error, fallback string, exposeDetail bool) {
	var fields FieldErrors
	switch {
	case errors.As(err, &fields):
		ValidationFailed(w, fields.Messages())
	case errors.Is(err, ErrNotFound):
		Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate):
		Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation):
		Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrForbidden):
		Fail(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrUnauthorized):
		Fail(w, http.StatusUnauthorized, err.Error())
	default:
		ServerError(w, fallback, err, exposeDetail)
	}
}
