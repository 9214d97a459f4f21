package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	NotFound            = HttpError{http.StatusNotFound, errors.New("not found")}
	BadRequest          = HttpError{http.StatusBadRequest, errors.New("bad request")}
	Unauthorized        = HttpError{http.StatusUnauthorized, errors.New("unauthorized")}
	Forbidden           = HttpError{http.StatusForbidden, errors.New("forbidden")}
	Conflict            = HttpError{http.StatusConflict, errors.New("conflict")}
	ConstraintViolation = HttpError{http.StatusUnprocessableEntity, errors.New("constraint violation")}
	TooManyRequests     = HttpError{http.StatusTooManyRequests, errors.New("too many requests")}
	InternalServerError = HttpError{http.StatusInternalServerError, errors.New("internal server error")}
	BadGateway          = HttpError{http.StatusBadGateway, errors.New("bad gateway")}
	ServiceUnavailable  = HttpError{http.StatusServiceUnavailable, errors.New("service unavailable")}
)

var known = []HttpError{
	NotFound,
	BadRequest,
	Unauthorized,
	Forbidden,
	Conflict,
	ConstraintViolation,
	TooManyRequests,
	InternalServerError,
	BadGateway,
	ServiceUnavailable,
}

type HttpError struct {
	Code int
	Err  error
}

func (h HttpError) Unwrap() error {
	return h.Err
}

func (h HttpError) Error() string {
	return h.Err.Error()
}

// Is matches any HttpError with the same status code.
func (h HttpError) Is(target error) bool {
	var t HttpError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == h.Code
}

// FromResponse builds an error for a non-2xx upstream response. The body is
// kept in the message since upstream services report the reason there.
func FromResponse(code int, body []byte) error {
	for _, k := range known {
		if k.Code == code {
			return HttpError{Code: code, Err: fmt.Errorf("%w: %s", k.Err, string(body))}
		}
	}
	return HttpError{Code: code, Err: fmt.Errorf("unexpected status %d: %s", code, string(body))}
}

// IsRetryable reports whether the error is a transient upstream condition.
func IsRetryable(err error) bool {
	var h HttpError
	if !errors.As(err, &h) {
		return false
	}
	return h.Code == http.StatusTooManyRequests || h.Code >= http.StatusInternalServerError
}
