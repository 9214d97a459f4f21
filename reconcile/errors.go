package reconcile

import (
	"errors"
	"fmt"
	"time"

	"github.com/burnedikt/diasend-nightscout-bridge/diasend"
)

var (
	// ErrMalformedValue is a data quality problem of a single source record.
	ErrMalformedValue = errors.New("malformed value")
	// ErrAmbiguousComparison means two treatments were compared for which no equality is defined.
	ErrAmbiguousComparison = errors.New("ambiguous comparison")
	// ErrCollaborator is a failure of the source or the destination.
	ErrCollaborator = errors.New("collaborator failure")
)

type MalformedValueError struct {
	Kind  diasend.Kind
	Value string
	Time  time.Time
	Err   error
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("malformed %s value %q at %s: %v", e.Kind, e.Value, e.Time.Format(time.RFC3339), e.Err)
}

func (e *MalformedValueError) Is(target error) bool {
	return target == ErrMalformedValue
}

func (e *MalformedValueError) Unwrap() error {
	return e.Err
}

type CollaboratorError struct {
	Operation string
	From      time.Time
	To        time.Time
	Err       error
}

func (e *CollaboratorError) Error() string {
	if e.From.IsZero() && e.To.IsZero() {
		return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s [%s, %s] failed: %v", e.Operation, e.From.Format(time.RFC3339), e.To.Format(time.RFC3339), e.Err)
}

func (e *CollaboratorError) Is(target error) bool {
	return target == ErrCollaborator
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

func collaboratorError(operation string, from, to time.Time, err error) error {
	return &CollaboratorError{Operation: operation, From: from, To: to, Err: err}
}
