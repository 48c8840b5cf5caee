package consolidate

import (
	"errors"
	"fmt"
)

// ErrNoSurvivors is returned by Merge when given no baselines.
var ErrNoSurvivors = errors.New("merge: no surviving baselines")

// ErrorKind categorizes consolidation failures.
type ErrorKind string

const (
	// KindQuery indicates the log could not be read.
	KindQuery ErrorKind = "QUERY_FAILED"

	// KindUnknownSchemaVersion indicates a baseline carries a schema
	// version tag the current schema does not recognize.
	KindUnknownSchemaVersion ErrorKind = "UNKNOWN_SCHEMA_VERSION"

	// KindPersist indicates a commit of the log failed.
	KindPersist ErrorKind = "PERSIST_FAILED"

	// KindInvalidInput indicates the pipeline was handed inconsistent data.
	KindInvalidInput ErrorKind = "INVALID_INPUT"
)

// Error is the terminal error of a consolidation run.
type Error struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Step is the state the run failed in.
	Step State

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (step=%s): %v", e.Kind, e.Message, e.Step, e.Err)
	}
	return fmt.Sprintf("%s: %s (step=%s)", e.Kind, e.Message, e.Step)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsQueryError returns true if the log could not be read.
// Uses errors.As to handle wrapped errors.
func IsQueryError(err error) bool {
	return hasKind(err, KindQuery)
}

// IsUnknownSchemaVersionError returns true if a baseline's schema version
// was not recognized. No mutation happens before this check.
func IsUnknownSchemaVersionError(err error) bool {
	return hasKind(err, KindUnknownSchemaVersion)
}

// IsPersistenceError returns true if a commit failed.
func IsPersistenceError(err error) bool {
	return hasKind(err, KindPersist)
}

func hasKind(err error, kind ErrorKind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}
