package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// NotFoundError covers both a genuinely missing record and a record owned by
// someone else; callers cannot tell the two apart.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// NotFound marks the error for the controllers' status mapping.
func (e *NotFoundError) NotFound() {}

// DataIntegrityError reports an internally inconsistent test or attempt
// (unknown question type, broken section tally, illegal state). Not
// retryable; the attempt must be fixed by an operator, not resubmitted.
type DataIntegrityError struct {
	Message string
	Cause   error
}

func (e *DataIntegrityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DataIntegrityError) Unwrap() error { return e.Cause }

// StorageError wraps a transient read/write failure. Retrying the whole
// submit call is safe because of the idempotency guard.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// lookupErr translates a repository read error: a missing row becomes
// NotFound, anything else is a storage failure.
func lookupErr(resource string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return &StorageError{Op: "load " + resource, Cause: err}
}
