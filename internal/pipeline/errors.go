package pipeline

import (
	"errors"
	"fmt"
)

// ErrKind classifies a stage failure.
type ErrKind string

const (
	// KindValidation marks a caller-side precondition violation. The
	// request never reached the network and no state was mutated.
	KindValidation ErrKind = "validation"
	// KindQuotaExceeded marks a free-tier rate-limit rejection from the
	// server. Recoverable by granting an entitlement and retrying.
	KindQuotaExceeded ErrKind = "quota_exceeded"
	// KindRequestFailed marks any other network or server failure.
	// Recoverable by retrying the action manually.
	KindRequestFailed ErrKind = "request_failed"
)

// StageError is the failure type returned by every stage operation.
type StageError struct {
	Stage  Stage
	Kind   ErrKind
	Detail string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Detail)
}

// IsQuotaExceeded reports whether err is a free-tier quota rejection.
func IsQuotaExceeded(err error) bool {
	return kindOf(err) == KindQuotaExceeded
}

// IsValidation reports whether err is a caller-side precondition violation.
func IsValidation(err error) bool {
	return kindOf(err) == KindValidation
}

func kindOf(err error) ErrKind {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Kind
	}

	return ""
}

// detailOf extracts the human-readable detail from a stage error, falling
// back to the error string.
func detailOf(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Detail
	}

	return err.Error()
}
