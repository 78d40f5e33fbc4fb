package implementors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error patterns.
// These allow both errors.Is() checks and errors.As() for detailed information.
var (
	// ErrDuplicateConsumer is returned when a second consumer tries to attach.
	ErrDuplicateConsumer = errors.New("implementors: consumer already attached")

	// ErrNilConsumer is returned when Attach is called with a nil consumer.
	ErrNilConsumer = errors.New("implementors: nil consumer")

	// ErrMalformedFragment marks data-quality problems in a fragment.
	ErrMalformedFragment = errors.New("implementors: malformed fragment")

	// ErrDuplicateModule is returned under DuplicateReject when a module
	// contributes to the same capability twice.
	ErrDuplicateModule = errors.New("implementors: duplicate module fragment")
)

// DuplicateConsumerError is returned by Attach when a consumer is already
// attached. The original consumer stays authoritative.
type DuplicateConsumerError struct {
	// Attempt counts rejected attach calls, starting at 1.
	Attempt int
}

func (e *DuplicateConsumerError) Error() string {
	return fmt.Sprintf("implementors: consumer already attached (rejected attempt %d)", e.Attempt)
}

// Is implements error matching for errors.Is() checks.
// This allows: errors.Is(err, implementors.ErrDuplicateConsumer)
func (e *DuplicateConsumerError) Is(target error) bool {
	return target == ErrDuplicateConsumer
}

// MalformedFragmentWarning describes a capability or record that was skipped
// during ingestion. It is reported to a WarningHandler, never returned.
type MalformedFragmentWarning struct {
	Module     string
	Capability string
	// Record is the index of the offending record, or -1 when the whole
	// capability entry was skipped.
	Record int
	Reason string
}

func (w *MalformedFragmentWarning) Error() string {
	if w.Record < 0 {
		return fmt.Sprintf("malformed fragment from %q: capability %q: %s", w.Module, w.Capability, w.Reason)
	}
	return fmt.Sprintf("malformed fragment from %q: capability %q record %d: %s", w.Module, w.Capability, w.Record, w.Reason)
}

// Is implements error matching for errors.Is() checks.
func (w *MalformedFragmentWarning) Is(target error) bool {
	return target == ErrMalformedFragment
}

// DuplicateModuleError reports a repeated (module, capability) contribution.
type DuplicateModuleError struct {
	Module     string
	Capability string
}

func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("implementors: module %q already contributed to %q", e.Module, e.Capability)
}

// Is implements error matching for errors.Is() checks.
func (e *DuplicateModuleError) Is(target error) bool {
	return target == ErrDuplicateModule
}
