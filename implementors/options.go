package implementors

import (
	"fmt"
	"log/slog"
	"strings"
)

// DuplicatePolicy controls what happens when a module contributes to the
// same capability more than once.
type DuplicatePolicy string

const (
	// DuplicateAppend ingests the repeat as-is; records appear twice.
	DuplicateAppend DuplicatePolicy = "append"
	// DuplicateSkip drops repeated (module, capability) entries.
	DuplicateSkip DuplicatePolicy = "skip"
	// DuplicateReject fails the whole fragment with a DuplicateModuleError.
	DuplicateReject DuplicatePolicy = "reject"
)

// ParseDuplicatePolicy parses a policy name. The empty string means append.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DuplicateAppend, nil
	case DuplicateAppend, DuplicateSkip, DuplicateReject:
		return p, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q (want append, skip or reject)", s)
	}
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registry events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDuplicatePolicy sets the duplicate module policy.
func WithDuplicatePolicy(policy DuplicatePolicy) Option {
	return func(r *Registry) {
		if policy != "" {
			r.policy = policy
		}
	}
}

// WithWarningHandler sets the handler for skipped fragment data.
func WithWarningHandler(handler WarningHandler) Option {
	return func(r *Registry) {
		if handler != nil {
			r.warnings = handler
		}
	}
}
