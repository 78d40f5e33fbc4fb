package loader

import (
	"log/slog"

	"github.com/reglet-dev/reglet-docindex/implementors"
	"github.com/reglet-dev/reglet-docindex/manifest"
)

const (
	// DefaultMaxFileBytes bounds a single producer file.
	DefaultMaxFileBytes int64 = 8 << 20

	// DefaultWorkers is the number of files read and parsed at once.
	DefaultWorkers = 4

	// DefaultFormat is the producer format version written to new manifests.
	DefaultFormat = "1.0.0"
)

// Default glob patterns, relative to the tree root.
var (
	DefaultImplementorsPatterns = []string{
		"implementors/**/*.js",
		"fragments/implementors/**/*.{json,yaml,yml}",
	}
	DefaultSidebarPatterns = []string{
		"**/sidebar-items.js",
		"fragments/sidebar/**/*.{json,yaml,yml}",
	}
)

// Option configures a Loader.
type Option func(*Loader)

// WithImplementorsPatterns replaces the globs matching implementors files.
func WithImplementorsPatterns(patterns ...string) Option {
	return func(l *Loader) {
		if len(patterns) > 0 {
			l.implementorsPatterns = patterns
		}
	}
}

// WithSidebarPatterns replaces the globs matching sidebar files.
func WithSidebarPatterns(patterns ...string) Option {
	return func(l *Loader) {
		if len(patterns) > 0 {
			l.sidebarPatterns = patterns
		}
	}
}

// WithMaxFileBytes sets the per-file size limit.
func WithMaxFileBytes(n int64) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxFileBytes = n
		}
	}
}

// WithWorkers sets how many files are read and parsed concurrently.
func WithWorkers(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithManifest checks every file against m before it is parsed.
func WithManifest(m *manifest.Manifest) Option {
	return func(l *Loader) {
		l.manifest = m
	}
}

// WithFormatConstraint sets the semver constraint the manifest format
// must satisfy.
func WithFormatConstraint(constraint string) Option {
	return func(l *Loader) {
		l.formatConstraint = constraint
	}
}

// WithFormat sets the format version recorded by BuildManifest.
func WithFormat(version string) Option {
	return func(l *Loader) {
		if version != "" {
			l.format = version
		}
	}
}

// WithStrictIntegrity turns manifest mismatches into load errors instead
// of skipped files.
func WithStrictIntegrity(strict bool) Option {
	return func(l *Loader) {
		l.strict = strict
	}
}

// WithWarningHandler receives malformed record warnings found while parsing.
func WithWarningHandler(h implementors.WarningHandler) Option {
	return func(l *Loader) {
		if h != nil {
			l.warnings = h
		}
	}
}

// WithLogger sets the loader logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}
