// Package manifest pins the producer files of a documentation tree so a
// later load can detect changed or substituted fragments.
package manifest

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// CurrentVersion is the manifest schema version written by New.
const CurrentVersion = 1

// FileKind says which table a producer file feeds.
type FileKind string

const (
	KindImplementors FileKind = "implementors"
	KindSidebar      FileKind = "sidebar"
)

// ErrDigestRequired is returned when a file entry has no digest.
var ErrDigestRequired = errors.New("digest is required")

// DigestMismatchError reports file content that no longer matches its pin.
type DigestMismatchError struct {
	Path     string
	Expected Digest
	Actual   Digest
}

func (e *DigestMismatchError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("digest mismatch: expected %s, got %s", e.Expected, e.Actual)
	}
	return fmt.Sprintf("%s: digest mismatch: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

// Manifest is the aggregate of pinned producer files.
//
// Invariants:
// - Each file entry has a digest
// - Generated is set once any file is pinned
type Manifest struct {
	Generated time.Time
	Files     map[string]FileLock
	Format    string
	Version   int
}

// FileLock pins one producer file.
type FileLock struct {
	Kind   FileKind
	Digest Digest
	Size   int64
}

// New creates an empty manifest for the given producer format version.
func New(format string) *Manifest {
	return &Manifest{
		Version:   CurrentVersion,
		Generated: time.Now().UTC(),
		Format:    format,
		Files:     make(map[string]FileLock),
	}
}

// AddFile pins path. Returns an error if the digest is missing.
func (m *Manifest) AddFile(path string, lock FileLock) error {
	if lock.Digest.IsZero() {
		return fmt.Errorf("file %q: %w", path, ErrDigestRequired)
	}
	if m.Files == nil {
		m.Files = make(map[string]FileLock)
	}
	m.Files[path] = lock
	return nil
}

// File returns the pin for path, or nil.
func (m *Manifest) File(path string) *FileLock {
	if m == nil || m.Files == nil {
		return nil
	}
	if lock, ok := m.Files[path]; ok {
		return &lock
	}
	return nil
}

// Paths returns the pinned paths in sorted order.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.Files))
	for p := range m.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// FileCount returns the number of pinned files.
func (m *Manifest) FileCount() int {
	return len(m.Files)
}

// Verify checks data against the pin for path. Unpinned paths pass.
func (m *Manifest) Verify(path string, data []byte) error {
	lock := m.File(path)
	if lock == nil {
		return nil
	}
	if err := lock.Digest.Verify(data); err != nil {
		var mismatch *DigestMismatchError
		if errors.As(err, &mismatch) {
			mismatch.Path = path
			return mismatch
		}
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Validate checks manifest invariants.
func (m *Manifest) Validate() error {
	if m.FileCount() > 0 && m.Generated.IsZero() {
		return fmt.Errorf("generated timestamp is required")
	}
	if m.Version > CurrentVersion {
		return fmt.Errorf("manifest version %d is newer than supported version %d", m.Version, CurrentVersion)
	}
	for _, path := range m.Paths() {
		lock := m.Files[path]
		if lock.Digest.IsZero() {
			return fmt.Errorf("file %q: %w", path, ErrDigestRequired)
		}
		switch lock.Kind {
		case KindImplementors, KindSidebar:
		default:
			return fmt.Errorf("file %q: unknown kind %q", path, lock.Kind)
		}
	}
	return nil
}
