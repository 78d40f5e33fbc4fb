// Package loader reads a documentation tree and feeds its producer files
// into the implementor registry and the sidebar index.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/reglet-dev/reglet-docindex/fragment"
	"github.com/reglet-dev/reglet-docindex/implementors"
	"github.com/reglet-dev/reglet-docindex/manifest"
	"github.com/reglet-dev/reglet-docindex/schema"
	"github.com/reglet-dev/reglet-docindex/sidebar"
	"github.com/reglet-dev/reglet-docindex/validation"
)

// Loader walks a tree, parses producer files concurrently, and ingests the
// results in path order so delivery order does not depend on scheduling.
type Loader struct {
	registry *implementors.Registry
	sidebar  *sidebar.Index

	implementorsPatterns []string
	sidebarPatterns      []string
	maxFileBytes         int64
	workers              int
	manifest             *manifest.Manifest
	formatConstraint     string
	format               string
	strict               bool

	validator *validation.Validator
	warnings  implementors.WarningHandler
	logger    *slog.Logger
}

// Report summarizes one Load.
type Report struct {
	// Files is the number of files whose contents reached the registry or index.
	Files int

	// Fragments is the number of fragments ingested.
	Fragments int

	// SidebarModules is the number of sidebar listings stored.
	SidebarModules int

	Skipped  []SkippedFile
	Warnings []*implementors.MalformedFragmentWarning
}

// SkippedFile is a matched file that contributed nothing.
type SkippedFile struct {
	Path   string
	Reason string
}

type sourceFile struct {
	path string
	kind manifest.FileKind
}

type parsed struct {
	digest   manifest.Digest
	frags    []implementors.Fragment
	doc      *fragment.SidebarDocument
	warnings *implementors.CollectingWarningHandler
	skip     string
}

// New creates a Loader feeding reg and side. Either may be nil, in which
// case files of that kind are matched but not ingested.
func New(reg *implementors.Registry, side *sidebar.Index, opts ...Option) *Loader {
	l := &Loader{
		registry:             reg,
		sidebar:              side,
		implementorsPatterns: DefaultImplementorsPatterns,
		sidebarPatterns:      DefaultSidebarPatterns,
		maxFileBytes:         DefaultMaxFileBytes,
		workers:              DefaultWorkers,
		format:               DefaultFormat,
		validator:            validation.NewValidator(schema.Default()),
		logger:               slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.warnings == nil {
		l.warnings = &implementors.LogWarningHandler{Logger: l.logger}
	}
	return l
}

// Files returns the producer files matched in fsys, sorted by path. A path
// matched by both pattern sets is treated as an implementors file.
func (l *Loader) Files(fsys fs.FS) ([]string, error) {
	files, err := l.collect(fsys)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

func (l *Loader) collect(fsys fs.FS) ([]sourceFile, error) {
	kinds := make(map[string]manifest.FileKind)
	groups := []struct {
		kind     manifest.FileKind
		patterns []string
	}{
		{manifest.KindImplementors, l.implementorsPatterns},
		{manifest.KindSidebar, l.sidebarPatterns},
	}
	for _, g := range groups {
		for _, pattern := range g.patterns {
			if !doublestar.ValidatePattern(pattern) {
				return nil, fmt.Errorf("invalid glob pattern %q", pattern)
			}
			matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("matching %q: %w", pattern, err)
			}
			for _, m := range matches {
				if _, ok := kinds[m]; !ok {
					kinds[m] = g.kind
				}
			}
		}
	}

	files := make([]sourceFile, 0, len(kinds))
	for p, k := range kinds {
		files = append(files, sourceFile{path: p, kind: k})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	return files, nil
}

// Load reads every matched file of fsys into the registry and sidebar index.
func (l *Loader) Load(ctx context.Context, fsys fs.FS) (*Report, error) {
	if l.manifest != nil {
		if err := manifest.CheckFormat(l.formatConstraint, l.manifest.Format); err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
	}

	files, err := l.collect(fsys)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("collected producer files", "count", len(files))

	results := make([]parsed, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := l.parse(fsys, f)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{}
	seen := make(map[string]string, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		l.ingest(f, results[i], seen, report)
	}

	l.logger.Info("loaded documentation tree",
		"files", report.Files,
		"fragments", report.Fragments,
		"sidebar_modules", report.SidebarModules,
		"skipped", len(report.Skipped),
		"warnings", len(report.Warnings))
	return report, nil
}

// identity keys a parsed file by content and by what the content targets.
// Scripts take their capability or module from the path, so equal bytes at
// different paths are different inputs.
func (p parsed) identity() string {
	var b strings.Builder
	b.WriteString(p.digest.String())
	for _, f := range p.frags {
		b.WriteString("|" + f.Module + "=" + strings.Join(f.Capabilities(), ","))
	}
	if p.doc != nil {
		b.WriteString("|sidebar=" + p.doc.Module)
	}
	return b.String()
}

// parse reads, verifies, and parses one file. It only returns an error
// when the whole load must stop.
func (l *Loader) parse(fsys fs.FS, f sourceFile) (parsed, error) {
	data, err := l.read(fsys, f.path)
	if err != nil {
		if IsSizeLimitExceededError(err) {
			return parsed{skip: err.Error()}, nil
		}
		return parsed{}, fmt.Errorf("reading %s: %w", f.path, err)
	}

	res := parsed{
		digest:   manifest.SumSHA256(data),
		warnings: &implementors.CollectingWarningHandler{},
	}

	if l.manifest != nil {
		if l.manifest.File(f.path) == nil {
			l.logger.Info("file not pinned by manifest", "path", f.path)
		} else if err := l.manifest.Verify(f.path, data); err != nil {
			if l.strict {
				return parsed{}, err
			}
			res.skip = err.Error()
			return res, nil
		}
	}

	p, err := fragment.ForPath(f.path,
		fragment.WithValidator(l.validator),
		fragment.WithWarningHandler(res.warnings),
		fragment.WithLogger(l.logger))
	if err != nil {
		res.skip = err.Error()
		return res, nil
	}

	switch f.kind {
	case manifest.KindImplementors:
		res.frags, err = p.ParseImplementors(f.path, data)
	case manifest.KindSidebar:
		res.doc, err = p.ParseSidebar(f.path, data)
	}
	if err != nil {
		res.skip = err.Error()
	}
	return res, nil
}

func (l *Loader) read(fsys fs.FS, path string) ([]byte, error) {
	file, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	return io.ReadAll(newLimitedReader(file, l.maxFileBytes))
}

func (l *Loader) ingest(f sourceFile, res parsed, seen map[string]string, report *Report) {
	skip := func(reason string) {
		l.logger.Warn("skipping producer file", "path", f.path, "reason", reason)
		report.Skipped = append(report.Skipped, SkippedFile{Path: f.path, Reason: reason})
	}

	if res.warnings != nil {
		for _, w := range res.warnings.Warnings() {
			l.warnings.OnMalformed(w)
			report.Warnings = append(report.Warnings, w)
		}
	}
	if res.skip != "" {
		skip(res.skip)
		return
	}

	// The same content resolving to the same targets would deliver its
	// records twice.
	key := res.identity()
	if first, ok := seen[key]; ok {
		skip(fmt.Sprintf("duplicate content of %s", first))
		return
	}
	seen[key] = f.path

	switch f.kind {
	case manifest.KindImplementors:
		if l.registry == nil {
			return
		}
		ingested := 0
		for _, frag := range res.frags {
			if err := l.registry.Ingest(frag); err != nil {
				var dup *implementors.DuplicateModuleError
				if errors.As(err, &dup) {
					l.logger.Warn("rejected fragment", "path", f.path, "module", dup.Module, "capability", dup.Capability)
					continue
				}
				skip(err.Error())
				return
			}
			ingested++
		}
		report.Fragments += ingested
		if ingested > 0 || len(res.frags) == 0 {
			report.Files++
		}

	case manifest.KindSidebar:
		if l.sidebar == nil {
			return
		}
		l.sidebar.Set(res.doc.Module, res.doc.Items)
		report.SidebarModules++
		report.Files++
	}
}

// BuildManifest pins every matched file of fsys.
func (l *Loader) BuildManifest(ctx context.Context, fsys fs.FS) (*manifest.Manifest, error) {
	files, err := l.collect(fsys)
	if err != nil {
		return nil, err
	}

	locks := make([]manifest.FileLock, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := l.read(fsys, f.path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", f.path, err)
			}
			locks[i] = manifest.FileLock{
				Kind:   f.kind,
				Digest: manifest.SumSHA256(data),
				Size:   int64(len(data)),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := manifest.New(l.format)
	for i, f := range files {
		if err := m.AddFile(f.path, locks[i]); err != nil {
			return nil, err
		}
	}
	return m, nil
}
