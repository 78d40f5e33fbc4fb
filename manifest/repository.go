package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
)

// document is the YAML form of a manifest.
type document struct {
	Generated time.Time               `yaml:"generated"`
	Format    string                  `yaml:"format"`
	Files     map[string]fileDocument `yaml:"files"`
	Version   int                     `yaml:"manifest_version"`
}

type fileDocument struct {
	Kind   string `yaml:"kind"`
	Digest string `yaml:"digest"`
	Size   int64  `yaml:"size"`
}

func (d *document) toEntity() (*Manifest, error) {
	m := &Manifest{
		Generated: d.Generated,
		Format:    d.Format,
		Version:   d.Version,
		Files:     make(map[string]FileLock, len(d.Files)),
	}
	for path, f := range d.Files {
		digest, err := ParseDigest(f.Digest)
		if err != nil {
			return nil, fmt.Errorf("file %q: %w", path, err)
		}
		m.Files[path] = FileLock{Kind: FileKind(f.Kind), Digest: digest, Size: f.Size}
	}
	return m, nil
}

func fromEntity(m *Manifest) *document {
	d := &document{
		Generated: m.Generated,
		Format:    m.Format,
		Version:   m.Version,
		Files:     make(map[string]fileDocument, len(m.Files)),
	}
	for path, lock := range m.Files {
		d.Files[path] = fileDocument{
			Kind:   string(lock.Kind),
			Digest: lock.Digest.String(),
			Size:   lock.Size,
		}
	}
	return d
}

// FileRepository stores manifests as YAML on the local filesystem.
type FileRepository struct{}

// NewFileRepository creates a new FileRepository.
func NewFileRepository() *FileRepository {
	return &FileRepository{}
}

// Load reads a manifest from path. A missing file returns (nil, nil).
func (r *FileRepository) Load(ctx context.Context, path string) (*Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening directory %q: %w", filepath.Dir(path), err)
	}
	defer func() { _ = root.Close() }()

	base := filepath.Base(path)
	file, err := root.Open(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening manifest %q: %w", base, err)
	}
	defer func() { _ = file.Close() }()

	var doc document
	if err := yaml.NewDecoder(file).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding manifest YAML: %w", err)
	}

	m, err := doc.toEntity()
	if err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return m, nil
}

// Save writes m to path, creating the directory if needed.
func (r *FileRepository) Save(ctx context.Context, m *Manifest, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid manifest: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory %q: %w", dir, err)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return fmt.Errorf("opening directory for write %q: %w", dir, err)
	}
	defer func() { _ = root.Close() }()

	base := filepath.Base(path)
	file, err := root.OpenFile(base, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating manifest %q: %w", base, err)
	}
	defer func() { _ = file.Close() }()

	encoder := yaml.NewEncoder(file)
	defer func() { _ = encoder.Close() }()

	if err := encoder.Encode(fromEntity(m)); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return nil
}

// Exists checks if a manifest exists at path.
func (r *FileRepository) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
