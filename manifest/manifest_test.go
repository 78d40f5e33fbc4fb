package manifest_test

import (
	"testing"
	"time"

	"github.com/reglet-dev/reglet-docindex/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_AddFile(t *testing.T) {
	t.Parallel()

	m := manifest.New("1.0.0")
	err := m.AddFile("implementors/core/trait.T.js", manifest.FileLock{Kind: manifest.KindImplementors})
	assert.ErrorIs(t, err, manifest.ErrDigestRequired)

	require.NoError(t, m.AddFile("m/sidebar-items.js", manifest.FileLock{
		Kind:   manifest.KindSidebar,
		Digest: manifest.SumSHA256([]byte("sidebar")),
		Size:   7,
	}))
	require.NoError(t, m.AddFile("implementors/core/trait.T.js", manifest.FileLock{
		Kind:   manifest.KindImplementors,
		Digest: manifest.SumSHA256([]byte("impls")),
	}))

	assert.Equal(t, 2, m.FileCount())
	assert.Equal(t, []string{"implementors/core/trait.T.js", "m/sidebar-items.js"}, m.Paths())
	assert.Nil(t, m.File("missing"))
	require.NotNil(t, m.File("m/sidebar-items.js"))
	assert.Equal(t, int64(7), m.File("m/sidebar-items.js").Size)
	assert.NoError(t, m.Validate())
}

func TestManifest_Verify(t *testing.T) {
	t.Parallel()

	m := manifest.New("1.0.0")
	require.NoError(t, m.AddFile("a.js", manifest.FileLock{
		Kind:   manifest.KindImplementors,
		Digest: manifest.SumSHA256([]byte("original")),
	}))

	assert.NoError(t, m.Verify("a.js", []byte("original")))
	assert.NoError(t, m.Verify("unpinned.js", []byte("anything")))

	err := m.Verify("a.js", []byte("tampered"))
	var mismatch *manifest.DigestMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "a.js", mismatch.Path)
	assert.Contains(t, err.Error(), "a.js: digest mismatch")

	var nilManifest *manifest.Manifest
	assert.NoError(t, nilManifest.Verify("a.js", nil))
}

func TestManifest_Validate(t *testing.T) {
	t.Parallel()

	digest := manifest.SumSHA256([]byte("x"))

	tests := []struct {
		name    string
		m       *manifest.Manifest
		wantErr bool
	}{
		{
			name: "empty",
			m:    &manifest.Manifest{},
		},
		{
			name: "missing timestamp",
			m: &manifest.Manifest{Files: map[string]manifest.FileLock{
				"a.js": {Kind: manifest.KindSidebar, Digest: digest},
			}},
			wantErr: true,
		},
		{
			name: "unknown kind",
			m: &manifest.Manifest{Generated: time.Now(), Files: map[string]manifest.FileLock{
				"a.js": {Kind: "widgets", Digest: digest},
			}},
			wantErr: true,
		},
		{
			name: "missing digest",
			m: &manifest.Manifest{Generated: time.Now(), Files: map[string]manifest.FileLock{
				"a.js": {Kind: manifest.KindSidebar},
			}},
			wantErr: true,
		},
		{
			name:    "future version",
			m:       &manifest.Manifest{Version: manifest.CurrentVersion + 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		constraint string
		version    string
		wantErr    bool
	}{
		{constraint: "", version: "1.2.0"},
		{constraint: "latest", version: "0.1.0"},
		{constraint: "^1.0", version: "1.4.2"},
		{constraint: ">= 1.0, < 2.0", version: "1.9.9"},
		{constraint: "^1.0", version: "2.0.0", wantErr: true},
		{constraint: "~1.2", version: "1.3.0", wantErr: true},
		{constraint: "not a constraint", version: "1.0.0", wantErr: true},
		{constraint: "^1.0", version: "one", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.constraint+"/"+tt.version, func(t *testing.T) {
			err := manifest.CheckFormat(tt.constraint, tt.version)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
