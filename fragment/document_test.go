package fragment_test

import (
	"testing"

	"github.com/reglet-dev/reglet-docindex/fragment"
	"github.com/reglet-dev/reglet-docindex/implementors"
	"github.com/reglet-dev/reglet-docindex/sidebar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const implementorsJSON = `{
  "module": "tokio_uds",
  "implementors": {
    "tokio_io::AsyncWrite": [
      {"text": "impl AsyncWrite for UnixStream", "synthetic": false, "types": ["tokio_uds::stream::UnixStream"]},
      {"text": "impl AsyncWrite for missing types"}
    ],
    "tokio_io::AsyncRead": [
      {"text": "impl AsyncRead for UnixStream", "types": ["tokio_uds::stream::UnixStream"]}
    ],
    "core::fmt::Debug": null
  }
}`

const implementorsYAML = `
module: tokio_uds
implementors:
  "tokio_io::AsyncWrite":
    - text: impl AsyncWrite for UnixStream
      synthetic: false
      types: ["tokio_uds::stream::UnixStream"]
  "tokio_io::AsyncRead":
    - text: impl AsyncRead for UnixStream
      types:
        - "tokio_uds::stream::UnixStream"
`

const sidebarYAML = `
module: zstd_safe
items:
  fn:
    - [compress, Wraps the ZSTD_compress function.]
    - decompress
  struct:
    - [CCtx, Compression context]
`

func TestJSONParser_Implementors(t *testing.T) {
	t.Parallel()

	warnings := &implementors.CollectingWarningHandler{}
	p := fragment.NewJSONParser(fragment.WithWarningHandler(warnings))

	frags, err := p.ParseImplementors("tokio_uds.json", []byte(implementorsJSON))
	require.NoError(t, err)
	require.Len(t, frags, 1)

	f := frags[0]
	assert.Equal(t, "tokio_uds", f.Module)
	assert.Equal(t, []string{"tokio_io::AsyncWrite", "tokio_io::AsyncRead", "core::fmt::Debug"}, f.Capabilities(),
		"document order is kept")
	assert.Len(t, f.Entries[0].Records, 1)
	assert.Len(t, f.Entries[1].Records, 1)
	assert.Empty(t, f.Entries[2].Records)

	got := warnings.Warnings()
	require.Len(t, got, 1)
	assert.Equal(t, "tokio_io::AsyncWrite", got[0].Capability)
	assert.Equal(t, 1, got[0].Record)
}

func TestYAMLParser_MatchesJSON(t *testing.T) {
	t.Parallel()

	p := fragment.NewYAMLParser(fragment.WithWarningHandler(&implementors.NopWarningHandler{}))
	frags, err := p.ParseImplementors("tokio_uds.yaml", []byte(implementorsYAML))
	require.NoError(t, err)
	require.Len(t, frags, 1)

	got := frags[0].Implementors()
	assert.Equal(t, []string{"tokio_io::AsyncRead", "tokio_io::AsyncWrite"}, got.Capabilities())
	assert.Equal(t, "tokio_uds::stream::UnixStream", got["tokio_io::AsyncRead"][0].TargetTypeID())
	assert.Equal(t, "tokio_uds", got["tokio_io::AsyncWrite"][0].Module)
}

func TestYAMLParser_Sidebar(t *testing.T) {
	t.Parallel()

	p := fragment.NewYAMLParser()
	doc, err := p.ParseSidebar("zstd_safe.yaml", []byte(sidebarYAML))
	require.NoError(t, err)

	assert.Equal(t, "zstd_safe", doc.Module)
	assert.Equal(t, []sidebar.Item{
		{Name: "compress", Description: "Wraps the ZSTD_compress function."},
		{Name: "decompress"},
	}, doc.Items[sidebar.KindFunction])
	assert.Equal(t, 3, doc.Items.Count())
}

func TestDocumentParsers_RejectInvalidDocuments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		path  string
		input string
	}{
		{"json missing module", "a.json", `{"implementors": {}}`},
		{"json empty module", "a.json", `{"module": "", "implementors": {}}`},
		{"json implementors not object", "a.json", `{"module": "m", "implementors": []}`},
		{"json capability not a list", "a.json", `{"module": "m", "implementors": {"T": "x"}}`},
		{"json syntax", "a.json", `{"module": `},
		{"yaml syntax", "a.yaml", "module: [unterminated"},
		{"yaml missing implementors", "a.yml", "module: m\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := fragment.ForPath(tt.path)
			require.NoError(t, err)
			_, err = p.ParseImplementors(tt.path, []byte(tt.input))
			assert.Error(t, err)
		})
	}

	p := fragment.NewJSONParser()
	_, err := p.ParseSidebar("s.json", []byte(`{"module": "m", "items": {"struct": "A"}}`))
	assert.Error(t, err)
}

func TestForPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want interface{}
	}{
		{"implementors/core/trait.T.js", &fragment.ScriptParser{}},
		{"docs/m.JSON", &fragment.JSONParser{}},
		{"docs/m.yaml", &fragment.YAMLParser{}},
		{"docs/m.yml", &fragment.YAMLParser{}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, err := fragment.ForPath(tt.path)
			require.NoError(t, err)
			assert.IsType(t, tt.want, p)
		})
	}

	_, err := fragment.ForPath("docs/m.toml")
	assert.Error(t, err)
}
