package loader_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/reglet-dev/reglet-docindex/implementors"
	"github.com/reglet-dev/reglet-docindex/loader"
	"github.com/reglet-dev/reglet-docindex/manifest"
	"github.com/reglet-dev/reglet-docindex/sidebar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	asyncWritePath = "implementors/tokio_io/async_write/trait.AsyncWrite.js"
	asyncWrite     = "tokio_io::async_write::AsyncWrite"
	debugPath      = "implementors/core/fmt/trait.Debug.js"
	debug          = "core::fmt::Debug"
)

const udsDocument = `{"module": "tokio_uds", "implementors": {"tokio_io::AsyncRead": [
  {"text": "impl AsyncRead for UnixStream", "types": ["tokio_uds::stream::UnixStream"]}
]}}`

func docTree() fstest.MapFS {
	return fstest.MapFS{
		asyncWritePath: {Data: []byte(`(function() {var implementors = {};
implementors["parity_tokio_ipc"] = [{"text":"impl AsyncWrite for IpcConnection","synthetic":false,"types":["parity_tokio_ipc::IpcConnection"]}];
implementors["tokio_uds"] = [{"text":"impl AsyncWrite for UnixStream","synthetic":false,"types":["tokio_uds::stream::UnixStream"]}];
if (window.register_implementors) {window.register_implementors(implementors);} else {window.pending_implementors = implementors;}})()`)},
		debugPath: {Data: []byte(`var implementors = {};
implementors["alloc"] = [{"text":"impl Debug for String","synthetic":false,"types":["alloc::string::String"]},{"text":"impl Debug for Nothing","types":[]}];`)},
		"pallet_balances/sidebar-items.js":           {Data: []byte(`initSidebarItems({"struct":[["Pallet","The pallet."]],"enum":[["Reasons",""]]});`)},
		"fragments/implementors/tokio_uds.json":      {Data: []byte(udsDocument)},
		"fragments/implementors/copy/tokio_uds.json": {Data: []byte(udsDocument)},
		"fragments/sidebar/zstd.yaml":                {Data: []byte("module: zstd_safe\nitems:\n  fn:\n    - [compress, Compresses.]\n")},
		"notes/readme.md":                            {Data: []byte("# not a producer file")},
	}
}

func newTargets() (*implementors.Registry, *sidebar.Index) {
	return implementors.NewRegistry(implementors.WithWarningHandler(&implementors.NopWarningHandler{})),
		sidebar.NewIndex()
}

func TestLoader_Files(t *testing.T) {
	t.Parallel()

	reg, side := newTargets()
	files, err := loader.New(reg, side).Files(docTree())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"fragments/implementors/copy/tokio_uds.json",
		"fragments/implementors/tokio_uds.json",
		"fragments/sidebar/zstd.yaml",
		debugPath,
		asyncWritePath,
		"pallet_balances/sidebar-items.js",
	}, files)
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	reg, side := newTargets()
	warnings := &implementors.CollectingWarningHandler{}
	l := loader.New(reg, side, loader.WithWarningHandler(warnings))

	report, err := l.Load(context.Background(), docTree())
	require.NoError(t, err)

	assert.Equal(t, 5, report.Files)
	assert.Equal(t, 4, report.Fragments)
	assert.Equal(t, 2, report.SidebarModules)

	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "fragments/implementors/tokio_uds.json", report.Skipped[0].Path)
	assert.Contains(t, report.Skipped[0].Reason, "duplicate content of fragments/implementors/copy/tokio_uds.json")

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "alloc", report.Warnings[0].Module)
	assert.Equal(t, debug, report.Warnings[0].Capability)
	assert.Equal(t, 1, report.Warnings[0].Record)
	assert.Equal(t, report.Warnings, warnings.Warnings())

	records := reg.Lookup(asyncWrite)
	require.Len(t, records, 2)
	assert.Equal(t, "parity_tokio_ipc", records[0].Module)
	assert.Equal(t, "tokio_uds", records[1].Module)
	assert.Len(t, reg.Lookup("tokio_io::AsyncRead"), 1, "duplicate document ingested once")
	assert.Len(t, reg.Lookup(debug), 1)

	assert.Equal(t, []string{"pallet_balances", "zstd_safe"}, side.Modules())
	assert.Equal(t, []sidebar.Item{{Name: "compress", Description: "Compresses."}}, side.Lookup("zstd_safe", sidebar.KindFunction))

	// Nothing is attached yet, so the whole load waits as one backlog.
	var deliveries []implementors.Implementors
	require.NoError(t, reg.Attach(implementors.ConsumerFunc(func(d implementors.Implementors) {
		deliveries = append(deliveries, d)
	})))
	require.Len(t, deliveries, 1)
	assert.Equal(t, []string{debug, "tokio_io::AsyncRead", asyncWrite}, deliveries[0].Capabilities())
}

func TestLoader_DeterministicOrder(t *testing.T) {
	t.Parallel()

	load := func(workers int) implementors.Implementors {
		reg, side := newTargets()
		_, err := loader.New(reg, side, loader.WithWorkers(workers)).Load(context.Background(), docTree())
		require.NoError(t, err)
		return reg.Snapshot()
	}

	assert.Equal(t, load(1), load(8))
}

func TestLoader_Manifest(t *testing.T) {
	t.Parallel()

	tree := docTree()
	reg, side := newTargets()
	m, err := loader.New(reg, side, loader.WithFormat("1.2.0")).BuildManifest(context.Background(), tree)
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", m.Format)
	assert.Equal(t, 6, m.FileCount())
	lock := m.File("pallet_balances/sidebar-items.js")
	require.NotNil(t, lock)
	assert.Equal(t, manifest.KindSidebar, lock.Kind)
	assert.Equal(t, int64(len(tree["pallet_balances/sidebar-items.js"].Data)), lock.Size)

	tree[debugPath] = &fstest.MapFile{Data: []byte(`implementors["evil"] = [{"text":"impl Debug for Evil","types":["evil::Evil"]}];`)}

	t.Run("mismatch skipped", func(t *testing.T) {
		reg, side := newTargets()
		report, err := loader.New(reg, side, loader.WithManifest(m)).Load(context.Background(), tree)
		require.NoError(t, err)

		var paths []string
		for _, s := range report.Skipped {
			paths = append(paths, s.Path)
		}
		assert.Contains(t, paths, debugPath)
		assert.Empty(t, reg.Lookup(debug))
	})

	t.Run("mismatch strict", func(t *testing.T) {
		reg, side := newTargets()
		_, err := loader.New(reg, side, loader.WithManifest(m), loader.WithStrictIntegrity(true)).
			Load(context.Background(), tree)
		var mismatch *manifest.DigestMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, debugPath, mismatch.Path)
	})

	t.Run("format constraint", func(t *testing.T) {
		reg, side := newTargets()
		_, err := loader.New(reg, side, loader.WithManifest(m), loader.WithFormatConstraint("^2.0")).
			Load(context.Background(), docTree())
		assert.Error(t, err)

		_, err = loader.New(reg, side, loader.WithManifest(m), loader.WithFormatConstraint("~1.2")).
			Load(context.Background(), docTree())
		assert.NoError(t, err)
	})
}

func TestLoader_SizeLimit(t *testing.T) {
	t.Parallel()

	reg, side := newTargets()
	report, err := loader.New(reg, side, loader.WithMaxFileBytes(16)).Load(context.Background(), docTree())
	require.NoError(t, err)

	assert.Zero(t, report.Files)
	assert.Len(t, report.Skipped, 6)
	for _, s := range report.Skipped {
		assert.Contains(t, s.Reason, "size limit exceeded")
	}
	assert.Zero(t, reg.Len())
}

func TestLoader_CustomPatterns(t *testing.T) {
	t.Parallel()

	reg, side := newTargets()
	l := loader.New(reg, side,
		loader.WithImplementorsPatterns("implementors/core/**/*.js"),
		loader.WithSidebarPatterns("nothing/**/*.js"))

	report, err := l.Load(context.Background(), docTree())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Files)
	assert.Equal(t, []string{debug}, reg.Capabilities())
	assert.Zero(t, side.Len())

	_, err = loader.New(reg, side, loader.WithSidebarPatterns("[")).Load(context.Background(), docTree())
	assert.Error(t, err)
}

func TestLoader_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reg, side := newTargets()
	_, err := loader.New(reg, side).Load(ctx, docTree())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, reg.Len())

	_, err = loader.New(reg, side).BuildManifest(ctx, docTree())
	assert.ErrorIs(t, err, context.Canceled)
}
