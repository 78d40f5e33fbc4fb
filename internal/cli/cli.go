// Package cli implements the docindex command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	docindex "github.com/reglet-dev/reglet-docindex"
	"github.com/reglet-dev/reglet-docindex/config"
	"github.com/reglet-dev/reglet-docindex/implementors"
	"github.com/reglet-dev/reglet-docindex/loader"
	"github.com/reglet-dev/reglet-docindex/logging"
	"github.com/reglet-dev/reglet-docindex/manifest"
)

// ExitError is an error that carries a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// app holds state shared by every subcommand.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	root       string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
}

// Execute runs the command line with args.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	cmd := NewRootCommand(out, errOut)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// NewRootCommand builds the docindex command tree.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "docindex",
		Short:         "Index trait implementors and sidebar items from generated documentation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Message: err.Error()}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.DefaultPath, "path to the configuration file")
	flags.StringVar(&a.root, "root", "", "documentation tree root (overrides config)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		a.newIndexCommand(),
		a.newShowCommand(),
		a.newSidebarCommand(),
		a.newBrowseCommand(),
		a.newLockCommand(),
		a.newSchemaCommand(),
	)
	return root
}

// setup loads the configuration, applies flag overrides and installs the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root = a.root
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}

	a.cfg = cfg
	a.logger = logging.New(cfg.Log.Level, cfg.Log.Format, a.errOut)
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))
	a.logger.Debug("configuration loaded", "path", a.configPath, "root", cfg.Root)
	return nil
}

// rootFor picks the tree root: a positional argument wins over config.
func (a *app) rootFor(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return a.cfg.Root
}

// manifestPath resolves loader.manifest against the tree root.
func (a *app) manifestPath(root string) string {
	p := a.cfg.Loader.Manifest
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// load builds an Index from the tree at root.
func (a *app) load(ctx context.Context, root string) (*docindex.Index, *loader.Report, error) {
	logger := logging.FromContext(ctx)

	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, &ExitError{Code: 1, Message: fmt.Sprintf("documentation root: %v", err)}
	}
	if !info.IsDir() {
		return nil, nil, &ExitError{Code: 1, Message: fmt.Sprintf("documentation root %s is not a directory", root)}
	}

	regOpts, err := a.cfg.RegistryOptions(logger)
	if err != nil {
		return nil, nil, err
	}
	ix := docindex.New(
		docindex.WithLogger(logger),
		docindex.WithRegistryOptions(regOpts...),
		docindex.WithConsumerMiddleware(implementors.LoggingMiddleware(logger)))

	var m *manifest.Manifest
	if path := a.manifestPath(root); path != "" {
		m, err = manifest.NewFileRepository().Load(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		if m == nil {
			logger.Warn("manifest not found, integrity checks disabled", "path", path)
		}
	}

	report, err := ix.Load(ctx, os.DirFS(root), a.cfg.LoaderOptions(m, logger)...)
	if err != nil {
		var mismatch *manifest.DigestMismatchError
		if errors.As(err, &mismatch) {
			return nil, nil, &ExitError{Code: 3, Message: err.Error()}
		}
		return nil, nil, err
	}
	return ix, report, nil
}
