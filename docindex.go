// Package docindex keeps the process-wide implementor registry and sidebar
// index that documentation pages register into.
//
// Producers call RegisterImplementors and InitSidebarItems whenever their
// fragment loads; the renderer calls RegisterConsumer once it is ready.
// Either side may arrive first.
package docindex

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/reglet-dev/reglet-docindex/implementors"
	"github.com/reglet-dev/reglet-docindex/loader"
	"github.com/reglet-dev/reglet-docindex/sidebar"
)

// ErrNilIndex is returned when SetDefault is given a nil index.
var ErrNilIndex = errors.New("docindex: nil index")

// Index pairs an implementor registry with a sidebar index. The two tables
// are independent.
type Index struct {
	Implementors *implementors.Registry
	Sidebar      *sidebar.Index

	middleware []implementors.Middleware
	logger     *slog.Logger
}

type options struct {
	logger       *slog.Logger
	registryOpts []implementors.Option
	sidebarOpts  []sidebar.Option
	middleware   []implementors.Middleware
}

// Option configures an Index.
type Option func(*options)

// WithLogger sets the logger shared by the registry and the sidebar index.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegistryOptions passes options through to the implementor registry.
// They are applied after WithLogger.
func WithRegistryOptions(opts ...implementors.Option) Option {
	return func(o *options) {
		o.registryOpts = append(o.registryOpts, opts...)
	}
}

// WithSidebarOptions passes options through to the sidebar index.
func WithSidebarOptions(opts ...sidebar.Option) Option {
	return func(o *options) {
		o.sidebarOpts = append(o.sidebarOpts, opts...)
	}
}

// WithConsumerMiddleware wraps every consumer given to RegisterConsumer.
// Panic recovery is always the outermost layer.
func WithConsumerMiddleware(mws ...implementors.Middleware) Option {
	return func(o *options) {
		o.middleware = append(o.middleware, mws...)
	}
}

// New creates an empty Index.
func New(opts ...Option) *Index {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	regOpts := append([]implementors.Option{implementors.WithLogger(o.logger)}, o.registryOpts...)
	sideOpts := append([]sidebar.Option{sidebar.WithLogger(o.logger)}, o.sidebarOpts...)

	return &Index{
		Implementors: implementors.NewRegistry(regOpts...),
		Sidebar:      sidebar.NewIndex(sideOpts...),
		middleware:   append([]implementors.Middleware{implementors.RecoverMiddleware(o.logger)}, o.middleware...),
		logger:       o.logger,
	}
}

// RegisterImplementors ingests one module's implementors, keyed by
// capability. Capabilities are taken in sorted order.
func (ix *Index) RegisterImplementors(module string, byCapability map[string][]implementors.Record) error {
	capabilities := make([]string, 0, len(byCapability))
	for capability := range byCapability {
		capabilities = append(capabilities, capability)
	}
	sort.Strings(capabilities)

	frag := implementors.NewFragment(module)
	for _, capability := range capabilities {
		frag.Add(capability, byCapability[capability]...)
	}
	return ix.Implementors.Ingest(*frag)
}

// RegisterConsumer attaches the renderer. Anything registered earlier is
// delivered to it immediately in one call.
func (ix *Index) RegisterConsumer(c implementors.Consumer) error {
	if c == nil {
		return implementors.ErrNilConsumer
	}
	return ix.Implementors.Attach(implementors.Chain(c, ix.middleware...))
}

// InitSidebarItems stores module's sidebar listing, replacing any earlier one.
func (ix *Index) InitSidebarItems(module string, items sidebar.Items) {
	ix.Sidebar.Set(module, items)
}

// Load reads a documentation tree into ix.
func (ix *Index) Load(ctx context.Context, fsys fs.FS, opts ...loader.Option) (*loader.Report, error) {
	opts = append([]loader.Option{loader.WithLogger(ix.logger)}, opts...)
	return loader.New(ix.Implementors, ix.Sidebar, opts...).Load(ctx, fsys)
}

var current atomic.Pointer[Index]

func init() {
	current.Store(New())
}

// Default returns the process-wide Index.
func Default() *Index {
	return current.Load()
}

// SetDefault replaces the process-wide Index. Fragments and consumers
// registered with the previous one stay with it.
func SetDefault(ix *Index) error {
	if ix == nil {
		return ErrNilIndex
	}
	current.Store(ix)
	return nil
}

// RegisterImplementors ingests module's implementors into the default Index.
func RegisterImplementors(module string, byCapability map[string][]implementors.Record) error {
	return Default().RegisterImplementors(module, byCapability)
}

// RegisterConsumer attaches c to the default Index.
func RegisterConsumer(c implementors.Consumer) error {
	return Default().RegisterConsumer(c)
}

// InitSidebarItems stores module's sidebar listing in the default Index.
func InitSidebarItems(module string, items sidebar.Items) {
	Default().InitSidebarItems(module, items)
}
