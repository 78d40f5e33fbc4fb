package implementors

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
)

type moduleCapability struct {
	module     string
	capability string
}

// Registry merges fragments into one capability index and delivers them to
// at most one consumer. It is safe for concurrent use.
//
// Invariants:
// - A capability's records keep fragment arrival order, then record order.
// - At most one consumer is ever attached.
// - Every ingested record reaches the consumer exactly once.
type Registry struct {
	mu sync.Mutex

	index   Implementors
	modules map[string]struct{}
	seen    map[moduleCapability]struct{}

	state    deliveryState
	outbox   []Implementors
	draining bool
	rejected int

	fragments int

	policy   DuplicatePolicy
	logger   *slog.Logger
	warnings WarningHandler
}

// NewRegistry creates an empty registry with no consumer attached.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		index:   make(Implementors),
		modules: make(map[string]struct{}),
		seen:    make(map[moduleCapability]struct{}),
		state:   &unattached{},
		policy:  DuplicateAppend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.warnings == nil {
		r.warnings = &LogWarningHandler{Logger: r.logger}
	}
	return r
}

// Ingest folds f into the registry. If a consumer is attached the fragment
// is forwarded to it, otherwise it is buffered until one attaches.
//
// Malformed capabilities and records are skipped and reported to the
// warning handler. An error is only returned under DuplicateReject; a
// rejected fragment reports no warnings.
func (r *Registry) Ingest(f Fragment) error {
	if r.policy == DuplicateReject {
		r.mu.Lock()
		err := r.duplicateOf(f.Module, f.Capabilities())
		r.mu.Unlock()
		if err != nil {
			r.logger.Warn("rejecting duplicate fragment", "module", err.Module, "capability", err.Capability)
			return err
		}
	}

	delivery := r.sanitize(f)

	r.mu.Lock()

	switch r.policy {
	case DuplicateReject:
		// A concurrent Ingest for the same module may have landed meanwhile.
		if err := r.duplicateOf(f.Module, delivery.Capabilities()); err != nil {
			r.mu.Unlock()
			r.logger.Warn("rejecting duplicate fragment", "module", err.Module, "capability", err.Capability)
			return err
		}
	case DuplicateSkip:
		for _, capability := range delivery.Capabilities() {
			if _, dup := r.seen[moduleCapability{f.Module, capability}]; dup && f.Module != "" {
				r.logger.Warn("skipping duplicate fragment entry", "module", f.Module, "capability", capability)
				delete(delivery, capability)
			}
		}
	}

	r.merge(f.Module, delivery)
	r.fragments++

	switch s := r.state.(type) {
	case *unattached:
		s.pending = append(s.pending, delivery)
		r.logger.Debug("buffered fragment", "module", f.Module, "pending", len(s.pending))
		r.mu.Unlock()
	case *attached:
		r.outbox = append(r.outbox, delivery)
		r.drain()
	}
	return nil
}

// Attach binds the consumer. Buffered fragments are delivered in a single
// merged call; later fragments are delivered one call each.
// A second Attach returns a DuplicateConsumerError and changes nothing.
func (r *Registry) Attach(c Consumer) error {
	if c == nil {
		return ErrNilConsumer
	}

	r.mu.Lock()

	s, ok := r.state.(*unattached)
	if !ok {
		r.rejected++
		err := &DuplicateConsumerError{Attempt: r.rejected}
		r.mu.Unlock()
		r.logger.Warn("rejecting second consumer", "attempt", err.Attempt)
		return err
	}

	r.state = &attached{consumer: c}
	if len(s.pending) == 0 {
		r.logger.Debug("consumer attached before any fragment")
		r.mu.Unlock()
		return nil
	}

	backlog := make(Implementors)
	for _, pending := range s.pending {
		backlog.Merge(pending)
	}
	r.logger.Debug("consumer attached, flushing backlog",
		"fragments", len(s.pending),
		"capabilities", len(backlog))
	r.outbox = append(r.outbox, backlog)
	r.drain()
	return nil
}

// duplicateOf returns the first of capabilities module already contributed
// to. It must be called with r.mu held.
func (r *Registry) duplicateOf(module string, capabilities []string) *DuplicateModuleError {
	if module == "" {
		return nil
	}
	for _, capability := range capabilities {
		capability = strings.TrimSpace(capability)
		if _, dup := r.seen[moduleCapability{module, capability}]; dup {
			return &DuplicateModuleError{Module: module, Capability: capability}
		}
	}
	return nil
}

// drain delivers queued payloads in order. It must be called with r.mu held
// and returns with it released. Only one goroutine drains at a time; the
// consumer runs without the lock so it may query or ingest. A panicking
// consumer loses the payload it was given and the panic propagates to the
// caller; queued payloads go out with the next Ingest.
func (r *Registry) drain() {
	if r.draining {
		r.mu.Unlock()
		return
	}
	r.draining = true
	for len(r.outbox) > 0 {
		next := r.outbox[0]
		r.outbox[0] = nil
		r.outbox = r.outbox[1:]
		consumer := r.state.(*attached).consumer
		r.mu.Unlock()
		r.deliver(consumer, next)
		r.mu.Lock()
	}
	r.outbox = nil
	r.draining = false
	r.mu.Unlock()
}

func (r *Registry) deliver(c Consumer, delivery Implementors) {
	done := false
	defer func() {
		if !done {
			r.mu.Lock()
			r.draining = false
			r.mu.Unlock()
		}
	}()
	c.Consume(delivery)
	done = true
}

// sanitize converts f to a mapping, dropping malformed data.
func (r *Registry) sanitize(f Fragment) Implementors {
	out := make(Implementors, len(f.Entries))
	for _, e := range f.Entries {
		capability := strings.TrimSpace(e.Capability)
		if capability == "" {
			r.warnings.OnMalformed(&MalformedFragmentWarning{
				Module: f.Module,
				Record: -1,
				Reason: "empty capability name",
			})
			continue
		}

		records := out[capability]
		if records == nil {
			records = make([]Record, 0, len(e.Records))
		}
		for i, rec := range e.Records {
			if reason := rec.validate(); reason != "" {
				r.warnings.OnMalformed(&MalformedFragmentWarning{
					Module:     f.Module,
					Capability: capability,
					Record:     i,
					Reason:     reason,
				})
				continue
			}
			rec = rec.clone()
			rec.Module = f.Module
			records = append(records, rec)
		}
		out[capability] = records
	}
	return out
}

// merge must be called with r.mu held.
func (r *Registry) merge(module string, delivery Implementors) {
	r.index.Merge(delivery)
	if module == "" {
		return
	}
	r.modules[module] = struct{}{}
	for capability := range delivery {
		r.seen[moduleCapability{module, capability}] = struct{}{}
	}
}

// Lookup returns the records accumulated for capability. The result is a
// copy and is empty (never nil) for unknown capabilities.
func (r *Registry) Lookup(capability string) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	records := r.index[capability]
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.clone())
	}
	return out
}

// Snapshot returns a deep copy of the merged index.
func (r *Registry) Snapshot() Implementors {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index.Clone()
}

// Capabilities returns all known capability names in sorted order.
func (r *Registry) Capabilities() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index.Capabilities()
}

// Modules returns the modules that contributed data, sorted.
func (r *Registry) Modules() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.modules))
	for module := range r.modules {
		out = append(out, module)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of known capabilities.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.index)
}

// RecordCount returns the total number of records across capabilities.
func (r *Registry) RecordCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index.Count()
}

// Fragments returns how many fragments were ingested.
func (r *Registry) Fragments() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fragments
}

// Pending returns the number of fragments buffered for a future consumer.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.state.(*unattached); ok {
		return len(s.pending)
	}
	return 0
}

// Attached reports whether a consumer is attached.
func (r *Registry) Attached() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.state.(*attached)
	return ok
}
