package implementors

// Entry is one capability's ordered records within a fragment.
type Entry struct {
	Capability string
	Records    []Record
}

// Fragment is the unit of incremental input: the records one module
// contributes for zero or more capabilities.
type Fragment struct {
	// Module is the stable module or crate identifier of the producer.
	Module string

	// Entries preserve the producer's order.
	Entries []Entry
}

// NewFragment creates an empty fragment for module.
func NewFragment(module string) *Fragment {
	return &Fragment{Module: module}
}

// Add appends an entry for capability and returns f for chaining.
func (f *Fragment) Add(capability string, records ...Record) *Fragment {
	f.Entries = append(f.Entries, Entry{Capability: capability, Records: records})
	return f
}

// Capabilities returns the capability names in entry order.
func (f Fragment) Capabilities() []string {
	names := make([]string, 0, len(f.Entries))
	for _, e := range f.Entries {
		names = append(names, e.Capability)
	}
	return names
}

// Implementors returns the fragment as a capability mapping. Entries naming
// the same capability are concatenated in order.
func (f Fragment) Implementors() Implementors {
	out := make(Implementors, len(f.Entries))
	for _, e := range f.Entries {
		records := out[e.Capability]
		if records == nil {
			records = make([]Record, 0, len(e.Records))
		}
		for _, rec := range e.Records {
			rec = rec.clone()
			if rec.Module == "" {
				rec.Module = f.Module
			}
			records = append(records, rec)
		}
		out[e.Capability] = records
	}
	return out
}
