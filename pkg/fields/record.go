package fields

// Record is an immutable label to value mapping built by one parse.
type Record struct {
	values map[Label]string
	order  []Label
}

// NewRecord builds a record from a map. Labels keep the order of AllLabels.
func NewRecord(values map[Label]string) Record {
	b := newBuilder()
	for _, label := range AllLabels() {
		if v, ok := values[label]; ok {
			b.set(label, v)
		}
	}
	return b.record()
}

// Get returns the value for label.
func (r Record) Get(label Label) (string, bool) {
	v, ok := r.values[label]
	return v, ok
}

// Value returns the value for label, or "" if absent.
func (r Record) Value(label Label) string {
	return r.values[label]
}

// Has reports whether label is present.
func (r Record) Has(label Label) bool {
	_, ok := r.values[label]
	return ok
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.order)
}

// Labels returns the labels in the order they were first seen.
func (r Record) Labels() []Label {
	out := make([]Label, len(r.order))
	copy(out, r.order)
	return out
}

// Map returns a copy of the fields.
func (r Record) Map() map[Label]string {
	out := make(map[Label]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

type builder struct {
	values map[Label]string
	order  []Label
}

func newBuilder() *builder {
	return &builder{values: make(map[Label]string)}
}

// set records a value; a repeated label keeps its first position and takes
// the latest value.
func (b *builder) set(label Label, value string) {
	if _, ok := b.values[label]; !ok {
		b.order = append(b.order, label)
	}
	b.values[label] = value
}

func (b *builder) has(label Label) bool {
	_, ok := b.values[label]
	return ok
}

func (b *builder) record() Record {
	return Record{values: b.values, order: b.order}
}
