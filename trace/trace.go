package trace

import "sync"

// Trace accumulates diagnostic entries as a Decoder runs. It is safe for
// concurrent writes, though a single Decoder is itself single-threaded;
// the locking only matters when one Trace is shared across Decoders
// reading independent sources from separate goroutines.
//
// Create a Trace exclusively through New(). It is passed to a Decoder via
// decoder.WithTrace and accumulates one entry per notable pipeline event.
type Trace struct {
	sourceName string
	stage      string
	entries    []*Entry
	mu         sync.Mutex
}

// New returns a Trace tagged with sourceName (e.g. a file path or "<mem>"),
// used only for the caller's own bookkeeping — Trace itself never reads it.
func New(sourceName string) *Trace {
	return &Trace{sourceName: sourceName}
}

// SetStage sets the current pipeline stage. Subsequent entries are tagged
// with this stage until it is changed again.
func (t *Trace) SetStage(name string) {
	t.mu.Lock()
	t.stage = name
	t.mu.Unlock()
}

func (t *Trace) record(severity string, loc Location, message string) *Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := &Entry{severity: severity, stage: t.stage, message: message, location: loc}
	t.entries = append(t.entries, e)
	return e
}

func (t *Trace) Error(loc Location, message string) *Entry { return t.record(SeverityError, loc, message) }
func (t *Trace) Info(loc Location, message string) *Entry  { return t.record(SeverityInfo, loc, message) }
func (t *Trace) Trace(loc Location, message string) *Entry { return t.record(SeverityTrace, loc, message) }

// Entries returns all recorded entries in insertion order.
func (t *Trace) Entries() []*Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := make([]*Entry, len(t.entries))
	copy(result, t.entries)
	return result
}

// HasErrors reports whether at least one "error" entry exists.
func (t *Trace) HasErrors() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		if e.severity == SeverityError {
			return true
		}
	}
	return false
}

// SourceName returns the name the Trace was created with.
func (t *Trace) SourceName() string { return t.sourceName }
