package log

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Entry is a single structured log event.
type Entry struct {
	Time     time.Time
	Source   string // component emitting the event, e.g. "search"
	Action   string // what happened, e.g. "branch"
	Duration time.Duration
	Err      error
	Fields   map[string]any
}

// String renders the entry as a single key=value line.
// Fields are written in sorted key order.
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Time.Format(time.RFC3339))
	fmt.Fprintf(&b, " source=%s action=%s", e.Source, e.Action)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, formatValue(e.Fields[k]))
	}

	if e.Duration > 0 {
		fmt.Fprintf(&b, " duration_ms=%d", e.Duration.Milliseconds())
	}
	if e.Err != nil {
		fmt.Fprintf(&b, " error=%q", e.Err.Error())
	}
	return b.String()
}

func formatValue(v any) string {
	s := fmt.Sprint(v)
	if strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// Sink receives structured entries.
type Sink interface {
	Log(Entry)
}

type discard struct{}

func (discard) Log(Entry) {}

// Discard drops every entry.
var Discard Sink = discard{}

// Recorder is a Sink that keeps entries in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Log records the entry.
func (r *Recorder) Log(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Builder constructs an Entry using a fluent API.
//
//	log.Event("search", "branch").
//		Detail("branch", "ApexClass").
//		Detail("outcome", "ok").
//		Since(start).
//		Write(sink, err)
type Builder struct {
	entry Entry
	start time.Time
}

// Event starts a new entry for source and action.
func Event(source, action string) *Builder {
	return &Builder{
		entry: Entry{
			Source: source,
			Action: action,
			Fields: map[string]any{},
		},
	}
}

// Detail adds a key/value field.
func (b *Builder) Detail(key string, value any) *Builder {
	b.entry.Fields[key] = value
	return b
}

// Since records the elapsed time from start when the entry is written.
func (b *Builder) Since(start time.Time) *Builder {
	b.start = start
	return b
}

// Took records an already measured duration.
func (b *Builder) Took(d time.Duration) *Builder {
	b.entry.Duration = d
	return b
}

// Write stamps the entry and hands it to sink. A nil sink discards it.
func (b *Builder) Write(sink Sink, err error) {
	if sink == nil {
		return
	}
	b.entry.Time = time.Now()
	if !b.start.IsZero() {
		b.entry.Duration = b.entry.Time.Sub(b.start)
	}
	b.entry.Err = err
	sink.Log(b.entry)
}
