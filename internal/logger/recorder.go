package logger

import (
	"sync"
	"time"
)

// Entry is one message captured by a Recorder.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
	Err     error
	Fields  []Field
}

// Field returns the value of the named field and whether it was present.
func (e Entry) Field(key string) (interface{}, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Recorder is an in-memory Logger. It keeps every entry at or above its
// level and forwards it to Next when set.
type Recorder struct {
	Next Logger

	mu      sync.Mutex
	level   Level
	entries []Entry
}

// NewRecorder creates a Recorder that keeps debug entries and above.
func NewRecorder(next Logger) *Recorder {
	return &Recorder{Next: next, level: LevelDebug}
}

func (r *Recorder) Debug(msg string, fields ...Field) { r.record(LevelDebug, msg, nil, fields) }
func (r *Recorder) Info(msg string, fields ...Field)  { r.record(LevelInfo, msg, nil, fields) }
func (r *Recorder) Warn(msg string, fields ...Field)  { r.record(LevelWarn, msg, nil, fields) }

func (r *Recorder) Error(msg string, err error, fields ...Field) {
	r.record(LevelError, msg, err, fields)
}

// SetLevel sets the minimum level kept by the recorder.
func (r *Recorder) SetLevel(level Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.level = level
}

// Close does not close Next.
func (r *Recorder) Close() error { return nil }

func (r *Recorder) record(level Level, msg string, err error, fields []Field) {
	r.mu.Lock()
	if level >= r.level {
		r.entries = append(r.entries, Entry{
			Time:    time.Now(),
			Level:   level,
			Message: msg,
			Err:     err,
			Fields:  append([]Field(nil), fields...),
		})
	}
	next := r.Next
	r.mu.Unlock()

	if next == nil {
		return
	}
	switch level {
	case LevelDebug:
		next.Debug(msg, fields...)
	case LevelInfo:
		next.Info(msg, fields...)
	case LevelWarn:
		next.Warn(msg, fields...)
	default:
		next.Error(msg, err, fields...)
	}
}

// Entries returns a copy of the captured entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Warnings returns the captured entries at LevelWarn.
func (r *Recorder) Warnings() []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == LevelWarn {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops all captured entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
