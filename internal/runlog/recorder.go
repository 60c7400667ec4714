package runlog

import "sync"

// Record is one captured Log call.
type Record struct {
	Sink Sink
	Msg  string
	Args []any
}

// Attr returns the value logged under key, if any.
func (r Record) Attr(key string) (any, bool) {
	for i := 0; i+1 < len(r.Args); i += 2 {
		if k, ok := r.Args[i].(string); ok && k == key {
			return r.Args[i+1], true
		}
	}
	return nil, false
}

// Recorder keeps records in memory. It is the test double for Logger.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

// Log implements Logger.
func (r *Recorder) Log(sink Sink, msg string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, Record{Sink: sink, Msg: msg, Args: append([]any(nil), args...)})
}

// Records returns a copy of everything logged so far.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

// Count returns how many records went to sink.
func (r *Recorder) Count(sink Sink) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Sink == sink {
			n++
		}
	}
	return n
}
