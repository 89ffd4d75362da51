package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/stackscout/pkg/dataset"
	"github.com/matzehuels/stackscout/pkg/integrations/npm"
)

// State is the phase of a run.
type State int

const (
	StateSeeding State = iota
	StateProcessing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateSeeding:
		return "seeding"
	case StateProcessing:
		return "processing"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// Candidate outcomes reported to hooks and counted in [Stats].
const (
	OutcomeRecorded  = "recorded"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Stats counts what happened during a run.
type Stats struct {
	Seeds      int `json:"seeds"`      // seeds searched
	Candidates int `json:"candidates"` // unique names found
	Queued     int `json:"queued"`     // candidates selected for processing
	Processed  int `json:"processed"`  // records produced
	Skipped    int `json:"skipped"`    // no registry document, or already processed
	Failed     int `json:"failed"`     // errors and panics
}

// Run is the state of one collection. All methods are safe for concurrent
// use.
type Run struct {
	ID        string
	StartedAt time.Time

	mu         sync.Mutex
	state      State
	finishedAt time.Time
	seen       map[string]bool
	processed  map[string]bool
	candidates []npm.Candidate
	slots      []*dataset.Record
	stats      Stats
}

func newRun(now time.Time) *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: now,
		seen:      make(map[string]bool),
		processed: make(map[string]bool),
	}
}

// State returns the current phase.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// FinishedAt returns when the run reached [StateDone], or the zero time.
func (r *Run) FinishedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finishedAt
}

// Stats returns a snapshot of the counters.
func (r *Run) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Candidates returns the deduplicated candidates in discovery order.
func (r *Run) Candidates() []npm.Candidate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]npm.Candidate(nil), r.candidates...)
}

// Records returns the records produced so far, in candidate order.
func (r *Run) Records() []dataset.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]dataset.Record, 0, r.stats.Processed)
	for _, rec := range r.slots {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out
}

// merge appends candidates whose names were not seen before and returns
// how many were added.
func (r *Run) merge(found []npm.Candidate) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	added := 0
	for _, c := range found {
		if c.Name == "" || r.seen[c.Name] {
			continue
		}
		r.seen[c.Name] = true
		r.candidates = append(r.candidates, c)
		added++
	}
	r.stats.Candidates = len(r.candidates)
	return added
}

func (r *Run) seeded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Seeds++
}

// startProcessing selects the first n candidates and moves to
// [StateProcessing].
func (r *Run) startProcessing(n int) []npm.Candidate {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateProcessing
	n = min(n, len(r.candidates))
	r.slots = make([]*dataset.Record, n)
	r.stats.Queued = n
	return append([]npm.Candidate(nil), r.candidates[:n]...)
}

// claim marks name as processed. It returns false if it already was.
func (r *Run) claim(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.processed[name] {
		r.stats.Skipped++
		return false
	}
	r.processed[name] = true
	return true
}

// finish stores the outcome of the candidate at index i.
func (r *Run) finish(i int, outcome string, rec *dataset.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch outcome {
	case OutcomeRecorded:
		r.slots[i] = rec
		r.stats.Processed++
	case OutcomeSkipped:
		r.stats.Skipped++
	case OutcomeFailed:
		r.stats.Failed++
	}
}

func (r *Run) done(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateDone
	r.finishedAt = now
}
