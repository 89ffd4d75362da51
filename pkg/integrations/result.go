package integrations

// Outcome classifies how a fetch ended.
type Outcome int

const (
	// OutcomeOK means the value came from a successful fetch or the cache.
	OutcomeOK Outcome = iota
	// OutcomeDegraded means the fetch failed and Value holds a default.
	OutcomeDegraded
	// OutcomeSkipped means there is no value at all.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeSkipped:
		return "skipped"
	}
	return "unknown"
}

// Result carries a fetched value together with the path that produced it,
// so callers can tell a real zero from a failure that fell back to zero.
type Result[T any] struct {
	Value   T
	Outcome Outcome
	// Err is the failure behind a degraded or skipped result. A skip with a
	// nil Err means there was nothing to fetch.
	Err error
	// Degraded names the sub-fields that fell back to defaults while the
	// value as a whole was fetched.
	Degraded []string
}

// Success wraps a fetched value.
func Success[T any](v T) Result[T] {
	return Result[T]{Value: v, Outcome: OutcomeOK}
}

// Degrade returns the fallback value def together with the failure.
func Degrade[T any](def T, err error) Result[T] {
	return Result[T]{Value: def, Outcome: OutcomeDegraded, Err: err}
}

// Skip returns an absent result.
func Skip[T any](err error) Result[T] {
	return Result[T]{Outcome: OutcomeSkipped, Err: err}
}

// Present reports whether Value is usable, degraded or not.
func (r Result[T]) Present() bool { return r.Outcome != OutcomeSkipped }

// Partial reports whether a present value had sub-fields fall back.
func (r Result[T]) Partial() bool { return len(r.Degraded) > 0 }
