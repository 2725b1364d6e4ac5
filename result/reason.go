package result

import "fmt"

// Reason is one member of a rejection class. The zero Reason is invalid.
type Reason struct {
	set *Rejections
	idx int
}

// Rejections is an immutable rejection class: the reasons a rail's gates
// may deny an acquire with.
type Rejections struct {
	names  []string
	byName map[string]int
}

// NewRejections builds a rejection class from the given reason names, in
// order.
func NewRejections(names ...string) (*Rejections, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("result: rejection class requires at least one reason")
	}
	byName := make(map[string]int, len(names))
	for i, n := range names {
		if n == "" {
			return nil, fmt.Errorf("result: reason %d has empty name", i)
		}
		if _, dup := byName[n]; dup {
			return nil, fmt.Errorf("result: duplicate reason %q", n)
		}
		byName[n] = i
	}
	return &Rejections{names: append([]string(nil), names...), byName: byName}, nil
}

// StandardRejections returns the conventional
// {max-concurrency, circuit-open, rate-exceeded, executor-shutdown} class.
func StandardRejections() *Rejections {
	r, err := NewRejections(ReasonMaxConcurrency, ReasonCircuitOpen, ReasonRateExceeded, ReasonExecutorShutdown)
	if err != nil {
		panic(err)
	}
	return r
}

// Conventional reason names used by the built-in gates and executors.
const (
	ReasonMaxConcurrency   = "max-concurrency"
	ReasonCircuitOpen      = "circuit-open"
	ReasonRateExceeded     = "rate-exceeded"
	ReasonExecutorShutdown = "executor-shutdown"
)

// Size returns the number of reasons in the class.
func (r *Rejections) Size() int {
	return len(r.names)
}

// Reason resolves a reason by name. Unknown names return an
// *InvalidReasonError naming the valid reasons.
func (r *Rejections) Reason(name string) (Reason, error) {
	i, ok := r.byName[name]
	if !ok {
		return Reason{}, &InvalidReasonError{Name: name, Valid: r.Names()}
	}
	return Reason{set: r, idx: i}, nil
}

// MustReason resolves a reason by name and panics on unknown names.
func (r *Rejections) MustReason(name string) Reason {
	reason, err := r.Reason(name)
	if err != nil {
		panic(err)
	}
	return reason
}

// Names returns the reason names in declaration order.
func (r *Rejections) Names() []string {
	return append([]string(nil), r.names...)
}

// Contains reports whether reason belongs to this class.
func (r *Rejections) Contains(reason Reason) bool {
	return reason.set == r
}

// Name returns the reason's name, or "<invalid>" for the zero Reason.
func (r Reason) Name() string {
	if r.set == nil {
		return "<invalid>"
	}
	return r.set.names[r.idx]
}

// Index returns the reason's position in its class.
func (r Reason) Index() int {
	return r.idx
}

// Valid reports whether the Reason was obtained from a class.
func (r Reason) Valid() bool {
	return r.set != nil
}

func (r Reason) String() string {
	return r.Name()
}
