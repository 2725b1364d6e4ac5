// Package result defines the closed outcome and rejection taxonomies a
// guard rail is constructed with.
//
// A result class is a finite, ordered set of outcomes, each tagged as a
// success or a failure. A rejection class is a finite, ordered set of
// reasons a gate may deny admission. Both are fixed at construction and
// act as the index space for counters and latency recorders: members are
// handed out as small index-carrying values so the hot path never hashes
// a name.
//
//	class, err := result.NewClass(
//	    result.Member{Name: "success"},
//	    result.Member{Name: "error", Failure: true},
//	    result.Member{Name: "timeout", Failure: true},
//	)
//	ok, _ := class.Type("success")
//
// The zero Type and zero Reason are invalid and rejected by every API
// that consumes them.
package result
