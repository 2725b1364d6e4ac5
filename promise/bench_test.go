package promise

import (
	"testing"

	"github.com/jonwraymond/guardrail/result"
)

func BenchmarkPromise_Complete(b *testing.B) {
	class := result.Standard()
	success := class.MustType("success")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p := NewPromise(class)
		_, _ = p.Complete(success, i)
	}
}

func BenchmarkFuture_StatusQuery(b *testing.B) {
	class := result.Standard()
	p := NewPromise(class)
	_, _ = p.Complete(class.MustType("success"), "v")
	f := p.Future()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := f.Outcome(); !ok {
			b.Fatal("outcome missing")
		}
	}
}
