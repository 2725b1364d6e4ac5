package executor_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/guardrail/executor"
	"github.com/jonwraymond/guardrail/metrics"
	"github.com/jonwraymond/guardrail/rail"
	"github.com/jonwraymond/guardrail/result"
)

func Example() {
	class := result.Standard()
	reasons := result.StandardRejections()

	counts, _ := metrics.NewCountRecorder(class, 60, time.Second)
	rejected, _ := metrics.NewRejectedRecorder(reasons, 60, time.Second)
	sem, _ := rail.NewSemaphore(10, reasons.MustReason(result.ReasonMaxConcurrency))

	r, _ := rail.NewBuilder("orders", counts, rejected).
		AddBackPressure("semaphore", sem).
		Build()

	pool, _ := executor.NewPool(executor.PoolConfig{PoolSize: 4})
	defer pool.Shutdown()

	f, _ := pool.Submit(r, func(ctx context.Context) (any, error) {
		return "shipped", nil
	}, 100*time.Millisecond)

	done, _ := f.Await(context.Background())
	fmt.Println(done.Outcome.Name(), done.Value)
	// Output: success shipped
}
