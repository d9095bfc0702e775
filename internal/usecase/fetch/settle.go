package fetch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Outcome is the settled result of one task: a value or the reason it failed.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Settle runs every task concurrently and waits for all of them. A failing
// task never cancels its siblings, so the batch always reports one outcome
// per task, in task order.
func Settle[T any](ctx context.Context, tasks ...func(context.Context) (T, error)) []Outcome[T] {
	outcomes := make([]Outcome[T], len(tasks))

	// A plain Group: errgroup.WithContext would cancel siblings on the
	// first failure, and tasks here report failure through their Outcome.
	var eg errgroup.Group
	for i, task := range tasks {
		eg.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = Outcome[T]{Err: fmt.Errorf("task %d panicked: %v", i, r)}
				}
			}()
			value, err := task(ctx)
			outcomes[i] = Outcome[T]{Value: value, Err: err}
			return nil
		})
	}
	_ = eg.Wait()

	return outcomes
}

// Failed counts the outcomes that carry an error.
func Failed[T any](outcomes []Outcome[T]) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
