// Package fanout runs independent tasks concurrently and waits for every one
// of them to settle.
//
// Unlike a fail-fast group, a task error never cancels its siblings: each
// task gets its own deadline, and its result is reported in its own Outcome.
package fanout

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of work.
type Task struct {
	Name string
	// Timeout bounds this task only. Zero means no per-task deadline.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Outcome reports how a task settled.
type Outcome struct {
	Name     string
	Err      error
	Duration time.Duration
	TimedOut bool
}

// OK reports whether the task finished without error.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Run executes tasks with at most limit running at once (no bound when
// limit <= 0) and returns one Outcome per task in input order. It returns
// only after every task has settled.
//
// Cancelling ctx cancels tasks that are still running or waiting; their
// outcomes carry the context error.
func Run(ctx context.Context, limit int, tasks []Task) []Outcome {
	outcomes := make([]Outcome, len(tasks))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, task := range tasks {
		g.Go(func() error {
			outcomes[i] = runOne(ctx, task)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func runOne(parent context.Context, task Task) (out Outcome) {
	out.Name = task.Name
	start := time.Now()
	defer func() { out.Duration = time.Since(start) }()

	if err := parent.Err(); err != nil {
		out.Err = err
		return out
	}

	ctx := parent
	if task.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, task.Timeout)
		defer cancel()
	}

	out.Err = task.Run(ctx)
	out.TimedOut = out.Err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && parent.Err() == nil
	return out
}
