// Package worker runs wear jobs for several images in parallel.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/MeKo-Tech/wsm/internal/pipeline"
)

// Wearer processes one image. *pipeline.Wearer satisfies it.
type Wearer interface {
	Wear(ctx context.Context, input, output string, seed int64) (pipeline.Report, error)
}

// Task is a single image to wear.
type Task struct {
	Input  string
	Output string
	Seed   int64
}

// Result is the outcome of a Task.
type Result struct {
	Task    Task
	Report  pipeline.Report
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Wearer     Wearer
	OnProgress ProgressFunc
}

// Pool fans tasks out to a fixed number of workers.
type Pool struct {
	workers    int
	wearer     Wearer
	onProgress ProgressFunc
}

// New creates a pool. Workers <= 0 means one worker.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		wearer:     cfg.Wearer,
		onProgress: cfg.OnProgress,
	}
}

// Run executes all tasks and returns one result per task, in task order.
// Tasks not started before ctx is cancelled report ctx.Err().
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	results := make([]Result, len(tasks))
	indexes := make(chan int)

	var (
		mu        sync.Mutex
		completed int
		failed    int
	)
	finish := func(i int, r Result) {
		results[i] = r

		mu.Lock()
		completed++
		if r.Err != nil {
			failed++
		}
		c, f := completed, failed
		if p.onProgress != nil {
			p.onProgress(c, len(tasks), f)
		}
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				finish(i, p.run(ctx, tasks[i]))
			}
		}()
	}

	next := 0
feed:
	for ; next < len(tasks); next++ {
		select {
		case indexes <- next:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	for i := next; i < len(tasks); i++ {
		finish(i, Result{Task: tasks[i], Err: ctx.Err()})
	}
	return results
}

func (p *Pool) run(ctx context.Context, task Task) Result {
	if err := ctx.Err(); err != nil {
		return Result{Task: task, Err: err}
	}

	start := time.Now()
	report, err := p.wearer.Wear(ctx, task.Input, task.Output, task.Seed)
	return Result{
		Task:    task,
		Report:  report,
		Err:     err,
		Elapsed: time.Since(start),
	}
}
