package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MeKo-Tech/wsm/internal/pipeline"
)

// mockWearer simulates image processing for testing
type mockWearer struct {
	delay     time.Duration
	fail      map[string]bool // inputs that should fail
	callCount atomic.Int32
}

func (m *mockWearer) Wear(ctx context.Context, input, output string, seed int64) (pipeline.Report, error) {
	m.callCount.Add(1)

	select {
	case <-ctx.Done():
		return pipeline.Report{}, ctx.Err()
	case <-time.After(m.delay):
	}

	if m.fail[input] {
		return pipeline.Report{}, errors.New("simulated failure")
	}
	if output == "" {
		output = input
	}
	return pipeline.Report{Input: input, Output: output, Seed: seed}, nil
}

func tasksFor(inputs ...string) []Task {
	tasks := make([]Task, len(inputs))
	for i, in := range inputs {
		tasks[i] = Task{Input: in, Seed: int64(i)}
	}
	return tasks
}

func TestPool_BasicExecution(t *testing.T) {
	w := &mockWearer{delay: 10 * time.Millisecond}
	pool := New(Config{Workers: 2, Wearer: w})

	tasks := tasksFor("a.png", "b.png", "c.png")
	results := pool.Run(context.Background(), tasks)

	if len(results) != len(tasks) {
		t.Fatalf("Expected %d results, got %d", len(tasks), len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("Unexpected error for %s: %v", r.Task.Input, r.Err)
		}
		if r.Task != tasks[i] {
			t.Errorf("Result %d out of order: got %+v, want %+v", i, r.Task, tasks[i])
		}
		if r.Report.Seed != int64(i) {
			t.Errorf("Result %d seed = %d, want %d", i, r.Report.Seed, i)
		}
	}
	if w.callCount.Load() != int32(len(tasks)) {
		t.Errorf("Expected %d calls, got %d", len(tasks), w.callCount.Load())
	}
}

func TestPool_Parallelism(t *testing.T) {
	w := &mockWearer{delay: 50 * time.Millisecond}
	pool := New(Config{Workers: 4, Wearer: w})

	tasks := tasksFor("1", "2", "3", "4", "5", "6", "7", "8")

	start := time.Now()
	results := pool.Run(context.Background(), tasks)
	elapsed := time.Since(start)

	// 8 tasks / 4 workers at 50ms each is ~100ms
	if elapsed > 200*time.Millisecond {
		t.Errorf("Expected parallel execution in ~100ms, took %v", elapsed)
	}
	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	w := &mockWearer{
		delay: 5 * time.Millisecond,
		fail:  map[string]bool{"broken.png": true},
	}
	pool := New(Config{Workers: 2, Wearer: w})

	results := pool.Run(context.Background(), tasksFor("ok.png", "broken.png", "fine.png"))

	var failCount int
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		failCount++
		if r.Task.Input != "broken.png" {
			t.Errorf("Unexpected failure for %s", r.Task.Input)
		}
	}
	if failCount != 1 {
		t.Errorf("Expected 1 failure, got %d", failCount)
	}
}

func TestPool_Cancellation(t *testing.T) {
	w := &mockWearer{delay: 100 * time.Millisecond}
	pool := New(Config{Workers: 2, Wearer: w})

	tasks := tasksFor("0", "1", "2", "3", "4", "5", "6", "7", "8", "9")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	results := pool.Run(ctx, tasks)
	elapsed := time.Since(start)

	if elapsed > 250*time.Millisecond {
		t.Errorf("Expected early cancellation, took %v", elapsed)
	}
	if len(results) != len(tasks) {
		t.Fatalf("Expected a result for every task, got %d", len(results))
	}

	var cancelled int
	for _, r := range results {
		if errors.Is(r.Err, context.Canceled) {
			cancelled++
		}
	}
	if cancelled < len(tasks)-2 {
		t.Errorf("Expected most tasks cancelled, got %d", cancelled)
	}
}

func TestPool_ProgressCallback(t *testing.T) {
	w := &mockWearer{delay: 5 * time.Millisecond}

	var calls atomic.Int32
	var lastCompleted, lastTotal int
	pool := New(Config{
		Workers: 2,
		Wearer:  w,
		OnProgress: func(completed, total, failed int) {
			calls.Add(1)
			lastCompleted = completed
			lastTotal = total
		},
	})

	tasks := tasksFor("a", "b", "c")
	pool.Run(context.Background(), tasks)

	if calls.Load() != int32(len(tasks)) {
		t.Errorf("Expected %d progress callbacks, got %d", len(tasks), calls.Load())
	}
	if lastCompleted != len(tasks) || lastTotal != len(tasks) {
		t.Errorf("Expected final progress %d/%d, got %d/%d", len(tasks), len(tasks), lastCompleted, lastTotal)
	}
}

func TestPool_EmptyTasks(t *testing.T) {
	w := &mockWearer{}
	pool := New(Config{Workers: 2, Wearer: w})

	if results := pool.Run(context.Background(), nil); len(results) != 0 {
		t.Errorf("Expected 0 results for empty tasks, got %d", len(results))
	}
	if w.callCount.Load() != 0 {
		t.Errorf("Expected 0 calls for empty tasks, got %d", w.callCount.Load())
	}
}

func TestPool_DefaultsToOneWorker(t *testing.T) {
	pool := New(Config{Wearer: &mockWearer{}})
	if pool.workers != 1 {
		t.Errorf("Expected 1 worker, got %d", pool.workers)
	}
}
