package coordinator

import (
	"context"
	"fmt"
	"time"

	"agentcoord.dev/task"
)

// Join waits on tasks according to mode ("all" or "any") and returns a map
// from task name to result for whichever tasks it waited successfully on.
// withinMs is optional; when given, it bounds the wall-clock budget as
// described in SPEC_FULL.md §4.3. Any mode other than "all"/"any" panics
// as a programmer error.
func (c *Coordinator) Join(tasks []*task.Task, mode string, withinMs ...int64) map[string]string {
	var budget time.Duration
	hasBudget := false
	if len(withinMs) > 0 && withinMs[0] > 0 {
		budget = time.Duration(withinMs[0]) * time.Millisecond
		hasBudget = true
	}

	switch mode {
	case "all":
		return joinAll(tasks, hasBudget, budget)
	case "any":
		return joinAny(tasks, hasBudget, budget)
	default:
		panic(fmt.Sprintf("coordinator: join: unknown mode %q", mode))
	}
}

// joinAll waits for every task in order. Each wait is bounded by the full
// within_ms budget (not a shrinking remainder), matching the reference
// implementation. Once the cumulative elapsed time already meets the
// budget, remaining tasks are left out of the result map entirely.
func joinAll(tasks []*task.Task, hasBudget bool, budget time.Duration) map[string]string {
	results := make(map[string]string, len(tasks))
	start := time.Now()
	ctx := context.Background()
	for _, t := range tasks {
		if hasBudget && time.Since(start) >= budget {
			break
		}
		wait := time.Duration(0)
		if hasBudget {
			wait = budget
		}
		if v, ok := t.Wait(ctx, wait); ok {
			results[t.Name] = v
		}
	}
	return results
}

// joinAny returns as soon as one of tasks completes, as a singleton map.
// If a budget is given and no task completes within it, it returns an
// empty map. Tasks that lose the race keep running to completion; no
// cancellation is propagated.
func joinAny(tasks []*task.Task, hasBudget bool, budget time.Duration) map[string]string {
	if len(tasks) == 0 {
		return map[string]string{}
	}

	type arrival struct {
		name, result string
	}
	arrivals := make(chan arrival, len(tasks))
	for _, t := range tasks {
		t := t
		go func() {
			<-t.Done()
			v, _ := t.Result()
			arrivals <- arrival{t.Name, v}
		}()
	}

	var timeoutC <-chan time.Time
	if hasBudget {
		timer := time.NewTimer(budget)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case a := <-arrivals:
		return map[string]string{a.name: a.result}
	case <-timeoutC:
		return map[string]string{}
	}
}
