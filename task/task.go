// Package task defines the unit of LLM-backed work the scheduler executes
// and the one-shot completion latch callers wait on.
package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"agentcoord.dev/agent"
	"agentcoord.dev/validator"
)

// Task is one unit of LLM-backed work. Once enqueued its prompt and policy
// fields must not be mutated; only the owning worker writes Result, exactly
// once, by calling SetResult.
type Task struct {
	// ID is an internally generated correlation identifier, used only for
	// log correlation. It plays no part in the public join() result map.
	ID string

	Name           string
	Prompt         string
	Agent          agent.Handle
	Priority       int
	TimeoutSeconds float64
	MaxRetries     int
	BackoffMs      int
	Constraint     validator.Validator
	FallbackPrompt string
	HasFallback    bool

	result    string
	done      chan struct{}
	closeOnce sync.Once
}

// New constructs a Task ready for the scheduler to enqueue. prompt and the
// policy fields should be fully set by the caller before enqueue; nothing
// after this point is safe to mutate concurrently with execution.
func New(name, prompt string, handle agent.Handle) *Task {
	return &Task{
		ID:             uuid.NewString(),
		Name:           name,
		Prompt:         prompt,
		Agent:          handle,
		BackoffMs:      200,
		TimeoutSeconds: 10,
		done:           make(chan struct{}),
	}
}

// Role extracts the agent's role, or the empty string if no agent was set.
func (t *Task) Role() string {
	if t.Agent == nil {
		return ""
	}
	return t.Agent.Role()
}

// SetResult populates the task's result and fires the completion latch.
// Safe to call at most meaningfully once; subsequent calls are no-ops
// because the latch is closed exactly once and the result is never
// overwritten after that point.
func (t *Task) SetResult(value string) {
	t.closeOnce.Do(func() {
		t.result = value
		close(t.done)
	})
}

// Done returns a channel that is closed exactly once, when the task
// completes. Any number of goroutines may select on it concurrently.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Result returns the task's result and whether the latch has fired. It is
// only meaningful to read the first return value when the second is true.
func (t *Task) Result() (string, bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return "", false
	}
}

// Wait blocks until the task completes, ctx is done, or timeout elapses
// (timeout <= 0 means no additional bound beyond ctx). It returns the
// result and whether the task actually completed before the wait ended.
func (t *Task) Wait(ctx context.Context, timeout time.Duration) (string, bool) {
	if v, ok := t.Result(); ok {
		return v, true
	}
	var timer *time.Timer
	var timerC <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		defer timer.Stop()
		timerC = timer.C
	}
	select {
	case <-t.done:
		return t.result, true
	case <-ctx.Done():
		return "", false
	case <-timerC:
		return "", false
	}
}
