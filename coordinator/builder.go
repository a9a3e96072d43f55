package coordinator

import (
	"agentcoord.dev/agent"
	"agentcoord.dev/task"
	"agentcoord.dev/validator"
)

// TaskBuilder accumulates a task's policy fields before scheduling it.
// Returned by Gen; each With* method mutates and returns the receiver so
// calls can be chained.
type TaskBuilder struct {
	coord *Coordinator
	t     *task.Task
}

// Gen declares a new task with the given name, prompt, and agent. agentVal
// may be a string role or a value implementing agent.Handle; anything else
// is stringified. The returned builder has not been scheduled yet.
func (c *Coordinator) Gen(name, prompt string, agentVal interface{}) *TaskBuilder {
	return &TaskBuilder{
		coord: c,
		t:     task.New(name, prompt, agent.Resolve(agentVal)),
	}
}

// WithPriority sets the task's priority; higher values run first among
// tasks with equal prefix length.
func (b *TaskBuilder) WithPriority(priority int) *TaskBuilder {
	b.t.Priority = priority
	return b
}

// WithTimeout sets the task's advisory timeout, in seconds. The scheduler
// derives the context it passes to the LLM function and the rate limiter
// from it; Join and Task.Wait do not read it and take their own bounds.
func (b *TaskBuilder) WithTimeout(seconds float64) *TaskBuilder {
	b.t.TimeoutSeconds = seconds
	return b
}

// WithRetries sets the maximum retry count and, optionally, the base
// backoff in milliseconds (default 200, matching the reference scheduler).
func (b *TaskBuilder) WithRetries(maxRetries int, backoffMs ...int) *TaskBuilder {
	b.t.MaxRetries = maxRetries
	if len(backoffMs) > 0 {
		b.t.BackoffMs = backoffMs[0]
	}
	return b
}

// WithContract attaches a Validator the task's output must satisfy.
func (b *TaskBuilder) WithContract(v validator.Validator) *TaskBuilder {
	b.t.Constraint = v
	return b
}

// WithRegex is shorthand for WithContract(validator.NewContract(...).WithRegex(pattern)).
// An invalid pattern panics, since task-builder call sites overwhelmingly
// pass compile-time literal patterns.
func (b *TaskBuilder) WithRegex(pattern string) *TaskBuilder {
	b.t.Constraint = validator.NewContract(b.t.Name + "-re").MustWithRegex(pattern)
	return b
}

// WithFallback sets a secondary prompt invoked once after retries are
// exhausted without a validating result.
func (b *TaskBuilder) WithFallback(prompt string) *TaskBuilder {
	b.t.FallbackPrompt = prompt
	b.t.HasFallback = true
	return b
}

// Schedule enqueues the task and returns its handle immediately; the task
// executes asynchronously.
func (b *TaskBuilder) Schedule() *task.Task {
	b.coord.scheduler.Enqueue(b.t)
	return b.t
}
