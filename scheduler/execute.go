package scheduler

import (
	"context"
	"fmt"
	"time"

	"agentcoord.dev/task"
)

// execute runs a popped task through the state machine described in
// SPEC_FULL.md §4.2: fast-path cache hit, attempt loop with retry and
// backoff, fallback on exhaustion, cache put on success, and completion.
func (s *Scheduler) execute(t *task.Task) {
	start := time.Now()
	role := t.Role()

	if s.useCache.Load() && s.cache != nil {
		if length, value, ok := s.cache.GetWithLMP(t.Prompt); ok && length == len(t.Prompt) {
			t.SetResult(value)
			s.recordComplete(start, true)
			return
		}
	}

	llm := s.currentLLM()
	ctx, cancel := s.taskContext(t)
	defer cancel()

	output, ok := s.attemptLoop(ctx, t, llm, role)

	if !ok && t.HasFallback {
		output, ok = s.fallbackAttempt(ctx, t, llm, role)
	}

	if ok && s.useCache.Load() && s.cache != nil {
		s.cache.Put(t.Prompt, output)
	}

	if !ok {
		output = fmt.Sprintf("[error:%s] %s", t.Name, output)
	}

	t.SetResult(output)
	s.recordComplete(start, false)
}

func (s *Scheduler) taskContext(t *task.Task) (context.Context, context.CancelFunc) {
	if t.TimeoutSeconds <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), time.Duration(t.TimeoutSeconds*float64(time.Second)))
}

// attemptLoop reproduces the reference scheduler's retry loop exactly:
// attempts starts at 0; each iteration calls the LLM and, on failure,
// increments attempts and, while attempts does not exceed max_retries,
// sleeps backoff_ms*2^(attempts-1) ms before looping again.
func (s *Scheduler) attemptLoop(ctx context.Context, t *task.Task, llm LLMFunc, role string) (string, bool) {
	attempts := 0
	var output string
	ok := false
	for attempts <= t.MaxRetries && !ok {
		output, ok = s.callAndValidate(ctx, t, llm, t.Prompt, role)
		if !ok {
			attempts++
			s.log.Warn().
				Str("task", t.Name).
				Int("attempt", attempts).
				Msg("scheduler: attempt failed")
			if attempts <= t.MaxRetries {
				backoff := time.Duration(t.BackoffMs) * time.Millisecond * time.Duration(pow2(attempts-1))
				time.Sleep(backoff)
			}
		}
	}
	return output, ok
}

// fallbackAttempt invokes the fallback prompt once. Unlike the primary
// attempt loop, the fallback result is not re-run through the task's
// constraint: a non-error response is accepted unconditionally, matching
// the reference scheduler's fallback branch.
func (s *Scheduler) fallbackAttempt(ctx context.Context, t *task.Task, llm LLMFunc, role string) (string, bool) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err.Error(), false
		}
	}
	out, err := s.callLLM(ctx, llm, t.FallbackPrompt, role)
	if err != nil {
		s.log.Error().Str("task", t.Name).Err(err).Msg("scheduler: fallback attempt also failed")
		return err.Error(), false
	}
	return out, true
}

// callAndValidate invokes the rate limiter and optional coalescer, calls
// the LLM, and runs the task's constraint (if any) against a successful
// result. A nil llm is treated the same as the reference scheduler's
// "no LLM configured" placeholder. On failure it returns the raw reason
// (the LLM error text or the rejected output); execute tags the final
// failure with "[error:<name>]" once all attempts and fallback are spent.
func (s *Scheduler) callAndValidate(ctx context.Context, t *task.Task, llm LLMFunc, prompt, role string) (string, bool) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err.Error(), false
		}
	}

	out, err := s.callLLM(ctx, llm, prompt, role)
	if err != nil {
		return err.Error(), false
	}
	if t.Constraint != nil {
		return out, t.Constraint.Validate(out)
	}
	return out, true
}

func (s *Scheduler) callLLM(ctx context.Context, llm LLMFunc, prompt, role string) (string, error) {
	if llm == nil {
		return fmt.Sprintf("[LLM:%s] %s", role, prompt), nil
	}
	if s.coalescer == nil {
		return llm(ctx, prompt, role)
	}
	key := role + "\x00" + prompt
	v, err, _ := s.coalescer.Do(key, func() (interface{}, error) {
		return llm(ctx, prompt, role)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Scheduler) recordComplete(start time.Time, fullHit bool) {
	if s.metrics == nil {
		return
	}
	latencyMs := float64(time.Since(start)) / float64(time.Millisecond)
	s.metrics.OnComplete(latencyMs, fullHit)
}

func pow2(exp int) int64 {
	if exp < 0 {
		return 1
	}
	return int64(1) << uint(exp)
}
