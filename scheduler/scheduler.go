// Package scheduler implements the priority-queue worker pool that
// executes tasks: cache fast-path lookup, LLM invocation with retry and
// backoff, validator-gated acceptance, fallback on exhaustion, and
// cache-put on success.
package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/rs/zerolog"

	"agentcoord.dev/cache"
	"agentcoord.dev/metrics"
	"agentcoord.dev/task"
)

// LLMFunc is the injected LLM invocation contract: a synchronous call that
// may return an error (treated as a non-validating attempt) and may block
// arbitrarily. The scheduler never cancels an in-flight call.
type LLMFunc func(ctx context.Context, prompt, role string) (string, error)

// Scheduler is the fixed-size worker pool and priority queue described in
// SPEC_FULL.md §4.2. Construct with New, wire an LLM function with
// Configure, enqueue work with Enqueue, and release workers with Stop.
type Scheduler struct {
	workers int
	cache   *cache.Cache
	metrics *metrics.Metrics
	log     zerolog.Logger

	mu   sync.Mutex
	cond *sync.Cond
	heap taskHeap

	seq      atomic.Int64
	stopped  atomic.Bool
	stopOnce sync.Once
	wg       sync.WaitGroup

	llmMu    sync.RWMutex
	llm      LLMFunc
	useCache atomic.Bool

	limiter   *rate.Limiter
	coalescer *singleflight.Group
}

// Option configures a Scheduler at construction.
type Option func(*Scheduler)

// WithLogger overrides the default no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithRateLimiter installs a token-bucket limiter applied immediately
// before every LLM invocation (primary attempts, retries, and the
// fallback call). Disabled by default; passing a nil limiter is a no-op.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(s *Scheduler) { s.limiter = limiter }
}

// WithRequestCoalescing enables opt-in single-flight de-duplication of
// concurrent LLM calls that share the same (prompt, role) key. Disabled by
// default, which preserves the documented no-single-flight race.
func WithRequestCoalescing() Option {
	return func(s *Scheduler) { s.coalescer = &singleflight.Group{} }
}

// New creates a Scheduler with the given fixed worker count and starts its
// worker goroutines. workers below 1 is treated as 1.
func New(workers int, c *cache.Cache, m *metrics.Metrics, opts ...Option) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	s := &Scheduler{
		workers: workers,
		cache:   c,
		metrics: m,
		log:     zerolog.Nop(),
	}
	s.cond = sync.NewCond(&s.mu)
	s.useCache.Store(true)
	for _, opt := range opts {
		opt(s)
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.runWorker(i)
	}
	return s
}

// Configure sets the LLM function used by every worker and toggles cache
// participation. Calling it again replaces both. The two settings are
// stored separately, so an Enqueue or execute running at the same moment
// may observe one change before the other; a call already mid-execute
// continues with whichever LLM it already captured.
func (s *Scheduler) Configure(llm LLMFunc, useCache bool) {
	s.llmMu.Lock()
	s.llm = llm
	s.llmMu.Unlock()
	s.useCache.Store(useCache)
}

func (s *Scheduler) currentLLM() LLMFunc {
	s.llmMu.RLock()
	defer s.llmMu.RUnlock()
	return s.llm
}

// Enqueue computes the task's scheduling key from the current cache state
// (prefix length 0 when caching is disabled) and pushes it onto the
// priority queue. It returns immediately; the task executes asynchronously
// on whichever worker pops it.
func (s *Scheduler) Enqueue(t *task.Task) {
	prefixLen := 0
	if s.useCache.Load() && s.cache != nil {
		if length, _, ok := s.cache.GetWithLMP(t.Prompt); ok {
			prefixLen = length
		}
	}
	seq := s.seq.Add(1)
	item := &queueItem{prefixLen: prefixLen, priority: t.Priority, seq: seq, task: t}

	s.mu.Lock()
	heap.Push(&s.heap, item)
	s.mu.Unlock()
	s.cond.Signal()

	if s.metrics != nil {
		s.metrics.OnSubmit()
	}
}

// runWorker is the long-lived loop each worker goroutine runs: pop the
// highest-priority ready task (blocking on the condition variable when the
// queue is empty) and execute it to completion, until Stop is called.
func (s *Scheduler) runWorker(id int) {
	defer s.wg.Done()
	for {
		item, ok := s.popOrStop()
		if !ok {
			return
		}
		s.execute(item.task)
	}
}

// popOrStop pops the next task, or reports false once Stop has been
// called. It checks the stop flag before the queue: tasks still queued at
// the moment Stop fires are abandoned rather than drained, matching the
// shutdown-interaction error kind in SPEC_FULL.md §7.
func (s *Scheduler) popOrStop() (*queueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.stopped.Load() && s.heap.Len() == 0 {
		s.cond.Wait()
	}
	if s.stopped.Load() {
		return nil, false
	}
	item := heap.Pop(&s.heap).(*queueItem)
	return item, true
}

// Stop signals every worker to exit once its current task (if any)
// finishes, and waits for them to do so. Tasks still queued when Stop is
// called are abandoned, matching §7's shutdown-interaction error kind.
// Stop is idempotent.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler: stop timed out waiting for workers")
	}
}

// QueueLen reports the number of tasks currently waiting to be popped.
func (s *Scheduler) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heap.Len()
}
