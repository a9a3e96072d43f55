// Package coordinator is the builder/facade surface programs use to
// declare tasks, wait on results, and exchange bus notifications. It wires
// together cache, metrics, scheduler, and bus into the single constructor
// surface described in SPEC_FULL.md §4.3 and §6.
package coordinator

import (
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"agentcoord.dev/bus"
	"agentcoord.dev/cache"
	"agentcoord.dev/metrics"
	"agentcoord.dev/scheduler"
)

const (
	defaultCacheCapacity = 2048
	defaultBusCapacity   = 8192
	defaultWorkers       = 8
	minCacheCapacity     = 8
)

// Config holds the coordinator constructor's configuration options listed
// in SPEC_FULL.md §6. Zero values fall back to the documented defaults.
type Config struct {
	// Workers is the number of scheduler worker goroutines. Must be >= 1;
	// values below 1 select the default of 8.
	Workers int

	// Seed is accepted but unused by the core, preserved for interface
	// parity with the reference implementation.
	Seed int64

	// CacheCapacity is the prefix cache's key capacity. Must be >= 8.
	CacheCapacity int

	// BusCapacity is the event bus's bounded queue length. Must be >= 1.
	BusCapacity int

	// Logger overrides the default no-op logger. When nil, a disabled
	// logger is used so the core is silent unless a caller opts in.
	Logger *zerolog.Logger

	// RateLimit and RateBurst configure an optional token-bucket limiter
	// applied to LLM invocation. RateLimit <= 0 leaves LLM calls
	// unthrottled (the default).
	RateLimit rate.Limit
	RateBurst int

	// CoalesceLLM opts into single-flight de-duplication of concurrent
	// identical-prompt LLM calls. Default false.
	CoalesceLLM bool
}

func (c Config) normalized() Config {
	if c.Workers < 1 {
		c.Workers = defaultWorkers
	}
	if c.CacheCapacity < minCacheCapacity {
		if c.CacheCapacity == 0 {
			c.CacheCapacity = defaultCacheCapacity
		} else {
			c.CacheCapacity = minCacheCapacity
		}
	}
	if c.BusCapacity < 1 {
		c.BusCapacity = defaultBusCapacity
	}
	return c
}

// Coordinator is the program-facing facade. Construct with New.
type Coordinator struct {
	cache     *cache.Cache
	metrics   *metrics.Metrics
	scheduler *scheduler.Scheduler
	bus       *bus.Bus
	log       zerolog.Logger
}

// New builds a Coordinator from cfg, starting its scheduler workers and
// bus consumer immediately. A program still needs to call UseLLM before
// scheduling tasks that expect a real LLM, though the scheduler will run
// with the reference placeholder LLM (`[LLM:role] prompt`) until then.
func New(cfg Config) *Coordinator {
	cfg = cfg.normalized()

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	c := cache.New(cfg.CacheCapacity)
	m := metrics.New()

	var schedOpts []scheduler.Option
	schedOpts = append(schedOpts, scheduler.WithLogger(log))
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		schedOpts = append(schedOpts, scheduler.WithRateLimiter(rate.NewLimiter(cfg.RateLimit, burst)))
	}
	if cfg.CoalesceLLM {
		schedOpts = append(schedOpts, scheduler.WithRequestCoalescing())
	}

	sched := scheduler.New(cfg.Workers, c, m, schedOpts...)
	b := bus.New(cfg.BusCapacity, bus.WithLogger(log))

	return &Coordinator{
		cache:     c,
		metrics:   m,
		scheduler: sched,
		bus:       b,
		log:       log,
	}
}

// UseLLM sets the LLM function the scheduler invokes and toggles cache
// participation. Calling it again replaces both.
func (c *Coordinator) UseLLM(fn scheduler.LLMFunc, useCache bool) {
	c.scheduler.Configure(fn, useCache)
}

// On registers fn as a subscriber on topic, delegating to the bus.
func (c *Coordinator) On(topic string, fn bus.Handler) {
	c.bus.Subscribe(topic, fn)
}

// Emit publishes payload to topic, delegating to the bus.
func (c *Coordinator) Emit(topic string, payload interface{}) {
	c.bus.Publish(topic, payload)
}

// Metrics returns the coordinator's metrics recorder, for callers that
// want to inspect or export it directly (to_dict/write_csv equivalents).
func (c *Coordinator) Metrics() *metrics.Metrics {
	return c.metrics
}

// Cache returns the coordinator's prefix cache, for callers that want to
// pre-populate or inspect it directly.
func (c *Coordinator) Cache() *cache.Cache {
	return c.cache
}

// Shutdown stops the scheduler's workers and the bus's consumer. Both
// stops run concurrently since they are independent; Shutdown returns once
// both have completed.
func (c *Coordinator) Shutdown() {
	var g errgroup.Group
	g.Go(func() error {
		c.scheduler.Stop()
		return nil
	})
	g.Go(func() error {
		c.bus.Shutdown()
		return nil
	})
	_ = g.Wait()
}
