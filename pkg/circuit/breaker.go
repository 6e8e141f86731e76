package circuit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"serp-comparator/pkg/logging"
	"serp-comparator/pkg/metrics"
)

// State represents the circuit breaker state
// Closed: normal operation; HalfOpen: probing; Open: fail fast
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Config tunes a circuit breaker instance.
type Config struct {
	Name string

	OperationTimeout  time.Duration // per-call timeout, 0 disables
	OpenFor           time.Duration // how long to stay open before probing
	MaxConsecFailures int           // consecutive failures to open
	WindowSize        int           // sliding window of recent calls
	FailureRate       float64       // 0..1 fraction in window to open
	MinCalls          int           // calls needed in the window before FailureRate applies
	SlowCallThreshold time.Duration // duration over which a call is considered slow
}

// DefaultConfig is what the outbound clients use unless told otherwise.
func DefaultConfig(name string) Config {
	return Config{
		Name:              name,
		OpenFor:           30 * time.Second,
		MaxConsecFailures: 5,
		WindowSize:        20,
		FailureRate:       0.5,
		MinCalls:          10,
		SlowCallThreshold: 10 * time.Second,
	}
}

// ErrOpen indicates the breaker is open and calls are short-circuited.
var ErrOpen = errors.New("circuit open")

type sample struct {
	success bool
}

type Breaker struct {
	cfg        Config
	mu         sync.Mutex
	st         State
	nextProbe  time.Time
	consecFail int
	probing    bool

	win  []sample
	idx  int
	used int

	log     *logging.ComponentLogger
	state   prometheus.Gauge
	events  *prometheus.CounterVec
	latency prometheus.Observer
}

// New builds a breaker. A nil m falls back to metrics.Default.
func New(cfg Config, log *logging.Logger, m *metrics.Metrics) *Breaker {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 20
	}
	if m == nil {
		m = metrics.Default
	}
	if log == nil {
		log = logging.Nop()
	}
	b := &Breaker{
		cfg:     cfg,
		st:      Closed,
		win:     make([]sample, cfg.WindowSize),
		log:     log.WithComponent("circuit"),
		state:   m.BreakerState.WithLabelValues(cfg.Name),
		events:  m.BreakerEvents.MustCurryWith(prometheus.Labels{"name": cfg.Name}),
		latency: m.BreakerLatency.WithLabelValues(cfg.Name),
	}
	b.state.Set(0)
	return b
}

// Name returns the configured breaker name.
func (b *Breaker) Name() string { return b.cfg.Name }

// State reports the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st
}

func (b *Breaker) event(name string) { b.events.WithLabelValues(name).Inc() }

func (b *Breaker) setStateLocked(st State) {
	if b.st == st {
		return
	}
	b.st = st
	switch st {
	case Open:
		b.event("open")
		b.nextProbe = time.Now().Add(b.cfg.OpenFor)
	case HalfOpen:
		b.event("half_open")
	}
	b.state.Set(float64(st))
	b.log.Info("breaker state change", logging.String("name", b.cfg.Name), logging.String("state", st.String()))
}

// record adds a sample into the ring and opens the breaker when a threshold trips.
func (b *Breaker) record(success bool) {
	b.win[b.idx] = sample{success: success}
	if b.used < len(b.win) {
		b.used++
	}
	b.idx = (b.idx + 1) % len(b.win)

	if b.st != Closed {
		return
	}
	if b.cfg.MaxConsecFailures > 0 && b.consecFail >= b.cfg.MaxConsecFailures {
		b.setStateLocked(Open)
		return
	}
	if b.cfg.FailureRate <= 0 || b.used < b.cfg.MinCalls {
		return
	}
	fail := 0
	for i := 0; i < b.used; i++ {
		if !b.win[i].success {
			fail++
		}
	}
	if float64(fail)/float64(b.used) >= b.cfg.FailureRate {
		b.setStateLocked(Open)
	}
}

// Do runs op under the breaker. When open it returns ErrOpen without calling op.
// Only one probe runs while half-open; concurrent callers are short-circuited.
func (b *Breaker) Do(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	switch b.st {
	case Open:
		if time.Now().Before(b.nextProbe) {
			b.mu.Unlock()
			return ErrOpen
		}
		b.setStateLocked(HalfOpen)
		b.probing = true
	case HalfOpen:
		if b.probing {
			b.mu.Unlock()
			return ErrOpen
		}
		b.probing = true
	}
	b.mu.Unlock()

	if b.cfg.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.OperationTimeout)
		defer cancel()
	}

	start := time.Now()
	err := op(ctx)
	dur := time.Since(start)
	b.latency.Observe(dur.Seconds())
	if b.cfg.SlowCallThreshold > 0 && dur > b.cfg.SlowCallThreshold {
		b.event("slow")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	if errors.Is(err, context.DeadlineExceeded) {
		b.event("timeout")
	}

	// Caller cancellation says nothing about the downstream's health.
	if errors.Is(err, context.Canceled) {
		if b.st == HalfOpen {
			b.setStateLocked(Open)
		}
		return err
	}

	if err != nil {
		b.consecFail++
		b.event("failure")
		b.record(false)
		if b.st == HalfOpen {
			b.setStateLocked(Open)
		}
		return err
	}

	b.consecFail = 0
	b.event("success")
	b.record(true)
	if b.st == HalfOpen {
		b.setStateLocked(Closed)
	}
	return nil
}
