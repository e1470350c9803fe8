// Package resilience wraps calls to external collaborators with retries and
// circuit breakers.
package resilience

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// BreakerState is the state of a Breaker.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned without calling through while a breaker is open.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// BreakerSettings configures a Breaker.
type BreakerSettings struct {
	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold int
	// Cooldown is how long the breaker stays open before a probe is allowed.
	Cooldown time.Duration
	// Counts decides which errors count as failures. Nil counts every error
	// except context cancellation.
	Counts func(err error) bool
}

// DefaultBreakerSettings returns the settings used when nothing is configured.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{FailureThreshold: 5, Cooldown: 30 * time.Second}
}

// Breaker guards one external service.
type Breaker struct {
	name     string
	settings BreakerSettings
	now      func() time.Time

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker creates a closed breaker.
func NewBreaker(name string, s BreakerSettings) *Breaker {
	def := DefaultBreakerSettings()
	if s.FailureThreshold <= 0 {
		s.FailureThreshold = def.FailureThreshold
	}
	if s.Cooldown <= 0 {
		s.Cooldown = def.Cooldown
	}
	if s.Counts == nil {
		s.Counts = func(err error) bool { return ClassifyError(err) != ClassCanceled }
	}
	return &Breaker{name: name, settings: s, now: time.Now}
}

// Call runs fn through the breaker b.
func Call[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.admit(); err != nil {
		return zero, err
	}
	val, err := fn(ctx)
	b.record(err)
	return val, err
}

// State returns the breaker's current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.cooledDown() {
		return StateHalfOpen
	}
	return b.state
}

// Failures returns the consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset closes the breaker.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setState(StateClosed)
	b.failures = 0
	b.probing = false
}

func (b *Breaker) cooledDown() bool {
	return b.now().Sub(b.openedAt) >= b.settings.Cooldown
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if !b.cooledDown() {
			return eris.Wrapf(ErrCircuitOpen, "resilience: %s", b.name)
		}
		b.setState(StateHalfOpen)
		b.probing = true
	case StateHalfOpen:
		// One probe at a time.
		if b.probing {
			return eris.Wrapf(ErrCircuitOpen, "resilience: %s probe in flight", b.name)
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if err == nil || !b.settings.Counts(err) {
		if b.state == StateHalfOpen {
			b.setState(StateClosed)
		}
		b.failures = 0
		return
	}

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.settings.FailureThreshold {
		b.openedAt = b.now()
		b.setState(StateOpen)
	}
}

func (b *Breaker) setState(to BreakerState) {
	if b.state == to {
		return
	}
	zap.L().Info("circuit breaker state change",
		zap.String("service", b.name),
		zap.String("from", b.state.String()),
		zap.String("to", to.String()),
	)
	b.state = to
}

// Breakers is a registry of per-service breakers sharing one setting.
type Breakers struct {
	settings BreakerSettings

	mu sync.Mutex
	m  map[string]*Breaker
}

// NewBreakers creates an empty registry.
func NewBreakers(s BreakerSettings) *Breakers {
	return &Breakers{settings: s, m: make(map[string]*Breaker)}
}

// For returns the breaker for service, creating it on first use.
func (r *Breakers) For(service string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.m[service]
	if !ok {
		b = NewBreaker(service, r.settings)
		r.m[service] = b
	}
	return b
}

// BreakerStatus is a point-in-time view of one breaker.
type BreakerStatus struct {
	Service  string `json:"service"`
	State    string `json:"state"`
	Failures int    `json:"failures"`
}

// Snapshot lists every registered breaker sorted by service name.
func (r *Breakers) Snapshot() []BreakerStatus {
	r.mu.Lock()
	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)

	out := make([]BreakerStatus, 0, len(names))
	for _, name := range names {
		b := r.For(name)
		out = append(out, BreakerStatus{Service: name, State: b.State().String(), Failures: b.Failures()})
	}
	return out
}
