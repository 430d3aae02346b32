package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [CircuitBreaker.Execute] instead of calling
// through while the breaker rejects traffic.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Breaker defaults, used for zero config fields.
const (
	DefaultMaxFailures  = 5
	DefaultResetTimeout = 30 * time.Second
	DefaultHalfOpenMax  = 3
)

// State is the mode of a [CircuitBreaker].
type State int

const (
	// StateClosed passes every call through.
	StateClosed State = iota
	// StateOpen rejects calls until ResetTimeout has passed since it opened.
	StateOpen
	// StateHalfOpen lets up to HalfOpenMax probes through. One failed probe
	// reopens the breaker; HalfOpenMax successful ones close it.
	StateHalfOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// CircuitBreakerConfig tunes a [CircuitBreaker].
type CircuitBreakerConfig struct {
	// Name labels the breaker in logs and in OnStateChange.
	Name string

	// MaxFailures is the run of consecutive failures that opens a closed
	// breaker. Default: [DefaultMaxFailures].
	MaxFailures int

	// ResetTimeout is how long the breaker stays open. Default:
	// [DefaultResetTimeout].
	ResetTimeout time.Duration

	// HalfOpenMax is the probe budget in the half-open state. Default:
	// [DefaultHalfOpenMax].
	HalfOpenMax int

	// OnStateChange is called after every transition, outside the breaker's
	// lock.
	OnStateChange func(name string, from, to State)
}

// CircuitBreaker guards calls to one backend.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    State
	failures int       // consecutive, while closed
	openedAt time.Time // while open
	probes   int       // admitted, while half-open
	passed   int       // succeeded, while half-open
}

type transition struct {
	from, to State
}

// NewCircuitBreaker returns a closed breaker configured by cfg.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = DefaultResetTimeout
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = DefaultHalfOpenMax
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// Name returns the configured label.
func (cb *CircuitBreaker) Name() string { return cb.cfg.Name }

// State reports the breaker's mode. An open breaker whose timeout has passed
// reports [StateHalfOpen]; the transition itself happens on the next call.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateOpen && cb.cooledDown() {
		return StateHalfOpen
	}
	return cb.state
}

// Execute calls fn unless the breaker rejects it with [ErrCircuitOpen], and
// books fn's result.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	probe, tr, err := cb.admit()
	cb.notify(tr)
	if err != nil {
		return err
	}

	callErr := fn()

	cb.notify(cb.settle(probe, callErr))
	return callErr
}

func (cb *CircuitBreaker) cooledDown() bool {
	return cb.now().Sub(cb.openedAt) >= cb.cfg.ResetTimeout
}

// admit decides whether a call may proceed and whether it counts as a probe.
func (cb *CircuitBreaker) admit() (probe bool, tr *transition, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if !cb.cooledDown() {
			return false, nil, ErrCircuitOpen
		}
		cb.probes, cb.passed = 0, 0
		tr = cb.moveTo(StateHalfOpen)
	}
	if cb.state == StateHalfOpen {
		if cb.probes >= cb.cfg.HalfOpenMax {
			return false, tr, ErrCircuitOpen
		}
		cb.probes++
		return true, tr, nil
	}
	return false, tr, nil
}

// settle books the outcome of an admitted call.
func (cb *CircuitBreaker) settle(probe bool, err error) *transition {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch {
	case probe && cb.state != StateHalfOpen:
		// Another probe already decided the outcome.
		return nil
	case err != nil && probe:
		cb.openedAt = cb.now()
		return cb.moveTo(StateOpen)
	case err != nil:
		cb.failures++
		if cb.failures < cb.cfg.MaxFailures {
			return nil
		}
		cb.openedAt = cb.now()
		return cb.moveTo(StateOpen)
	case probe:
		cb.passed++
		if cb.passed < cb.cfg.HalfOpenMax {
			return nil
		}
		cb.failures = 0
		return cb.moveTo(StateClosed)
	default:
		cb.failures = 0
		return nil
	}
}

// moveTo switches state under cb.mu and returns the change for notify.
func (cb *CircuitBreaker) moveTo(to State) *transition {
	if cb.state == to {
		return nil
	}
	tr := &transition{from: cb.state, to: to}
	cb.state = to
	return tr
}

func (cb *CircuitBreaker) notify(tr *transition) {
	if tr == nil {
		return
	}
	log := slog.Info
	if tr.to == StateOpen {
		log = slog.Warn
	}
	log("circuit breaker state changed", "name", cb.cfg.Name, "from", tr.from.String(), "to", tr.to.String())
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, tr.from, tr.to)
	}
}
