// Package breaker guards upstream endpoints with circuit breakers.
//
// Each Breaker runs the call it protects through a pipz.CircuitBreaker. Consecutive
// failures reaching the threshold open it until the cooldown has elapsed. The next caller
// is then admitted as the single half-open trial, and its outcome either closes the
// breaker or re-opens it for a fresh cooldown. Callers arriving while the trial is in
// flight are rejected.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// ErrOpen is returned by Execute when the breaker rejects a call without running it.
var ErrOpen = errors.New("circuit breaker open")

// State is the position of a breaker.
type State int

// Breaker states.
const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns the conventional upper-case name of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

func stateFromPipz(s string) State {
	switch s {
	case "open":
		return StateOpen
	case "half-open":
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// Settings configures a breaker.
type Settings struct {
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold int
	// Cooldown is how long the breaker stays open before admitting a trial call.
	Cooldown time.Duration
	// Clock drives the cooldown; nil means clockz.RealClock.
	Clock clockz.Clock
}

// DefaultSettings returns a threshold of 5 failures and a 30 second cooldown.
func DefaultSettings() Settings {
	return Settings{FailureThreshold: 5, Cooldown: 30 * time.Second}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.FailureThreshold <= 0 {
		s.FailureThreshold = d.FailureThreshold
	}
	if s.Cooldown <= 0 {
		s.Cooldown = d.Cooldown
	}
	if s.Clock == nil {
		s.Clock = clockz.RealClock
	}
	return s
}

// call carries one protected function through the pipz chain.
type call struct {
	fn  func(context.Context) error
	err error
	ran bool
}

// Breaker guards one upstream endpoint. It is safe for concurrent use.
type Breaker struct {
	settings Settings
	circuit  *pipz.CircuitBreaker[*call]

	mu            sync.Mutex
	trialInFlight bool
	failures      int
	lastFailure   time.Time
}

// New creates a closed breaker named after the endpoint it guards.
func New(name string, settings Settings) *Breaker {
	settings = settings.withDefaults()

	invoke := pipz.Apply(
		pipz.NewIdentity("invoke", "runs the guarded upstream call"),
		func(ctx context.Context, c *call) (*call, error) {
			c.ran = true
			c.err = c.fn(ctx)
			return c, c.err
		},
	)

	// pipz half-opens strictly after the reset timeout; one nanosecond less admits the
	// trial as soon as the cooldown has elapsed.
	circuit := pipz.NewCircuitBreaker(
		pipz.NewIdentity(name, "circuit breaker for "+name),
		invoke,
		settings.FailureThreshold,
		settings.Cooldown-time.Nanosecond,
	).WithClock(settings.Clock)

	return &Breaker{settings: settings, circuit: circuit}
}

// Execute runs fn if the breaker admits it and records the outcome. A non-nil error
// from fn counts as one failure; nil counts as a success. Rejected calls return ErrOpen
// and fn is not run.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	switch b.State() {
	case StateOpen:
		return ErrOpen
	case StateHalfOpen:
		if !b.reserveTrial() {
			return ErrOpen
		}
		defer b.releaseTrial()
	}

	c := &call{fn: fn}
	_, _ = b.circuit.Process(ctx, c)
	if !c.ran {
		return ErrOpen
	}

	b.mu.Lock()
	if c.err != nil {
		b.failures++
		b.lastFailure = b.settings.Clock.Now()
	} else {
		b.failures = 0
	}
	b.mu.Unlock()

	return c.err
}

func (b *Breaker) reserveTrial() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.trialInFlight {
		return false
	}
	b.trialInFlight = true
	return true
}

func (b *Breaker) releaseTrial() {
	b.mu.Lock()
	b.trialInFlight = false
	b.mu.Unlock()
}

// State returns the current state. An open breaker whose cooldown has elapsed reports
// HalfOpen.
func (b *Breaker) State() State {
	return stateFromPipz(b.circuit.GetState())
}

// Snapshot is a point-in-time view of a breaker.
type Snapshot struct {
	State       string    `json:"state"`
	Failures    int       `json:"failures"`
	ResumeAfter time.Time `json:"resume_after,omitempty"`
}

// Snapshot returns the current state, consecutive failure count and, while open, the
// time the next trial is admitted.
func (b *Breaker) Snapshot() Snapshot {
	state := b.State()

	b.mu.Lock()
	defer b.mu.Unlock()

	snap := Snapshot{State: state.String(), Failures: b.failures}
	if state == StateOpen {
		snap.ResumeAfter = b.lastFailure.Add(b.settings.Cooldown)
	}
	return snap
}
