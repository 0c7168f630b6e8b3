// Package resilience implements a Closed/Open/HalfOpen circuit breaker
// guarding the external (Redis) cache tier: too many consecutive failures
// trip the breaker so a stalled cache fails fast rather than stalling every
// room command behind it. Store calls are not wrapped by a breaker.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when the breaker fast-fails without attempting the
// underlying operation.
var ErrOpen = errors.New("circuit breaker is open; fast-fail")

// Config tunes the failure threshold and the cool-down before a probe.
type Config struct {
	MaxFailures  int
	ResetTimeout time.Duration
}

// Breaker guards a dependency call behind Closed/Open/HalfOpen states.
type Breaker struct {
	name string
	cfg  Config
	log  *slog.Logger

	mu          sync.Mutex
	state       State
	recentFails int
	openedAt    time.Time

	probe func(ctx context.Context) error
}

// New builds a breaker. probe may be nil, in which case the half-open
// trial runs the operation directly instead of a dedicated health check.
func New(name string, cfg Config, probe func(ctx context.Context) error) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 10 * time.Second
	}
	return &Breaker{name: name, cfg: cfg, log: slog.Default().With(slog.String("breaker", name)), probe: probe}
}

// Execute runs op, tripping the breaker open after MaxFailures consecutive
// failures and fast-failing with ErrOpen until ResetTimeout has elapsed.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	state := b.state
	openedAt := b.openedAt
	b.mu.Unlock()

	if state == Open {
		if time.Since(openedAt) < b.cfg.ResetTimeout {
			return ErrOpen
		}
		return b.tryHalfOpen(ctx, op)
	}

	err := op(ctx)
	if err == nil {
		b.onSuccess()
		return nil
	}
	b.onFailure()
	return err
}

func (b *Breaker) tryHalfOpen(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	b.state = HalfOpen
	b.mu.Unlock()

	if b.probe != nil {
		if err := b.probe(ctx); err != nil {
			b.reopen()
			return ErrOpen
		}
	}

	if err := op(ctx); err != nil {
		b.reopen()
		return err
	}

	b.mu.Lock()
	b.state = Closed
	b.recentFails = 0
	b.mu.Unlock()
	b.log.Info("breaker_closed_after_probe")
	return nil
}

func (b *Breaker) reopen() {
	b.mu.Lock()
	b.state = Open
	b.openedAt = time.Now()
	b.recentFails++
	b.mu.Unlock()
	b.log.Warn("breaker_reopened")
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Closed {
		b.log.Info("breaker_state_to_closed", slog.String("from", b.state.String()))
	}
	b.state = Closed
	b.recentFails = 0
}

func (b *Breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recentFails++
	if b.recentFails >= b.cfg.MaxFailures && b.state != Open {
		b.state = Open
		b.openedAt = time.Now()
		b.log.Error("breaker_opened", slog.Int("failures", b.recentFails))
	}
}

// State reports the current breaker state, mostly for diagnostics/tests.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
