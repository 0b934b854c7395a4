package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

type CircuitBreaker struct {
	mu            sync.Mutex
	name          string
	state         State
	failureCount  int
	lastErrorTime time.Time
	threshold     int
	timeout       time.Duration
	now           func() time.Time
}

func NewCircuitBreaker(name string, threshold int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:      name,
		state:     StateClosed,
		threshold: threshold,
		timeout:   timeout,
		now:       time.Now,
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Do runs action unless the breaker is open. While half-open only the single
// trial call is let through; its outcome closes or re-opens the breaker.
func (cb *CircuitBreaker) Do(action func() error) error {
	cb.mu.Lock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastErrorTime) > cb.timeout {
			cb.state = StateHalfOpen
		} else {
			cb.mu.Unlock()
			return ErrOpen
		}
	case StateHalfOpen:
		cb.mu.Unlock()
		return ErrOpen
	}

	cb.mu.Unlock()

	err := action()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failureCount++
		cb.lastErrorTime = cb.now()

		if cb.failureCount >= cb.threshold || cb.state == StateHalfOpen {
			cb.state = StateOpen
			slog.Warn("Circuit breaker opened", "name", cb.name, "failures", cb.failureCount)
		}
		return err
	}

	if cb.state == StateHalfOpen {
		slog.Info("Circuit breaker recovered", "name", cb.name)
	}
	cb.failureCount = 0
	cb.state = StateClosed

	return nil
}
