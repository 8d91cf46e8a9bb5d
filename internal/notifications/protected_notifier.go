package notifications

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("notifier circuit open")

type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half_open"
)

type ProtectedNotifierConfig struct {
	Timeout          time.Duration // per send
	FailureThreshold int           // consecutive failures that open the circuit
	Cooldown         time.Duration // open time before a trial send
	HalfOpenMaxCalls int           // concurrent trial sends
	// OnStateChange is called outside the lock after every transition.
	OnStateChange func(from, to BreakerState)
}

// ProtectedNotifier wraps a Notifier with a send timeout and a circuit
// breaker, so a dead mail provider fails jobs fast instead of holding workers.
type ProtectedNotifier struct {
	inner Notifier
	cfg   ProtectedNotifierConfig
	now   func() time.Time

	mu        sync.Mutex
	state     BreakerState
	failures  int
	openedAt  time.Time
	trialsOut int
}

func NewProtectedNotifier(inner Notifier, cfg ProtectedNotifierConfig) *ProtectedNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}
	return &ProtectedNotifier{inner: inner, cfg: cfg, now: time.Now, state: BreakerClosed}
}

func (n *ProtectedNotifier) Send(ctx context.Context, msg Notification) error {
	trial, ok := n.acquire()
	if !ok {
		return ErrCircuitOpen
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	err := n.inner.Send(sendCtx, msg)
	cancel()

	// the caller giving up says nothing about the provider
	if err != nil && ctx.Err() != nil {
		n.release(trial)
		return err
	}

	n.record(trial, err)
	return err
}

func (n *ProtectedNotifier) State() BreakerState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// acquire reports whether a send may go out and whether it is a trial.
func (n *ProtectedNotifier) acquire() (trial, ok bool) {
	n.mu.Lock()

	var from BreakerState
	switch n.state {
	case BreakerClosed:
		n.mu.Unlock()
		return false, true
	case BreakerOpen:
		if n.now().Sub(n.openedAt) < n.cfg.Cooldown {
			n.mu.Unlock()
			return false, false
		}
		from = n.state
		n.state = BreakerHalfOpen
		n.trialsOut = 0
	}

	if n.trialsOut >= n.cfg.HalfOpenMaxCalls {
		n.mu.Unlock()
		return false, false
	}
	n.trialsOut++
	n.mu.Unlock()

	if from != "" {
		n.notify(from, BreakerHalfOpen)
	}
	return true, true
}

func (n *ProtectedNotifier) release(trial bool) {
	if !trial {
		return
	}
	n.mu.Lock()
	if n.trialsOut > 0 {
		n.trialsOut--
	}
	n.mu.Unlock()
}

func (n *ProtectedNotifier) record(trial bool, err error) {
	n.mu.Lock()
	from := n.state

	if trial && n.trialsOut > 0 {
		n.trialsOut--
	}

	switch {
	case err == nil:
		n.failures = 0
		n.state = BreakerClosed
	case n.state == BreakerHalfOpen:
		n.failures++
		n.state = BreakerOpen
		n.openedAt = n.now()
	default:
		n.failures++
		if n.failures >= n.cfg.FailureThreshold {
			n.state = BreakerOpen
			n.openedAt = n.now()
		}
	}
	to := n.state
	n.mu.Unlock()

	if from != to {
		n.notify(from, to)
	}
}

func (n *ProtectedNotifier) notify(from, to BreakerState) {
	if n.cfg.OnStateChange != nil {
		n.cfg.OnStateChange(from, to)
	}
}
