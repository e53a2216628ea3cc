package llm

import "context"

// Limiter bounds the number of in-flight completion calls process-wide.
// One limiter is constructed by the orchestrating pipeline and injected into
// every generator so that categories running concurrently share the same
// budget of outstanding provider calls.
//
// A nil *Limiter is valid and disables gating.
type Limiter struct {
	slots chan struct{}
}

// NewLimiter creates a limiter with the given number of slots.
// capacity <= 0 is treated as 1.
func NewLimiter(capacity int) *Limiter {
	if capacity <= 0 {
		capacity = 1
	}
	return &Limiter{slots: make(chan struct{}, capacity)}
}

// Acquire blocks until a slot is free or the context is canceled.
// Every successful Acquire must be paired with Release, typically deferred
// immediately so cancellation and panics cannot leak the slot.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case l.slots <- struct{}{}:
		return nil
	}
}

// Release returns a slot taken by Acquire.
func (l *Limiter) Release() {
	if l == nil {
		return
	}
	select {
	case <-l.slots:
	default:
		// Release without matching Acquire; ignore rather than block.
	}
}

// Capacity reports the configured slot count.
func (l *Limiter) Capacity() int {
	if l == nil {
		return 0
	}
	return cap(l.slots)
}

// InFlight reports the number of currently held slots.
func (l *Limiter) InFlight() int {
	if l == nil {
		return 0
	}
	return len(l.slots)
}
