// Package ratelimit implements the cooperative self-throttle used around
// rate-limited providers. It is deliberately a fixed post-call delay, not a
// token bucket: the goal is staying far away from provider bans, not
// maximizing throughput.
package ratelimit

import (
	"sync"
	"time"
)

// Provider names a throttled external service.
type Provider string

const (
	Translate   Provider = "translate"
	ImageSearch Provider = "imagesearch"
	Publish     Provider = "publish"
)

// Throttle sleeps a fixed duration after each call to a provider and keeps
// per-provider call counts for the run summary.
type Throttle struct {
	mu     sync.Mutex
	delays map[Provider]time.Duration
	counts map[Provider]int
	sleep  func(time.Duration)
}

// New builds a Throttle with the standard delays: half a second after each
// translation or image search, a full second after each publish.
func New() *Throttle {
	return &Throttle{
		delays: map[Provider]time.Duration{
			Translate:   500 * time.Millisecond,
			ImageSearch: 500 * time.Millisecond,
			Publish:     time.Second,
		},
		counts: make(map[Provider]int),
		sleep:  time.Sleep,
	}
}

// NewInstant builds a Throttle that never sleeps. Tests only.
func NewInstant() *Throttle {
	t := New()
	t.sleep = func(time.Duration) {}
	return t
}

// Wait records one call to the provider and blocks for its delay.
func (t *Throttle) Wait(p Provider) {
	t.mu.Lock()
	t.counts[p]++
	delay := t.delays[p]
	t.mu.Unlock()

	if delay > 0 {
		t.sleep(delay)
	}
}

// Counts returns a snapshot of the per-provider call counts.
func (t *Throttle) Counts() map[Provider]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[Provider]int, len(t.counts))
	for p, n := range t.counts {
		out[p] = n
	}
	return out
}
