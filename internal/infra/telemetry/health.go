package telemetry

import (
	"sync"
	"time"
)

// HealthTracker aggregates liveness heartbeats from long-running loops.
// A loop registers once and beats periodically; a loop whose last beat is
// older than its TTL marks the whole report degraded.
type HealthTracker struct {
	mu    sync.Mutex
	loops map[string]*Heartbeat
}

type Heartbeat struct {
	mu   sync.Mutex
	ttl  time.Duration
	last time.Time
}

type HealthReport struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{loops: make(map[string]*Heartbeat)}
}

// Register adds a named loop with a beat TTL and returns its heartbeat.
func (t *HealthTracker) Register(name string, ttl time.Duration) *Heartbeat {
	beat := &Heartbeat{ttl: ttl}
	t.mu.Lock()
	t.loops[name] = beat
	t.mu.Unlock()
	return beat
}

// Beat records liveness now.
func (b *Heartbeat) Beat() {
	b.mu.Lock()
	b.last = time.Now()
	b.mu.Unlock()
}

func (b *Heartbeat) alive(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.last.IsZero() && now.Sub(b.last) <= b.ttl
}

// Report summarizes every registered loop.
func (t *HealthTracker) Report() HealthReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	report := HealthReport{Status: "ok"}
	if len(t.loops) > 0 {
		report.Components = make(map[string]string, len(t.loops))
	}
	for name, beat := range t.loops {
		if beat.alive(now) {
			report.Components[name] = "ok"
			continue
		}
		report.Components[name] = "stale"
		report.Status = "degraded"
	}
	return report
}
