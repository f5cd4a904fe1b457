package cp

// monitor.go: statistics gathered by the propagation engine

import (
	"fmt"
	"sync"
	"time"
)

// SolverStats holds statistics about propagation passes.
type SolverStats struct {
	// Scheduler statistics
	FullPropagations   int // Coarse runs, including the initial full propagation
	FinePropagations   int // PropagateOn calls
	Iterations         int // Scheduler iterations over all passes
	Fixpoints          int // Passes that reached a fixpoint
	Contradictions     int // Passes that ended in a contradiction
	Passivations       int // Propagators found entailed
	Events             int // Domain events recorded
	PropagationTime    time.Duration
	PeakTrailSize      int
	PeakQueueSize      int // Most leaves pending at once
	LastPassIterations int
}

// String renders the statistics on one line.
func (s SolverStats) String() string {
	return fmt.Sprintf("coarse=%d fine=%d iterations=%d fixpoints=%d contradictions=%d passive=%d events=%d time=%s",
		s.FullPropagations, s.FinePropagations, s.Iterations, s.Fixpoints,
		s.Contradictions, s.Passivations, s.Events, s.PropagationTime)
}

// SolverMonitor accumulates SolverStats. It is safe for concurrent reads
// while the owning solver runs. A nil monitor records nothing.
type SolverMonitor struct {
	mu    sync.Mutex
	stats SolverStats
}

// NewSolverMonitor creates a new solver monitor
func NewSolverMonitor() *SolverMonitor {
	return &SolverMonitor{}
}

// Stats returns a copy of the current statistics
func (m *SolverMonitor) Stats() SolverStats {
	if m == nil {
		return SolverStats{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Reset clears the statistics.
func (m *SolverMonitor) Reset() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = SolverStats{}
}

// RecordCoarse records one coarse propagation.
func (m *SolverMonitor) RecordCoarse(d time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.FullPropagations++
	m.stats.PropagationTime += d
}

// RecordFine records one fine-grained propagation.
func (m *SolverMonitor) RecordFine(d time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.FinePropagations++
	m.stats.PropagationTime += d
}

// RecordEvent records a domain event.
func (m *SolverMonitor) RecordEvent() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Events++
}

// RecordPassivation records a propagator becoming passive.
func (m *SolverMonitor) RecordPassivation() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Passivations++
}

// RecordContradiction records a failed pass.
func (m *SolverMonitor) RecordContradiction() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Contradictions++
}

// RecordFixpoint records a completed pass.
func (m *SolverMonitor) RecordFixpoint(iterations, trailPeak, queuePeak int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Fixpoints++
	m.stats.Iterations += iterations
	m.stats.LastPassIterations = iterations
	if trailPeak > m.stats.PeakTrailSize {
		m.stats.PeakTrailSize = trailPeak
	}
	if queuePeak > m.stats.PeakQueueSize {
		m.stats.PeakQueueSize = queuePeak
	}
}
