package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics aggregates generation counters, broken down by agent type
// (chatbot, context, landscape, roadmap).
type Metrics struct {
	mu sync.Mutex

	generationTotal  atomic.Int64
	generationFailed atomic.Int64
	interruptions    atomic.Int64
	activeSessions   atomic.Int64

	agentMetrics map[string]*AgentMetrics

	durations    []time.Duration
	maxDurations int
}

// AgentMetrics are the per-agent-type counters.
type AgentMetrics struct {
	executionCount atomic.Int64
	totalDuration  atomic.Int64 // milliseconds
	errorCount     atomic.Int64
}

// NewMetrics creates a metrics collector retaining the last maxDurations
// generation durations.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		agentMetrics: make(map[string]*AgentMetrics),
		durations:    make([]time.Duration, 0, maxDurations),
		maxDurations: maxDurations,
	}
}

var globalMetrics = NewMetrics(1000)

// GlobalMetrics returns the process-wide metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordGeneration records a started generation.
func (m *Metrics) RecordGeneration(agentType string) {
	m.generationTotal.Add(1)
	m.agent(agentType).executionCount.Add(1)
}

// RecordFailure records a failed generation.
func (m *Metrics) RecordFailure(agentType string) {
	m.generationFailed.Add(1)
	m.agent(agentType).errorCount.Add(1)
}

// RecordInterruption records a user-requested interruption.
func (m *Metrics) RecordInterruption() {
	m.interruptions.Add(1)
}

// RecordDuration records how long a generation took.
func (m *Metrics) RecordDuration(agentType string, duration time.Duration) {
	m.mu.Lock()
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
	m.mu.Unlock()
	m.agent(agentType).totalDuration.Add(duration.Milliseconds())
}

// SessionOpened increments the live-session gauge.
func (m *Metrics) SessionOpened() {
	m.activeSessions.Add(1)
}

// SessionClosed decrements the live-session gauge.
func (m *Metrics) SessionClosed() {
	m.activeSessions.Add(-1)
}

// Snapshot is a point-in-time view of the collected metrics.
type Snapshot struct {
	GenerationTotal  int64                 `json:"generation_total"`
	GenerationFailed int64                 `json:"generation_failed"`
	Interruptions    int64                 `json:"interruptions"`
	ActiveSessions   int64                 `json:"active_sessions"`
	Agents           map[string]AgentStats `json:"agents"`
}

// AgentStats summarizes one agent type.
type AgentStats struct {
	Executions int64 `json:"executions"`
	Errors     int64 `json:"errors"`
	AvgMs      int64 `json:"avg_ms"`
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	agents := make(map[string]AgentStats, len(m.agentMetrics))
	for name, am := range m.agentMetrics {
		stats := AgentStats{
			Executions: am.executionCount.Load(),
			Errors:     am.errorCount.Load(),
		}
		if stats.Executions > 0 {
			stats.AvgMs = am.totalDuration.Load() / stats.Executions
		}
		agents[name] = stats
	}

	return Snapshot{
		GenerationTotal:  m.generationTotal.Load(),
		GenerationFailed: m.generationFailed.Load(),
		Interruptions:    m.interruptions.Load(),
		ActiveSessions:   m.activeSessions.Load(),
		Agents:           agents,
	}
}

func (m *Metrics) agent(agentType string) *AgentMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	am, ok := m.agentMetrics[agentType]
	if !ok {
		am = &AgentMetrics{}
		m.agentMetrics[agentType] = am
	}
	return am
}
