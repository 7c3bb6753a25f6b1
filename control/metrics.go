// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime counters for client stages.
// All methods are safe on a nil registry, which records nothing.

package control

import (
	"sync"
	"time"
)

// Well-known counter keys.
const (
	MetricConnectAttempts  = "connect.attempts"
	MetricConnectFailures  = "connect.failures"
	MetricHTTPRequests     = "http.requests"
	MetricHTTPResponses    = "http.responses"
	MetricWSFramesSent     = "ws.frames.sent"
	MetricWSFramesReceived = "ws.frames.received"
	MetricWSPingsAnswered  = "ws.pings.answered"
)

// MetricsRegistry holds named int64 counters. The zero value is ready to use.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]int64
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]int64),
	}
}

// Add increments key by delta.
func (mr *MetricsRegistry) Add(key string, delta int64) {
	if mr == nil {
		return
	}
	mr.mu.Lock()
	if mr.metrics == nil {
		mr.metrics = make(map[string]int64)
	}
	mr.metrics[key] += delta
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Get returns the current value of key.
func (mr *MetricsRegistry) Get(key string) int64 {
	if mr == nil {
		return 0
	}
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.metrics[key]
}

// GetSnapshot returns a copy of all counters.
func (mr *MetricsRegistry) GetSnapshot() map[string]int64 {
	if mr == nil {
		return nil
	}
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]int64, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// Updated returns the time of the last change.
func (mr *MetricsRegistry) Updated() time.Time {
	if mr == nil {
		return time.Time{}
	}
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}
