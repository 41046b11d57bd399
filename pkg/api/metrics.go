package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics counts client-side request outcomes.
// All counters use atomic operations for lock-free concurrent access.
type Metrics struct {
	startTime time.Time

	Requests        atomic.Int64 // requests sent
	TransportErrors atomic.Int64 // no response (DNS, refused, timeout)
	ErrorResponses  atomic.Int64 // non-2xx responses
	Unauthorized    atomic.Int64 // 401/403 responses
	BytesIn         atomic.Int64 // response body bytes read on success
	latencyNanos    atomic.Int64
}

// NewMetrics creates a new Metrics instance with the start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// MetricsSnapshot is a point-in-time view of Metrics.
type MetricsSnapshot struct {
	Uptime          string  `json:"uptime"`
	Requests        int64   `json:"requests"`
	TransportErrors int64   `json:"transport_errors"`
	ErrorResponses  int64   `json:"error_responses"`
	Unauthorized    int64   `json:"unauthorized"`
	BytesIn         int64   `json:"bytes_in"`
	AvgLatencyMS    float64 `json:"avg_latency_ms"`
}

// Snapshot returns a read-consistent snapshot of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Uptime:          time.Since(m.startTime).Truncate(time.Millisecond).String(),
		Requests:        m.Requests.Load(),
		TransportErrors: m.TransportErrors.Load(),
		ErrorResponses:  m.ErrorResponses.Load(),
		Unauthorized:    m.Unauthorized.Load(),
		BytesIn:         m.BytesIn.Load(),
	}
	if s.Requests > 0 {
		s.AvgLatencyMS = float64(m.latencyNanos.Load()) / float64(s.Requests) / float64(time.Millisecond)
	}
	return s
}

// JSON returns the metrics snapshot as a JSON string.
func (m *Metrics) JSON() string {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// LogSummary writes the counters to the logger at debug level.
func (m *Metrics) LogSummary() {
	s := m.Snapshot()
	slog.Debug("api metrics",
		"requests", s.Requests,
		"transport_errors", s.TransportErrors,
		"error_responses", s.ErrorResponses,
		"unauthorized", s.Unauthorized,
		"avg_latency_ms", s.AvgLatencyMS,
	)
}

func (m *Metrics) observe(status int, elapsed time.Duration, err error) {
	m.Requests.Add(1)
	m.latencyNanos.Add(int64(elapsed))
	switch {
	case err != nil:
		m.TransportErrors.Add(1)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		m.Unauthorized.Add(1)
		m.ErrorResponses.Add(1)
	case status < 200 || status > 299:
		m.ErrorResponses.Add(1)
	}
}
