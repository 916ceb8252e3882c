package authflow

import "sync/atomic"

// MetricID identifies one counter in the metrics set.
type MetricID uint16

const (
	// MetricLoginSuccess counts completed password-grant logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected or failed password-grant logins.
	MetricLoginFailure
	// MetricExchangeSuccess counts completed authorization-code exchanges.
	MetricExchangeSuccess
	// MetricExchangeFailure counts failed authorization-code exchanges.
	MetricExchangeFailure
	// MetricExchangeDuplicate counts exchange invocations absorbed by the
	// exactly-once marker instead of reaching the provider.
	MetricExchangeDuplicate
	// MetricRefreshSuccess counts completed token renewals.
	MetricRefreshSuccess
	// MetricRefreshFailure counts terminal renewal failures.
	MetricRefreshFailure
	// MetricRefreshCoalesced counts refresh callers that attached to an
	// already in-flight renewal.
	MetricRefreshCoalesced
	// MetricLogout counts logout invocations.
	MetricLogout
	// MetricSessionExpired counts sessions torn down by a failed renewal.
	MetricSessionExpired
	// MetricStorageDegraded counts downgrades to the in-memory token store.
	MetricStorageDegraded

	metricCount
)

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Metrics is a fixed array of atomic counters. Inc on a disabled or nil
// Metrics is a no-op.
type Metrics struct {
	enabled  bool
	counters [metricCount]uint64
}

func newMetrics(enabled bool) *Metrics {
	return &Metrics{enabled: enabled}
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricCount {
		return
	}
	atomic.AddUint64(&m.counters[id], 1)
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snapshot := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil || !m.enabled {
		return snapshot
	}
	for id := MetricID(0); id < metricCount; id++ {
		snapshot.Counters[id] = atomic.LoadUint64(&m.counters[id])
	}
	return snapshot
}
