// Package metrics provides lock-free counters for edgeguard observability.
//
// # Design
//
// Counters are stored in a fixed array of uint64 slots and incremented
// atomically. The write path is allocation-free.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls. Export lives in metrics/export/ and
//     reads Snapshot values.
//   - Import edgeguard or any sibling package.
//   - Expose global metric registries.
package metrics

import "sync/atomic"

// MetricID identifies one counter slot.
type MetricID uint16

const (
	// MetricAuthSuccess counts fully authenticated requests.
	MetricAuthSuccess MetricID = iota
	// MetricAuthCredentialMissing counts requests with no credential.
	MetricAuthCredentialMissing
	// MetricAuthCredentialMalformed counts unusable credential headers.
	MetricAuthCredentialMalformed
	// MetricAuthTokenInvalid counts rejected tokens.
	MetricAuthTokenInvalid
	// MetricAuthTokenRevoked counts tokens found in the revoked set.
	MetricAuthTokenRevoked
	// MetricAuthAPIKeySuccess counts accepted API keys.
	MetricAuthAPIKeySuccess
	// MetricAuthAPIKeyRejected counts rejected API keys.
	MetricAuthAPIKeyRejected
	// MetricRevocationCheckFailed counts revocation checks the dependency
	// could not answer.
	MetricRevocationCheckFailed
	// MetricRevocationFailSecure counts check failures converted to
	// rejection under fail-secure policy.
	MetricRevocationFailSecure
	// MetricRevocationFailOpen counts check failures accepted under
	// fail-open policy.
	MetricRevocationFailOpen
	// MetricPermissionGranted counts satisfied route requirements.
	MetricPermissionGranted
	// MetricPermissionDenied counts unsatisfied route requirements.
	MetricPermissionDenied
	// MetricSessionEstablished counts created gateway sessions.
	MetricSessionEstablished
	// MetricSessionResumed counts successful session resumptions.
	MetricSessionResumed
	// MetricSessionExpired counts idle/absolute timeout terminations.
	MetricSessionExpired
	// MetricSessionDeviceRejected counts fingerprint-mismatch rejections.
	MetricSessionDeviceRejected
	// MetricSessionTerminated counts explicit terminations.
	MetricSessionTerminated
	// MetricRefreshUpstreamCalls counts upstream refresh calls actually
	// made (after single-flight collapse).
	MetricRefreshUpstreamCalls
	// MetricRefreshSuccess counts refreshes that produced a new pair.
	MetricRefreshSuccess
	// MetricRefreshFailure counts refreshes that terminated the session.
	MetricRefreshFailure

	// MetricIDCount is the number of counter slots.
	MetricIDCount
)

// Config controls metric collection.
type Config struct {
	Enabled bool
}

// Metrics holds atomic counters. When disabled, all operations are no-ops.
type Metrics struct {
	enabled  bool
	counters [MetricIDCount]atomic.Uint64
}

// Snapshot is a point-in-time deep copy of all counters.
type Snapshot struct {
	Counters map[MetricID]uint64
}

// New creates a Metrics instance.
func New(cfg Config) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot deep-copies all counters.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Counters: make(map[MetricID]uint64, MetricIDCount)}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
