package signet

import (
	"errors"
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by signet APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricSignSuccess is an exported constant or variable used by the token engine.
	MetricSignSuccess MetricID = iota
	// MetricSignFailure is an exported constant or variable used by the token engine.
	MetricSignFailure
	// MetricVerifySuccess is an exported constant or variable used by the token engine.
	MetricVerifySuccess
	// MetricVerifyFailure is an exported constant or variable used by the token engine.
	MetricVerifyFailure
	// MetricEncryptSuccess is an exported constant or variable used by the token engine.
	MetricEncryptSuccess
	// MetricEncryptFailure is an exported constant or variable used by the token engine.
	MetricEncryptFailure
	// MetricDecryptSuccess is an exported constant or variable used by the token engine.
	MetricDecryptSuccess
	// MetricDecryptFailure is an exported constant or variable used by the token engine.
	MetricDecryptFailure
	// MetricTokenMalformed is an exported constant or variable used by the token engine.
	MetricTokenMalformed
	// MetricTokenExpired is an exported constant or variable used by the token engine.
	MetricTokenExpired
	// MetricTokenNotYetValid is an exported constant or variable used by the token engine.
	MetricTokenNotYetValid
	// MetricSignatureInvalid is an exported constant or variable used by the token engine.
	MetricSignatureInvalid
	// MetricDecryptionFailed is an exported constant or variable used by the token engine.
	MetricDecryptionFailed
	// MetricNoMatchingKey is an exported constant or variable used by the token engine.
	MetricNoMatchingKey
	// MetricAlgorithmRejected is an exported constant or variable used by the token engine.
	MetricAlgorithmRejected
	// MetricClaimsRejected is an exported constant or variable used by the token engine.
	MetricClaimsRejected
	// MetricTokenDenied is an exported constant or variable used by the token engine.
	MetricTokenDenied
	// MetricSignLatency is an exported constant or variable used by the token engine.
	MetricSignLatency
	// MetricVerifyLatency is an exported constant or variable used by the token engine.
	MetricVerifyLatency
	// MetricEncryptLatency is an exported constant or variable used by the token engine.
	MetricEncryptLatency
	// MetricDecryptLatency is an exported constant or variable used by the token engine.
	MetricDecryptLatency
	metricIDCount
)

var latencyMetricIDs = []MetricID{
	MetricSignLatency,
	MetricVerifyLatency,
	MetricEncryptLatency,
	MetricDecryptLatency,
}

func isLatencyMetric(id MetricID) bool {
	for _, l := range latencyMetricIDs {
		if id == l {
			return true
		}
	}
	return false
}

// failureClassMetric maps a read-side failure onto its class counter.
// The public API reports a single opaque error; these counters are
// where the distinction stays observable.
func failureClassMetric(err error) (MetricID, bool) {
	switch {
	case errors.Is(err, ErrTokenMalformed):
		return MetricTokenMalformed, true
	case errors.Is(err, ErrTokenExpired):
		return MetricTokenExpired, true
	case errors.Is(err, ErrTokenNotYetValid):
		return MetricTokenNotYetValid, true
	case errors.Is(err, ErrSignatureInvalid):
		return MetricSignatureInvalid, true
	case errors.Is(err, ErrDecryptionFailed):
		return MetricDecryptionFailed, true
	case errors.Is(err, ErrNoMatchingKey):
		return MetricNoMatchingKey, true
	case errors.Is(err, ErrAlgorithmNotAllowed):
		return MetricAlgorithmRejected, true
	case errors.Is(err, ErrTokenDenied):
		return MetricTokenDenied, true
	case errors.Is(err, ErrClaimsRejected):
		return MetricClaimsRejected, true
	default:
		return 0, false
	}
}

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by signet APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot defines a public type used by signet APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// NewMetrics may return an error when input validation, dependency calls, or security checks fail.
// NewMetrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled describes the enabled operation and its observable behavior.
//
// Enabled may return an error when input validation, dependency calls, or security checks fail.
// Enabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled describes the latencyenabled operation and its observable behavior.
//
// LatencyEnabled may return an error when input validation, dependency calls, or security checks fail.
// LatencyEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc describes the inc operation and its observable behavior.
//
// Inc may return an error when input validation, dependency calls, or security checks fail.
// Inc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe describes the observe operation and its observable behavior.
//
// Observe may return an error when input validation, dependency calls, or security checks fail.
// Observe does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if !isLatencyMetric(id) {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value describes the value operation and its observable behavior.
//
// Value may return an error when input validation, dependency calls, or security checks fail.
// Value does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot may return an error when input validation, dependency calls, or security checks fail.
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, len(latencyMetricIDs)),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range latencyMetricIDs {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
