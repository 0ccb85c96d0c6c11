package signet

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricSignSuccess)

	if got := m.Value(MetricSignSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricSignSuccess)
	m.Inc(MetricSignSuccess)
	m.Inc(MetricSignSuccess)

	if got := m.Value(MetricSignSuccess); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricVerifySuccess)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricVerifySuccess); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		700 * time.Millisecond,
	}

	for _, d := range observations {
		m.Observe(MetricVerifyLatency, d)
	}

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricVerifyLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}

	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsObserveIgnoresCounterIDs(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	m.Observe(MetricSignSuccess, 3*time.Millisecond)

	snap := m.Snapshot()
	if len(snap.Histograms[MetricSignSuccess]) != 0 {
		t.Fatalf("expected no histogram for counter id, got %v", snap.Histograms[MetricSignSuccess])
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	m.Inc(MetricSignSuccess)
	m.Inc(MetricVerifyFailure)
	m.Inc(MetricVerifyFailure)
	m.Observe(MetricVerifyLatency, 2*time.Millisecond)

	snap := m.Snapshot()

	if snap.Counters[MetricSignSuccess] != 1 {
		t.Fatalf("expected MetricSignSuccess=1 got %d", snap.Counters[MetricSignSuccess])
	}
	if snap.Counters[MetricVerifyFailure] != 2 {
		t.Fatalf("expected MetricVerifyFailure=2 got %d", snap.Counters[MetricVerifyFailure])
	}
	if len(snap.Histograms[MetricVerifyLatency]) != 8 {
		t.Fatalf("expected histogram length 8")
	}
	if snap.Histograms[MetricVerifyLatency][0] != 1 {
		t.Fatalf("expected first histogram bucket=1 got %d", snap.Histograms[MetricVerifyLatency][0])
	}
}

func TestFailureClassMetricMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want MetricID
		ok   bool
	}{
		{"malformed", ErrTokenMalformed, MetricTokenMalformed, true},
		{"expired", ErrTokenExpired, MetricTokenExpired, true},
		{"not_yet_valid", ErrTokenNotYetValid, MetricTokenNotYetValid, true},
		{"signature", ErrSignatureInvalid, MetricSignatureInvalid, true},
		{"decryption", ErrDecryptionFailed, MetricDecryptionFailed, true},
		{"no_key", ErrNoMatchingKey, MetricNoMatchingKey, true},
		{"algorithm", ErrAlgorithmNotAllowed, MetricAlgorithmRejected, true},
		{"denied", ErrTokenDenied, MetricTokenDenied, true},
		{"claims", ErrClaimsRejected, MetricClaimsRejected, true},
		{"wrapped_claims", fmt.Errorf("%w: aud mismatch", ErrClaimsRejected), MetricClaimsRejected, true},
		{"unclassified", errors.New("boom"), 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := failureClassMetric(tc.err)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if ok && id != tc.want {
				t.Fatalf("expected metric %d, got %d", tc.want, id)
			}
		})
	}
}
