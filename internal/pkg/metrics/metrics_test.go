package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCacheLookup(t *testing.T) {
	before := testutil.ToFloat64(cacheLookups.WithLabelValues(CacheHit))
	ObserveCacheLookup(CacheHit)
	if got := testutil.ToFloat64(cacheLookups.WithLabelValues(CacheHit)); got != before+1 {
		t.Errorf("hits = %v, want %v", got, before+1)
	}
}

func TestObserveProviderCall(t *testing.T) {
	ok := testutil.ToFloat64(providerCalls.WithLabelValues(OutcomeSuccess))
	failed := testutil.ToFloat64(providerCalls.WithLabelValues(OutcomeFailure))

	ObserveProviderCall(nil, 120*time.Millisecond)
	ObserveProviderCall(errors.New("boom"), time.Second)

	if got := testutil.ToFloat64(providerCalls.WithLabelValues(OutcomeSuccess)); got != ok+1 {
		t.Errorf("success = %v", got)
	}
	if got := testutil.ToFloat64(providerCalls.WithLabelValues(OutcomeFailure)); got != failed+1 {
		t.Errorf("failure = %v", got)
	}
}

func TestObserveGeneration(t *testing.T) {
	before := testutil.ToFloat64(generations.WithLabelValues(OutcomeFailure, CacheMiss))
	ObserveGeneration(errors.New("x"), CacheMiss)
	if got := testutil.ToFloat64(generations.WithLabelValues(OutcomeFailure, CacheMiss)); got != before+1 {
		t.Errorf("got %v", got)
	}

	dup := testutil.ToFloat64(duplicateInserts)
	IncDuplicateInsert()
	if got := testutil.ToFloat64(duplicateInserts); got != dup+1 {
		t.Errorf("duplicates = %v", got)
	}
}
