// Package metrics 定義 Prometheus 指標
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 快取查詢結果
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// 生成結果
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipe_cache_lookups_total",
		Help: "Recipe cache lookups by result.",
	}, []string{"result"})
	providerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipe_provider_calls_total",
		Help: "Generation provider calls by outcome.",
	}, []string{"outcome"})
	providerDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recipe_provider_duration_seconds",
		Help:    "Latency of generation provider calls.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
	generations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipe_generations_total",
		Help: "Recipe generation requests by outcome and cache result.",
	}, []string{"outcome", "cache"})
	duplicateInserts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipe_cache_duplicate_inserts_total",
		Help: "Cache inserts rejected because the fingerprint already existed.",
	})
)

// ObserveCacheLookup 記錄快取查詢
func ObserveCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

// ObserveProviderCall 記錄上游呼叫
func ObserveProviderCall(err error, duration time.Duration) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	providerCalls.WithLabelValues(outcome).Inc()
	providerDuration.Observe(duration.Seconds())
}

// ObserveGeneration 記錄一次生成請求
func ObserveGeneration(err error, cacheResult string) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	generations.WithLabelValues(outcome, cacheResult).Inc()
}

// IncDuplicateInsert 記錄重複寫入
func IncDuplicateInsert() {
	duplicateInserts.Inc()
}
