package ecc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var signAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "k1ecc_sign_attempts",
	Help:    "Nonce attempts needed to find a canonical signature",
	Buckets: prometheus.LinearBuckets(1, 1, 10),
})

var signDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "k1ecc_sign_duration",
	Help:    "Time to produce a canonical signature",
	Buckets: prometheus.ExponentialBucketsRange(0.00001, 0.1, 20),
})

var signRetryWarnings = promauto.NewCounter(prometheus.CounterOpts{
	Name: "k1ecc_sign_retry_warnings",
	Help: "Signing calls which needed another ten attempts to find a canonical signature",
})

var recoveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "k1ecc_signature_recoveries",
	Help: "Public key recoveries from signatures",
}, []string{"status"})

var publicKeyCacheHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "k1ecc_public_key_cache_hits",
	Help: "Number of cache hits for parsed public key strings",
})

var publicKeyCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
	Name: "k1ecc_public_key_cache_misses",
	Help: "Number of cache misses for parsed public key strings",
})
