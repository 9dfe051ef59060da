package ecies

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var failures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "k1ecc_ecies_decrypt_failures",
	Help: "Envelopes which failed to decrypt, by failure kind",
}, []string{"kind"})
