package entropy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var contributions = promauto.NewCounter(prometheus.CounterOpts{
	Name: "k1ecc_entropy_contributions",
	Help: "Values folded into entropy pools",
})

var lowEntropyResamples = promauto.NewCounter(prometheus.CounterOpts{
	Name: "k1ecc_entropy_low_resamples",
	Help: "CPU timing samples discarded for carrying too little entropy",
})

var initializations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "k1ecc_entropy_initializations",
	Help: "Entropy pool initialization runs",
}, []string{"status"})
