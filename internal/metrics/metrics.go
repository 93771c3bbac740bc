package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TokensSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passwordless",
		Name:      "tokens_sent_total",
		Help:      "Callback tokens dispatched, by alias channel, token type and outcome.",
	}, []string{"channel", "type", "outcome"})

	TokensConsumedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passwordless",
		Name:      "tokens_consumed_total",
		Help:      "Callback token redemption attempts, by token type and result.",
	}, []string{"type", "result"})

	GenerationRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "passwordless",
		Name:      "generation_retries_total",
		Help:      "Token key generation retries caused by active-key collisions.",
	})
)

func Register() {
	prometheus.MustRegister(
		TokensSentTotal,
		TokensConsumedTotal,
		GenerationRetriesTotal,
	)
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
