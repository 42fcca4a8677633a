package apiclient

import "github.com/prometheus/client_golang/prometheus"

var (
	// upstreamReqs counts calls to the EmotionWise API by endpoint and outcome.
	upstreamReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotionwise_upstream_requests_total",
			Help: "Total number of upstream API calls.",
		},
		[]string{"endpoint", "outcome"},
	)

	upstreamLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "emotionwise_upstream_request_duration_seconds",
			Help:    "Duration of upstream API calls in seconds.",
			Buckets: []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"endpoint"},
	)

	authRecoveries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emotionwise_auth_recoveries_total",
			Help: "Number of 401 responses that cleared the session and redirected to login.",
		},
	)

	// breakerState is 0 closed, 1 half-open, 2 open.
	breakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "emotionwise_upstream_breaker_state",
			Help: "Upstream circuit breaker state (0 closed, 1 half-open, 2 open).",
		},
	)
)

func init() {
	prometheus.MustRegister(upstreamReqs, upstreamLat, authRecoveries, breakerState)
}

const (
	outcomeOK          = "ok"
	outcomeAuth        = "auth_error"
	outcomeClientError = "client_error"
	outcomeServerError = "server_error"
	outcomeNetwork     = "network_error"
	outcomeBreakerOpen = "breaker_open"
	outcomeDecode      = "decode_error"
)
