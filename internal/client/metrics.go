package client

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"formulaplace/internal/formula"
)

const (
	resultOK       = "ok"
	resultInvalid  = "invalid"
	resultNotFound = "not_found"
	resultError    = "error"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formulaplace_client_requests_total",
		Help: "Formula transport calls by operation and result",
	}, []string{"operation", "result"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "formulaplace_client_request_duration_seconds",
		Help:    "Formula transport call latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 11), // 5ms to ~5s
	}, []string{"operation"})
)

func observe(op, result string, elapsed time.Duration) {
	requestsTotal.WithLabelValues(op, result).Inc()
	if result != resultInvalid {
		requestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	}
}

func resultOf(err error) string {
	var verr *formula.ValidationError
	switch {
	case err == nil:
		return resultOK
	case errors.As(err, &verr):
		return resultInvalid
	case errors.Is(err, formula.ErrNotFound):
		return resultNotFound
	default:
		return resultError
	}
}
