// Package metrics exposes Prometheus metrics about master server queries.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/woozymasta/masterstat/pkg/masterstat"
	"github.com/woozymasta/masterstat/pkg/udp"
)

const namespace = "masterstat"

// Query outcome labels.
const (
	ResultOK           = "ok"
	ResultConnectivity = "connectivity"
	ResultInvalid      = "invalid"
	ResultError        = "error"
)

var (
	masterQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "master",
		Name:      "queries_total",
		Help:      "Number of master server queries, per master and outcome.",
	}, []string{"master", "result"})

	masterServers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "master",
		Name:      "servers",
		Help:      "Servers returned by the last successful query of a master.",
	}, []string{"master"})

	masterQuerySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "master",
		Name:      "query_seconds",
		Help:      "Master server query duration.",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2, 5},
	}, []string{"master"})

	serversKnown = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "servers_known",
		Help:      "Servers currently stored.",
	})
)

// Register makes per-master series present even before the first query.
func Register(masters []string) {
	for _, m := range masters {
		masterServers.WithLabelValues(m)
		for _, r := range []string{ResultOK, ResultConnectivity, ResultInvalid, ResultError} {
			masterQueries.WithLabelValues(m, r)
		}
	}
}

// ObserveMaster records one master query outcome.
func ObserveMaster(r masterstat.MasterResult) {
	result := Classify(r.Err)
	masterQueries.WithLabelValues(r.Master, result).Inc()
	masterQuerySeconds.WithLabelValues(r.Master).Observe(r.Duration.Seconds())

	if result == ResultOK {
		masterServers.WithLabelValues(r.Master).Set(float64(r.Servers))
	}
}

// SetServersKnown sets the stored server gauge.
func SetServersKnown(n int) {
	serversKnown.Set(float64(n))
}

// Classify maps a query error to its result label.
func Classify(err error) string {
	var cerr *udp.ConnectivityError

	switch {
	case err == nil:
		return ResultOK
	case errors.As(err, &cerr):
		return ResultConnectivity
	case errors.Is(err, masterstat.ErrInvalidResponse):
		return ResultInvalid
	default:
		return ResultError
	}
}
