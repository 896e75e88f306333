package sinks

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sinkLatencyHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sink_latency",
			Help:    "Latency of sink operations.",
			Buckets: prometheus.LinearBuckets(0.01, 0.05, 10),
		},
		[]string{"action", "kind"},
	)
)

func Instrument(action, kind string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		d := time.Since(start)
		sinkLatencyHistogram.WithLabelValues(action, kind).Observe(d.Seconds())
		return d
	}
}
