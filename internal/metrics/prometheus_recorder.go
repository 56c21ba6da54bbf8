package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bibliotheca"

// PrometheusRecorder implements Recorder on a private registry.
type PrometheusRecorder struct {
	reg             *prom.Registry
	requests        *prom.CounterVec
	requestDuration *prom.HistogramVec
	loans           *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the collectors. A nil
// registry gets a fresh one with the Go and process collectors attached.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
		reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	}
	pr := &PrometheusRecorder{
		reg: reg,
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code",
		}, []string{"method", "route", "status"}),
		requestDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern",
			Buckets:   prom.DefBuckets,
		}, []string{"method", "route"}),
		loans: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "loans_total",
			Help:      "Borrow and return attempts by outcome",
		}, []string{"action", "result"}),
	}
	reg.MustRegister(pr.requests, pr.requestDuration, pr.loans)
	return pr
}

func (p *PrometheusRecorder) ObserveHTTP(method, route string, status int, d time.Duration) {
	if p == nil {
		return
	}
	p.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncLoan(action, result string) {
	if p == nil {
		return
	}
	p.loans.WithLabelValues(action, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

var _ Recorder = (*PrometheusRecorder)(nil)
