package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "foodapp"

// Metrics はアプリ全体のprometheusメトリクス
type Metrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec

	OrdersPlaced  *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	Connections   prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics は reg に登録する。テストでは prometheus.NewRegistry() を渡す
func NewMetrics(reg *prometheus.Registry) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "placed_total",
		Help:      "Orders placed, by payment method.",
	}, []string{"payment_method"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notify",
		Name:      "events_total",
		Help:      "Notification attempts, by event type and result.",
	}, []string{"type", "result"})
	conns := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "notify",
		Name:      "connections",
		Help:      "Open websocket connections in this process.",
	})

	reg.MustRegister(requests, latency, orders, notifications, conns)
	return &Metrics{
		Requests:      requests,
		LatencyMS:     latency,
		OrdersPlaced:  orders,
		Notifications: notifications,
		Connections:   conns,
		gatherer:      reg,
	}
}

// Handler は /metrics 用
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// nilでも呼べるようにしておく（テストや未設定時）

func (m *Metrics) OrderPlaced(method string) {
	if m == nil {
		return
	}
	m.OrdersPlaced.WithLabelValues(method).Inc()
}

func (m *Metrics) Notification(eventType, result string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(eventType, result).Inc()
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.Connections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.Connections.Dec()
}

func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(route).Observe(float64(elapsed.Milliseconds()))
}
