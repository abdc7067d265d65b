package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	ordersCreated   *prometheus.CounterVec
	movementsTotal  *prometheus.CounterVec
	lowStockEntries prometheus.Gauge
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpilot_http_requests_total",
		Help: "Jumlah permintaan HTTP berdasarkan route dan status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockpilot_http_request_duration_seconds",
		Help:    "Durasi permintaan HTTP per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpilot_orders_created_total",
		Help: "Jumlah order yang dibuat per seri.",
	}, []string{"series"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpilot_stock_movements_total",
		Help: "Jumlah penyesuaian stok manual per arah.",
	}, []string{"direction"})
	lowStock := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stockpilot_low_stock_entries",
		Help: "Jumlah entri stok pada atau di bawah ambang minimum.",
	})
	registry.MustRegister(requests, duration, orders, movements, lowStock)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		ordersCreated:   orders,
		movementsTotal:  movements,
		lowStockEntries: lowStock,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// OrderCreated menambah hitungan order per seri.
func (m *Metrics) OrderCreated(series string) {
	if m == nil {
		return
	}
	m.ordersCreated.WithLabelValues(series).Inc()
}

// MovementRecorded menambah hitungan penyesuaian stok.
func (m *Metrics) MovementRecorded(direction string) {
	if m == nil {
		return
	}
	m.movementsTotal.WithLabelValues(direction).Inc()
}

// SetLowStockEntries memperbarui gauge entri stok rendah.
func (m *Metrics) SetLowStockEntries(n float64) {
	if m == nil {
		return
	}
	m.lowStockEntries.Set(n)
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
