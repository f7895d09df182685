// ABOUTME: Prometheus metrics for speech assets, Gemini calls and web clients
// ABOUTME: Each Metrics owns its registry so instances never collide
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for the app.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Audio asset metrics
	AssetsCreated  prometheus.Counter
	AssetsReleased prometheus.Counter
	LiveAssets     prometheus.Gauge
	DecodeErrors   prometheus.Counter
	Exports        prometheus.Counter

	// Gemini metrics
	GeminiRequests *prometheus.CounterVec
	GeminiDuration *prometheus.HistogramVec

	// Web metrics
	WebConnections prometheus.Gauge
	HTTPRequests   *prometheus.CounterVec
}

// New creates and registers all metrics on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		AssetsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "siervo_audio_assets_created_total",
			Help: "Total number of playback handles created",
		}),
		AssetsReleased: factory.NewCounter(prometheus.CounterOpts{
			Name: "siervo_audio_assets_released_total",
			Help: "Total number of playback handles released",
		}),
		LiveAssets: factory.NewGauge(prometheus.GaugeOpts{
			Name: "siervo_audio_assets_live",
			Help: "Current number of live playback handles",
		}),
		DecodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "siervo_audio_decode_errors_total",
			Help: "Total number of malformed audio payloads",
		}),
		Exports: factory.NewCounter(prometheus.CounterOpts{
			Name: "siervo_audio_exports_total",
			Help: "Total number of audio files exported",
		}),

		GeminiRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "siervo_gemini_requests_total",
			Help: "Total number of Gemini requests",
		}, []string{"operation", "status"}),
		GeminiDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "siervo_gemini_request_duration_seconds",
			Help:    "Gemini request duration",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		}, []string{"operation"}),

		WebConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "siervo_web_connections",
			Help: "Current number of websocket connections",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "siervo_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"path", "status"}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// AssetCreated records a new playback handle
func (m *Metrics) AssetCreated() {
	if m == nil {
		return
	}
	m.AssetsCreated.Inc()
	m.LiveAssets.Inc()
}

// AssetReleased records a released playback handle
func (m *Metrics) AssetReleased() {
	if m == nil {
		return
	}
	m.AssetsReleased.Inc()
	m.LiveAssets.Dec()
}

func (m *Metrics) DecodeFailed() {
	if m == nil {
		return
	}
	m.DecodeErrors.Inc()
}

func (m *Metrics) Exported() {
	if m == nil {
		return
	}
	m.Exports.Inc()
}

// ObserveGemini records one Gemini call
func (m *Metrics) ObserveGemini(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.GeminiRequests.WithLabelValues(operation, status).Inc()
	m.GeminiDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// ConnectionOpened records a websocket connection
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.WebConnections.Inc()
}

// ConnectionClosed records a websocket disconnect
func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.WebConnections.Dec()
}

// ObserveHTTP records one HTTP response
func (m *Metrics) ObserveHTTP(path string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(path, http.StatusText(status)).Inc()
}
