// Package metrics định nghĩa các metric Prometheus của address cleaner.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tập metric dùng chung. Mọi method đều an toàn với receiver nil
// để test và CLI có thể chạy không cần registry.
type Metrics struct {
	StageOutcomes      *prometheus.CounterVec
	CompletionFailures *prometheus.CounterVec
	CompletionCalls    prometheus.Counter
	GeocodeLookups     *prometheus.CounterVec
	CacheLookups       *prometheus.CounterVec
	JobsSubmitted      prometheus.Counter
	ResolveDuration    prometheus.Histogram
}

// New tạo và đăng ký metric vào reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StageOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "address_cleaner_stage_outcomes_total",
			Help: "Số lần chạy mỗi stage theo quality",
		}, []string{"stage", "quality"}),
		CompletionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "address_cleaner_completion_failures_total",
			Help: "Số lần gọi completion service thất bại theo nguyên nhân",
		}, []string{"reason"}),
		CompletionCalls: factory.NewCounter(prometheus.CounterOpts{
			Name: "address_cleaner_completion_calls_total",
			Help: "Tổng số lần gọi completion service",
		}),
		GeocodeLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "address_cleaner_geocode_lookups_total",
			Help: "Số lần tra geocode theo kết quả",
		}, []string{"result"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "address_cleaner_cache_lookups_total",
			Help: "Số lần tra cache theo tầng và kết quả",
		}, []string{"layer", "result"}),
		JobsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "address_cleaner_jobs_submitted_total",
			Help: "Tổng số batch job đã nhận",
		}),
		ResolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "address_cleaner_resolve_duration_seconds",
			Help:    "Thời gian xử lý một địa chỉ qua toàn bộ pipeline",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 45, 60, 90},
		}),
	}
}

// ObserveStage ghi nhận kết quả một stage
func (m *Metrics) ObserveStage(stage, quality string) {
	if m == nil {
		return
	}
	m.StageOutcomes.WithLabelValues(stage, quality).Inc()
}

// IncCompletionCall đếm một lần gọi completion service
func (m *Metrics) IncCompletionCall() {
	if m == nil {
		return
	}
	m.CompletionCalls.Inc()
}

// IncCompletionFailure đếm một lần gọi thất bại
func (m *Metrics) IncCompletionFailure(reason string) {
	if m == nil {
		return
	}
	m.CompletionFailures.WithLabelValues(reason).Inc()
}

// IncGeocode đếm một lần tra geocode
func (m *Metrics) IncGeocode(result string) {
	if m == nil {
		return
	}
	m.GeocodeLookups.WithLabelValues(result).Inc()
}

// IncCache đếm một lần tra cache
func (m *Metrics) IncCache(layer, result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(layer, result).Inc()
}

// IncJobSubmitted đếm một batch job mới
func (m *Metrics) IncJobSubmitted() {
	if m == nil {
		return
	}
	m.JobsSubmitted.Inc()
}

// ObserveResolve ghi nhận thời gian xử lý, gọi với time.Now() lúc bắt đầu
func (m *Metrics) ObserveResolve(start time.Time) {
	if m == nil {
		return
	}
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}
