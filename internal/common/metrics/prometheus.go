// Package metrics 提供 Prometheus 指标收集
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标收集器
// 每个实例持有独立的 Registry，方法在 nil 接收者上为空操作
type Metrics struct {
	registry             *prometheus.Registry
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	bookingsCreatedTotal *prometheus.CounterVec
	bookingConflicts     prometheus.Counter
	bookingsExpiredTotal prometheus.Counter
	transitionsTotal     *prometheus.CounterVec
	notificationsTotal   *prometheus.CounterVec
	taskDuration         *prometheus.HistogramVec
}

// New 创建指标收集器
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "homestay"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		bookingsCreatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bookings_created_total",
				Help:      "Total number of bookings created",
			},
			[]string{"payment_method", "status"},
		),
		bookingConflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_conflicts_total",
				Help:      "Total number of booking attempts rejected by a date conflict",
			},
		),
		bookingsExpiredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bookings_expired_total",
				Help:      "Total number of reserved bookings cancelled by the expiry sweep",
			},
		),
		transitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_transitions_total",
				Help:      "Total number of booking state transitions",
			},
			[]string{"action", "result"},
		),
		notificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_sent_total",
				Help:      "Total number of notification emails",
			},
			[]string{"template", "result"},
		),
		taskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scheduler_task_duration_seconds",
				Help:      "Scheduled task duration in seconds",
				Buckets:   []float64{.01, .05, .1, .5, 1, 5, 30, 120},
			},
			[]string{"task"},
		),
	}
}

// Registry 返回底层 Registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware 返回 Gin 中间件
func (m *Metrics) Middleware(skipPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || c.Request.URL.Path == skipPath {
			c.Next()
			return
		}

		start := time.Now()
		m.httpRequestsInFlight.Inc()

		c.Next()

		m.httpRequestsInFlight.Dec()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler 返回 Prometheus HTTP 处理器
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordBookingCreated 记录新订单
func (m *Metrics) RecordBookingCreated(paymentMethod, status string) {
	if m == nil {
		return
	}
	m.bookingsCreatedTotal.WithLabelValues(paymentMethod, status).Inc()
}

// RecordBookingConflict 记录日期冲突
func (m *Metrics) RecordBookingConflict() {
	if m == nil {
		return
	}
	m.bookingConflicts.Inc()
}

// RecordBookingsExpired 记录逾期取消数量
func (m *Metrics) RecordBookingsExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bookingsExpiredTotal.Add(float64(n))
}

// RecordTransition 记录状态变更，result 为 ok、noop 或 rejected
func (m *Metrics) RecordTransition(action, result string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(action, result).Inc()
}

// RecordNotification 记录通知寄送，result 为 sent、skipped 或 failed
func (m *Metrics) RecordNotification(template, result string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(template, result).Inc()
}

// ObserveTask 记录定时任务耗时
func (m *Metrics) ObserveTask(task string, d time.Duration) {
	if m == nil {
		return
	}
	m.taskDuration.WithLabelValues(task).Observe(d.Seconds())
}
