// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// 数据库连接池指标
	dbConnectionsOpen  *prometheus.GaugeVec
	dbConnectionsInUse *prometheus.GaugeVec
	dbConnectionsIdle  *prometheus.GaugeVec
	dbSessionsInFlight *prometheus.GaugeVec
	dbPoolExhausted    *prometheus.CounterVec

	// 出站 HTTP 指标
	outboundRequestsTotal   *prometheus.CounterVec
	outboundRequestDuration *prometheus.HistogramVec
	outboundRetriesTotal    *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器，指标注册到 Prometheus 默认 registry
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	c.httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// 数据库连接池指标
	c.dbConnectionsOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Number of open database connections",
		},
		[]string{"pool"},
	)

	c.dbConnectionsInUse = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_in_use",
			Help:      "Number of database connections currently in use",
		},
		[]string{"pool"},
	)

	c.dbConnectionsIdle = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
		[]string{"pool"},
	)

	c.dbSessionsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_sessions_in_flight",
			Help:      "Number of database sessions currently checked out",
		},
		[]string{"pool"},
	)

	c.dbPoolExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_pool_exhausted_total",
			Help:      "Total number of session acquisitions that timed out",
		},
		[]string{"pool"},
	)

	// 出站 HTTP 指标
	c.outboundRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_requests_total",
			Help:      "Total number of outbound HTTP request attempts",
		},
		[]string{"method", "host", "status"},
	)

	c.outboundRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbound_request_duration_seconds",
			Help:      "Outbound HTTP request attempt duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "host"},
	)

	c.outboundRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_retries_total",
			Help:      "Total number of outbound HTTP retries after transient failures",
		},
		[]string{"host"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求；path 应为路由模板而非原始 URL
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// =============================================================================
// 🗄️ 数据库指标记录
// =============================================================================

// RecordDBPool 记录连接池快照，实现 database.StatsObserver
func (c *Collector) RecordDBPool(pool string, open, inUse, idle, inFlight int) {
	c.dbConnectionsOpen.WithLabelValues(pool).Set(float64(open))
	c.dbConnectionsInUse.WithLabelValues(pool).Set(float64(inUse))
	c.dbConnectionsIdle.WithLabelValues(pool).Set(float64(idle))
	c.dbSessionsInFlight.WithLabelValues(pool).Set(float64(inFlight))
}

// RecordDBPoolExhausted 记录一次获取超时
func (c *Collector) RecordDBPoolExhausted(pool string) {
	c.dbPoolExhausted.WithLabelValues(pool).Inc()
}

// =============================================================================
// 🌐 出站 HTTP 指标记录
// =============================================================================

// RecordOutboundRequest 记录一次出站尝试，status 为 0 表示网络错误，
// 实现 httpclient.Metrics
func (c *Collector) RecordOutboundRequest(method, host string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.outboundRequestsTotal.WithLabelValues(method, host, label).Inc()
	c.outboundRequestDuration.WithLabelValues(method, host).Observe(duration.Seconds())
}

// RecordOutboundRetry 记录一次重试
func (c *Collector) RecordOutboundRetry(host string) {
	c.outboundRetriesTotal.WithLabelValues(host).Inc()
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
