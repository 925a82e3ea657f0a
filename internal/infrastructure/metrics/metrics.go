// Package metrics 提供 Prometheus 指标注册与上报辅助函数
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whispr_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whispr_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "whispr_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whispr_ws_events_total",
			Help: "Total number of websocket relay events by action.",
		},
		[]string{"action"},
	)
	messagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whispr_messages_sent_total",
			Help: "Total number of persisted messages by type.",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		messagesSentTotal,
	)
}

// HTTPMetricsMiddleware 记录请求量与耗时
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// IncWSActive 连接注册时调用
func IncWSActive() { wsActiveConnections.Inc() }

// DecWSActive 连接注销时调用
func DecWSActive() { wsActiveConnections.Dec() }

// IncWSEvent 每处理一个 relay 动作调用一次
func IncWSEvent(action string) { wsEventsTotal.WithLabelValues(action).Inc() }

// IncMessageSent 消息成功落库后调用
func IncMessageSent(messageType string) { messagesSentTotal.WithLabelValues(messageType).Inc() }
