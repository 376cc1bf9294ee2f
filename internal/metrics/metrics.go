// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやハンドラー層から利用する。
type MetricsCollector interface {
	RecordRequest(method, path string, statusCode int, duration time.Duration)
	RecordLogin(success bool)
	RecordRegistration()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	loginsTotal     *prometheus.CounterVec
	registrations   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "メソッド・パス・ステータス別のHTTPリクエスト数",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "HTTPリクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		loginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_logins_total",
			Help: "結果別のログイン試行数",
		}, []string{"result"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_registrations_total",
			Help: "ユーザー登録の合計数",
		}),
	}

	reg.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.loginsTotal,
		c.registrations,
	)

	return c
}

// RecordRequest はHTTPリクエストの結果と処理時間を記録する。
// pathにはカーディナリティを抑えるためルートパターン（/products/{id}等）を渡すこと。
func (c *Collector) RecordRequest(method, path string, statusCode int, duration time.Duration) {
	c.requestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	c.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.loginsTotal.WithLabelValues(result).Inc()
}

// RecordRegistration はユーザー登録を記録する。
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
