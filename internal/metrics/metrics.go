// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認証操作のラベル値。
const (
	OpSignIn   = "sign_in"
	OpExchange = "exchange"
	OpSignOut  = "sign_out"
	OpRefresh  = "refresh"
	OpUser     = "current_user"
)

// 認証操作の結果のラベル値。
const (
	ResultSuccess       = "success"
	ResultNotConfigured = "not_configured"
	ResultProviderError = "provider_error"
	ResultFailure       = "failure"
)

// MetricsCollector はメトリクス収集のインターフェース。
// セッションゲートウェイやワーカーから利用する。
type MetricsCollector interface {
	RecordAuthOperation(op, result string)
	RecordProviderLatency(op string, duration time.Duration)
	RecordSessionsPurged(count int64)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	authOps         *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	sessionsPurged  prometheus.Counter
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vortox_auth_operations_total",
			Help: "認証操作の操作種別・結果別の合計数",
		}, []string{"operation", "result"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vortox_provider_request_duration_seconds",
			Help:    "認証プロバイダーへのリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vortox_sessions_purged_total",
			Help: "期限切れで削除されたセッションの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vortox_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.authOps,
		c.providerLatency,
		c.sessionsPurged,
		c.httpStatus,
	)

	return c
}

// RecordAuthOperation は認証操作の結果を記録する。
func (c *Collector) RecordAuthOperation(op, result string) {
	c.authOps.WithLabelValues(op, result).Inc()
}

// RecordProviderLatency は認証プロバイダー呼び出しのレイテンシを記録する。
func (c *Collector) RecordProviderLatency(op string, duration time.Duration) {
	c.providerLatency.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordSessionsPurged は削除されたセッション数を記録する。
func (c *Collector) RecordSessionsPurged(count int64) {
	c.sessionsPurged.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type NopCollector struct{}

func (NopCollector) RecordAuthOperation(string, string) {}
func (NopCollector) RecordProviderLatency(string, time.Duration) {}
func (NopCollector) RecordSessionsPurged(int64) {}
func (NopCollector) RecordHTTPStatus(int) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
