// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jobportal"

// HTTPRecorder はHTTPリクエストの計測を記録する。ミドルウェアから利用する。
type HTTPRecorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// DomainRecorder はアカウント・応募の業務イベントを記録する。ハンドラーから利用する。
type DomainRecorder interface {
	RecordSignup()
	RecordLogin(success bool)
	RecordApplicationSubmitted()
}

// ImportRecorder は求人フィード取り込みの結果を記録する。ワーカーから利用する。
type ImportRecorder interface {
	RecordFetch(result string)
	RecordFetchLatency(duration time.Duration)
	RecordJobsImported(created, updated int)
	RecordJobsPurged(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	signups      prometheus.Counter
	logins       *prometheus.CounterVec
	applications prometheus.Counter
	feedFetches  *prometheus.CounterVec
	fetchLatency prometheus.Histogram
	jobsImported *prometheus.CounterVec
	jobsPurged   prometheus.Counter
}

// NewCollector はCollectorを生成し、指定されたレジストリに登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "ルート・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTPリクエストの処理時間（秒）",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_registered_total",
			Help:      "登録されたアカウント数",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "結果別のログイン試行数",
		}, []string{"result"}),
		applications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "applications_submitted_total",
			Help:      "受け付けた応募数",
		}),
		feedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_feed_fetch_total",
			Help:      "結果別の求人フィード取得数",
		}, []string{"result"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_feed_fetch_latency_seconds",
			Help:      "求人フィード取得のレイテンシ（秒）",
			Buckets:   prometheus.DefBuckets,
		}),
		jobsImported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_imported_total",
			Help:      "フィードから取り込んだ求人数",
		}, []string{"op"}),
		jobsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_purged_total",
			Help:      "保持期間切れで削除したフィード由来の求人数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.signups,
		c.logins,
		c.applications,
		c.feedFetches,
		c.fetchLatency,
		c.jobsImported,
		c.jobsPurged,
	)

	return c
}

// RegisterRuntimeCollectors はGoランタイムとプロセスのメトリクスを登録する。
func RegisterRuntimeCollectors(reg prometheus.Registerer) {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// RecordHTTPRequest はHTTPリクエストの結果と処理時間を記録する。
// routeにはchiのルートパターンを渡し、ラベルの種類数を抑える。
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordSignup はアカウント登録を記録する。
func (c *Collector) RecordSignup() {
	c.signups.Inc()
}

// RecordLogin はログイン試行を記録する。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// RecordApplicationSubmitted は応募の受付を記録する。
func (c *Collector) RecordApplicationSubmitted() {
	c.applications.Inc()
}

// RecordFetch はフィード取得の結果（success, not_modified, http_error, parse_error, network_error）を記録する。
func (c *Collector) RecordFetch(result string) {
	c.feedFetches.WithLabelValues(result).Inc()
}

// RecordFetchLatency はフィード取得のレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordJobsImported は新規作成・更新した求人数を記録する。
func (c *Collector) RecordJobsImported(created, updated int) {
	c.jobsImported.WithLabelValues("created").Add(float64(created))
	c.jobsImported.WithLabelValues("updated").Add(float64(updated))
}

// RecordJobsPurged は削除した求人数を記録する。
func (c *Collector) RecordJobsPurged(count int64) {
	c.jobsPurged.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ HTTPRecorder   = (*Collector)(nil)
	_ DomainRecorder = (*Collector)(nil)
	_ ImportRecorder = (*Collector)(nil)
)
