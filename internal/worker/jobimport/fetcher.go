package jobimport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/jobportal/internal/metrics"
	"github.com/hitoshi/jobportal/internal/model"
)

// JobUpserter はフィード由来の求人を保存する。repository.JobRepositoryの部分集合。
type JobUpserter interface {
	UpsertFromFeed(ctx context.Context, job *model.Job) (bool, error)
}

// FeedStateUpdater はフィードの取得状態を保存する。repository.JobFeedRepositoryの部分集合。
type FeedStateUpdater interface {
	UpdateFetchState(ctx context.Context, feed *model.JobFeed) error
}

// URLValidator は取得前にURLの静的なSSRF検査を行う。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// Sanitizer はフィード由来の文字列を無害化する。
type Sanitizer interface {
	Text(raw string) string
	HTML(raw string) string
}

// FetcherConfig はFetcherの動作設定。
type FetcherConfig struct {
	Interval    time.Duration // 成功時の次回フェッチまでの間隔
	MaxBodySize int64         // レスポンスボディの上限バイト数
}

// Fetcher は1件の求人フィードを取得し、求人として取り込む。
// 条件付きGET、gofeedによるパース、(フィード, GUID) 単位のUPSERTを行い、
// 結果に応じてフィードの取得状態を更新する。
type Fetcher struct {
	jobs      JobUpserter
	feeds     FeedStateUpdater
	guard     URLValidator
	client    *http.Client
	sanitizer Sanitizer
	recorder  metrics.ImportRecorder
	logger    *slog.Logger
	cfg       FetcherConfig
	now       func() time.Time
}

// NewFetcher はFetcherを生成する。clientにはSSRF対策済みのクライアントを渡す。
func NewFetcher(
	jobs JobUpserter,
	feeds FeedStateUpdater,
	guard URLValidator,
	client *http.Client,
	sanitizer Sanitizer,
	recorder metrics.ImportRecorder,
	logger *slog.Logger,
	cfg FetcherConfig,
) *Fetcher {
	return &Fetcher{
		jobs:      jobs,
		feeds:     feeds,
		guard:     guard,
		client:    client,
		sanitizer: sanitizer,
		recorder:  recorder,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Fetch はフィードを取得し、結果に応じてフィード状態を更新する。
// パース失敗はフィード状態に記録するだけでエラーとして返さない。
func (f *Fetcher) Fetch(ctx context.Context, feed *model.JobFeed) error {
	log := f.logger.With(slog.String("feed_id", feed.ID), slog.String("feed_url", feed.FeedURL))

	if err := f.guard.ValidateURL(feed.FeedURL); err != nil {
		log.Error("SSRF検証に失敗しました", slog.String("error", err.Error()))
		f.recorder.RecordFetch("blocked")
		applyStop(feed, fmt.Sprintf("SSRF検証失敗: %s", err.Error()), f.now())
		f.saveState(ctx, log, feed)
		return fmt.Errorf("SSRF検証に失敗: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.FeedURL, nil)
	if err != nil {
		return fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", "JobPortal/1.0 Job Feed Importer")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml, text/xml, */*")
	if feed.ETag != "" {
		req.Header.Set("If-None-Match", feed.ETag)
	}
	if feed.LastModified != "" {
		req.Header.Set("If-Modified-Since", feed.LastModified)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	f.recorder.RecordFetchLatency(time.Since(start))
	if err != nil {
		log.Error("HTTPリクエストに失敗しました", slog.String("error", err.Error()))
		f.recorder.RecordFetch("network_error")
		applyBackoff(feed, fmt.Sprintf("HTTPリクエスト失敗: %s", err.Error()), f.now())
		f.saveState(ctx, log, feed)
		return fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}
	defer resp.Body.Close()

	switch ClassifyHTTPStatus(resp.StatusCode) {
	case FetchResultOK:
	case FetchResultNotModified:
		log.Info("フィードは未変更です", slog.Int("http_status", resp.StatusCode))
		f.recorder.RecordFetch("not_modified")
		applySuccess(feed, f.cfg.Interval, f.now())
		return f.feeds.UpdateFetchState(ctx, feed)
	case FetchResultStop:
		reason := fmt.Sprintf("HTTPステータス %d によりフェッチを停止しました", resp.StatusCode)
		log.Warn("フィードのフェッチを停止します", slog.Int("http_status", resp.StatusCode))
		f.recorder.RecordFetch("http_error")
		applyStop(feed, reason, f.now())
		return f.feeds.UpdateFetchState(ctx, feed)
	default:
		log.Warn("フィードのフェッチにバックオフを適用します",
			slog.Int("http_status", resp.StatusCode),
			slog.Int("consecutive_errors", feed.ConsecutiveErrors+1),
		)
		f.recorder.RecordFetch("http_error")
		applyBackoff(feed, fmt.Sprintf("HTTPステータス %d", resp.StatusCode), f.now())
		return f.feeds.UpdateFetchState(ctx, feed)
	}

	body, err := readLimited(resp.Body, f.cfg.MaxBodySize)
	if err != nil {
		log.Error("レスポンスボディの読み取りに失敗しました", slog.String("error", err.Error()))
		f.recorder.RecordFetch("network_error")
		applyBackoff(feed, fmt.Sprintf("レスポンス読み取り失敗: %s", err.Error()), f.now())
		return f.feeds.UpdateFetchState(ctx, feed)
	}

	if etag := resp.Header.Get("ETag"); etag != "" {
		feed.ETag = etag
	}
	if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
		feed.LastModified = lastMod
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		log.Warn("フィードのパースに失敗しました", slog.String("error", err.Error()))
		f.recorder.RecordFetch("parse_error")
		applyParseFailure(feed, err.Error(), f.now())
		f.saveState(ctx, log, feed)
		return nil
	}
	if parsed.Title != "" {
		feed.Title = f.sanitizer.Text(parsed.Title)
	}

	created, updated, err := f.importJobs(ctx, feed.ID, parseItems(parsed))
	f.recorder.RecordJobsImported(created, updated)
	if err != nil {
		log.Error("求人の保存に失敗しました", slog.String("error", err.Error()))
		applyBackoff(feed, fmt.Sprintf("求人の保存に失敗: %s", err.Error()), f.now())
		f.saveState(ctx, log, feed)
		return err
	}

	f.recorder.RecordFetch("success")
	applySuccess(feed, f.cfg.Interval, f.now())
	if err := f.feeds.UpdateFetchState(ctx, feed); err != nil {
		return fmt.Errorf("フィード状態の更新に失敗: %w", err)
	}

	log.Info("フィードの取り込みが完了しました",
		slog.Int("http_status", resp.StatusCode),
		slog.Int("jobs_created", created),
		slog.Int("jobs_updated", updated),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// importJobs は求人を1件ずつUPSERTし、新規・更新件数を返す。
// コンテキストがキャンセルされた場合は途中で打ち切る。
func (f *Fetcher) importJobs(ctx context.Context, feedID string, items []model.ParsedJob) (created, updated int, err error) {
	now := f.now()
	for _, pj := range items {
		if err := ctx.Err(); err != nil {
			return created, updated, err
		}

		job := toJob(feedID, pj, f.sanitizer)
		if job.Title == "" {
			continue
		}
		job.ID = uuid.New().String()
		job.CreatedAt = now
		job.UpdatedAt = now

		inserted, err := f.jobs.UpsertFromFeed(ctx, job)
		if err != nil {
			return created, updated, fmt.Errorf("求人 %q の保存に失敗: %w", pj.GUID, err)
		}
		if inserted {
			created++
		} else {
			updated++
		}
	}
	return created, updated, nil
}

// saveState はフィード状態を保存し、失敗はログに記録するのみとする。
func (f *Fetcher) saveState(ctx context.Context, log *slog.Logger, feed *model.JobFeed) {
	if err := f.feeds.UpdateFetchState(ctx, feed); err != nil {
		log.Error("フィード状態の更新に失敗しました", slog.String("error", err.Error()))
	}
}

// errBodyTooLarge はレスポンスボディが上限を超えた場合のエラー。
var errBodyTooLarge = errors.New("response body exceeds size limit")

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, errBodyTooLarge
	}
	return body, nil
}
