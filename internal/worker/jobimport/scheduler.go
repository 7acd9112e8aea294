// Package jobimport は求人フィードの定期取り込みを提供する。
// スケジューラ、フェッチャー、リトライ/バックオフ戦略を含む。
package jobimport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/jobportal/internal/model"
)

// FeedFetcher は1件のフィードを取り込む。
type FeedFetcher interface {
	Fetch(ctx context.Context, feed *model.JobFeed) error
}

// FeedStore はスケジューラが使うフィードの永続化操作。repository.JobFeedRepositoryの部分集合。
type FeedStore interface {
	EnsureByURL(ctx context.Context, feedURL string) (*model.JobFeed, error)
	ListDueForFetch(ctx context.Context) ([]*model.JobFeed, error)
}

const (
	// defaultMaxConcurrency は並列数の指定がない場合の既定値。
	defaultMaxConcurrency = 4
	// defaultInterval は取り込み間隔が0以下の場合の既定値。
	defaultInterval = 15 * time.Minute
)

// Scheduler は求人フィード取り込みのスケジューリングと並列制御を行う。
type Scheduler struct {
	feeds          FeedStore
	fetcher        FeedFetcher
	logger         *slog.Logger
	maxConcurrency int
}

// NewScheduler はSchedulerを生成する。
func NewScheduler(feeds FeedStore, fetcher FeedFetcher, logger *slog.Logger, maxConcurrency int) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}
	return &Scheduler{
		feeds:          feeds,
		fetcher:        fetcher,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// RegisterFeeds は設定されたフィードURLをjob_feedsに登録する。登録済みのURLはそのまま残す。
// 1件の失敗で他のURLの登録は止めない。
func (s *Scheduler) RegisterFeeds(ctx context.Context, urls []string) int {
	registered := 0
	for _, u := range urls {
		feed, err := s.feeds.EnsureByURL(ctx, u)
		if err != nil {
			s.logger.Error("求人フィードの登録に失敗しました",
				slog.String("feed_url", u),
				slog.String("error", err.Error()),
			)
			continue
		}
		registered++
		s.logger.Info("求人フィードを登録しました",
			slog.String("feed_id", feed.ID),
			slog.String("feed_url", feed.FeedURL),
			slog.String("fetch_status", string(feed.FetchStatus)),
		)
	}
	return registered
}

// Start は起動直後とinterval毎に取り込みサイクルを実行する。
// コンテキストがキャンセルされるまで戻らない。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("求人フィードのスケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	s.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("求人フィードのスケジューラを停止しました")
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("取り込みサイクルの実行に失敗しました", slog.String("error", err.Error()))
	}
}

// RunOnce は取得期限を迎えたフィードを一覧し、最大並列数を守りながら取り込む。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()

	feeds, err := s.feeds.ListDueForFetch(ctx)
	if err != nil {
		return err
	}
	if len(feeds) == 0 {
		s.logger.Debug("取り込み対象のフィードはありません")
		return nil
	}

	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

loop:
	for _, feed := range feeds {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}

		wg.Add(1)
		go func(f *model.JobFeed) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.fetcher.Fetch(ctx, f); err != nil {
				s.logger.Error("求人フィードの取り込みに失敗しました",
					slog.String("feed_id", f.ID),
					slog.String("feed_url", f.FeedURL),
					slog.String("error", err.Error()),
				)
			}
		}(feed)
	}

	wg.Wait()

	s.logger.Info("取り込みサイクルが完了しました",
		slog.Int("feed_count", len(feeds)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return ctx.Err()
}
