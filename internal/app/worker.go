package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/jobportal/internal/config"
	"github.com/hitoshi/jobportal/internal/handler"
	"github.com/hitoshi/jobportal/internal/metrics"
	"github.com/hitoshi/jobportal/internal/repository"
	"github.com/hitoshi/jobportal/internal/security"
	"github.com/hitoshi/jobportal/internal/worker/cleanup"
	"github.com/hitoshi/jobportal/internal/worker/jobimport"
)

const cleanupInterval = 24 * time.Hour

// worker は求人フィード取り込みとクリーンアップのジョブを保持する。
type worker struct {
	scheduler *jobimport.Scheduler
	cleanup   *cleanup.CleanupJob
	feedURLs  []string
	interval  time.Duration
	logger    *slog.Logger
}

// newWorker はワーカーモードの依存関係を組み立てる。
func newWorker(cfg *config.Config, db *sql.DB, reg prometheus.Registerer, logger *slog.Logger) *worker {
	collector := metrics.NewCollector(reg)

	jobRepo := repository.NewPostgresJobRepo(db)
	feedRepo := repository.NewPostgresJobFeedRepo(db)

	guard := security.NewURLGuard()
	fetcher := jobimport.NewFetcher(
		jobRepo, feedRepo, guard,
		guard.NewClient(cfg.JobFetchTimeout),
		security.NewSanitizer(),
		collector,
		logger,
		jobimport.FetcherConfig{
			Interval:    cfg.JobFetchInterval,
			MaxBodySize: cfg.JobFetchMaxSize,
		},
	)

	return &worker{
		scheduler: jobimport.NewScheduler(feedRepo, fetcher, logger, cfg.JobFetchMaxConcurrent),
		cleanup:   cleanup.NewCleanupJob(jobRepo, collector, logger, cfg.JobRetentionDays),
		feedURLs:  cfg.JobFeedURLs,
		interval:  cfg.JobFetchInterval,
		logger:    logger,
	}
}

// run はctxがキャンセルされるまでスケジューラとクリーンアップを動かす。
func (w *worker) run(ctx context.Context) {
	registered := w.scheduler.RegisterFeeds(ctx, w.feedURLs)
	w.logger.Info("worker starting",
		slog.Int("feeds_configured", len(w.feedURLs)),
		slog.Int("feeds_registered", registered),
		slog.Duration("fetch_interval", w.interval),
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.cleanup.Start(ctx, cleanupInterval)
	}()

	w.scheduler.Start(ctx, w.interval)
	wg.Wait()
}

// newWorkerProbeHandler はワーカーの /health と /metrics を提供する。
// ワーカーは公開APIを持たないため、コンテナのヘルスチェックとスクレイプ専用。
func newWorkerProbeHandler(db handler.Pinger, gatherer prometheus.Gatherer) http.Handler {
	mux := chi.NewRouter()
	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status, code := "ok", http.StatusOK
		if err := db.PingContext(r.Context()); err != nil {
			status, code = "unavailable", http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	})
	mux.Handle("/metrics", metrics.Handler(gatherer))
	return mux
}

// runWorker はワーカーモードで起動する。
func runWorker(ctx context.Context, cfg *config.Config) error {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	metrics.RegisterRuntimeCollectors(reg)
	w := newWorker(cfg, db, reg, slog.Default())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	probe := newHTTPServer(":"+cfg.ServerPort, newWorkerProbeHandler(db, reg))
	probeErr := make(chan error, 1)
	go func() {
		probeErr <- serveUntilDone(ctx, probe, shutdownTimeout)
	}()

	w.run(ctx)
	cancel()
	if err := <-probeErr; err != nil {
		slog.Error("worker probe server error", slog.String("error", err.Error()))
	}

	slog.Info("worker stopped gracefully")
	return nil
}
