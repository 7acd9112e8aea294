package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/jobportal/internal/account"
	"github.com/hitoshi/jobportal/internal/application"
	"github.com/hitoshi/jobportal/internal/auth"
	"github.com/hitoshi/jobportal/internal/config"
	"github.com/hitoshi/jobportal/internal/handler"
	"github.com/hitoshi/jobportal/internal/job"
	"github.com/hitoshi/jobportal/internal/metrics"
	"github.com/hitoshi/jobportal/internal/middleware"
	"github.com/hitoshi/jobportal/internal/repository"
	"github.com/hitoshi/jobportal/internal/security"
)

const (
	serverReadTimeout  = 15 * time.Second
	serverWriteTimeout = 15 * time.Second
	serverIdleTimeout  = 60 * time.Second
	shutdownTimeout    = 30 * time.Second
)

// api はAPIサーバーとして組み立てた依存関係を保持する。
type api struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
}

// Close はバックグラウンドで動くリソースを停止する。
func (a *api) Close() {
	a.rateLimiter.Stop()
}

// newAPI はリポジトリ・サービス・ハンドラーを組み立ててルーターを返す。
func newAPI(cfg *config.Config, db *sql.DB, reg *prometheus.Registry, logger *slog.Logger) *api {
	collector := metrics.NewCollector(reg)
	metrics.RegisterRuntimeCollectors(reg)

	// リポジトリ
	accountRepo := repository.NewPostgresAccountRepo(db)
	applicationRepo := repository.NewPostgresApplicationRepo(db)
	jobRepo := repository.NewPostgresJobRepo(db)

	// セキュリティ
	sanitizer := security.NewSanitizer()
	tokens := auth.NewTokenService(cfg.SessionSecret, cfg.SessionTTL())

	// ドメインサービス
	accountService := account.NewService(accountRepo, cfg.BcryptCost)
	applicationService := application.NewService(applicationRepo)
	jobService := job.NewService(jobRepo, sanitizer)

	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth),
	)

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            logger,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		TokenVerifier:     tokens,
		TokenIssuer:       tokens,

		AccountService:     accountService,
		ApplicationService: applicationService,
		JobService:         jobService,

		HTTPMetrics:    collector,
		DomainMetrics:  collector,
		MetricsHandler: metrics.Handler(reg),
		HealthChecker:  db,
	})

	return &api{handler: router, rateLimiter: rateLimiter}
}

// newHTTPServer はタイムアウトを設定したhttp.Serverを生成する。
func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}
}

// runServe はAPIサーバーモードで起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	a := newAPI(cfg, db, prometheus.NewRegistry(), slog.Default())
	defer a.Close()

	server := newHTTPServer(":"+cfg.ServerPort, a.handler)
	return serveUntilDone(ctx, server, shutdownTimeout)
}

// serveUntilDone はサーバーを起動し、ctxのキャンセルまたは起動失敗まで待つ。
// キャンセル時は処理中のリクエストをtimeoutまで待ってから停止する。
func serveUntilDone(ctx context.Context, server *http.Server, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}
