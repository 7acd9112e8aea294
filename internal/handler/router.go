package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/jobportal/internal/metrics"
	"github.com/hitoshi/jobportal/internal/middleware"
)

// healthCheckTimeout はヘルスチェック時のDB疎通確認のタイムアウト。
const healthCheckTimeout = 2 * time.Second

// Pinger はヘルスチェックでDB疎通を確認するためのインターフェース。*sql.DBが満たす。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	TokenVerifier     middleware.TokenVerifier
	TokenIssuer       TokenIssuer

	AccountService     AccountServiceInterface
	ApplicationService ApplicationServiceInterface
	JobService         JobServiceInterface

	HTTPMetrics    metrics.HTTPRecorder
	DomainMetrics  metrics.DomainRecorder
	MetricsHandler http.Handler
	HealthChecker  Pinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Logging → Recovery → SecurityHeaders → CORS → Metrics → Auth → RateLimit(General)
//
// 認証ミドルウェアはトークンがあれば主体を注入するだけで、
// 認証の要否はルートごとにRequirePrincipal/RequireAdminで指定する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
	r.Use(deps.RateLimiter.GeneralMiddleware())

	accountHandler := NewAccountHandler(deps.AccountService, deps.TokenIssuer, deps.DomainMetrics)
	appHandler := NewApplicationHandler(deps.ApplicationService, deps.DomainMetrics)
	jobHandler := NewJobHandler(deps.JobService)

	// --- 運用エンドポイント ---
	r.Get("/", root)
	r.Get("/health", health(deps.HealthChecker))
	r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)

	// --- アカウント ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthMiddleware())
		r.Post("/signup", accountHandler.Signup)
		r.Post("/login", accountHandler.Login)
	})
	r.Get("/profile/{email}", accountHandler.GetProfile)
	r.With(middleware.RequirePrincipal).Patch("/update-profile", accountHandler.UpdateProfile)

	// --- 応募 ---
	r.With(middleware.RequirePrincipal).Post("/apply", appHandler.Apply)
	r.Get("/appliedJobs", appHandler.AppliedJobs)
	r.Route("/applications", func(r chi.Router) {
		r.Get("/", appHandler.ListAll)
		// 同じ位置のパスパラメータを、GETでは応募者メールアドレス、DELETE/PATCHでは応募IDとして扱う
		r.Get("/{email}", appHandler.ListForApplicant)
		r.With(middleware.RequirePrincipal).Delete("/{id}", appHandler.Remove)
		r.With(middleware.RequireAdmin).Patch("/{id}", appHandler.SetStatus)
	})

	// --- 求人カタログ ---
	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", jobHandler.List)
		r.Get("/{id}", jobHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/", jobHandler.Create)
			r.Patch("/{id}", jobHandler.Update)
			r.Delete("/{id}", jobHandler.Delete)
		})
	})

	return r
}

func root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Hello World - Backend is running"))
}

// health はDB疎通を確認し、200または503を返すハンドラーを生成する。
func health(checker Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := checker.PingContext(ctx); err != nil {
			slog.Warn("health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
