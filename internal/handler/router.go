package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/vortox/internal/metrics"
	"github.com/hitoshi/vortox/internal/middleware"
)

// SessionGateway はルーター全体が必要とするゲートウェイ操作。*auth.Gateway が実装する。
type SessionGateway interface {
	AuthGateway
	middleware.UserResolver
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Gateway    SessionGateway
	Pages      *Pages
	AuthConfig AuthHandlerConfig

	// ミドルウェア依存
	CSRFConfig        middleware.CSRFConfig
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter // nilの場合は /auth のレート制限を行わない
	Logger            *slog.Logger

	// メトリクス
	Metrics        metrics.MetricsCollector
	MetricsHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → RequestID → Logging → Recovery → Metrics
//	  → SecurityHeaders → CSRF → CurrentUser（/health, /metrics 以外）
//	    → RateLimit（/auth/login）| RequireUser（/dashboard）| CORS → RequireAPIUser（/api/*）
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mc := deps.Metrics
	if mc == nil {
		mc = metrics.NopCollector{}
	}

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewMetricsMiddleware(mc))

	// --- 運用エンドポイント（セッション解決なし） ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	authHandler := NewAuthHandler(deps.Gateway, deps.Pages, deps.AuthConfig)
	pageHandler := NewPageHandler(deps.Pages)
	apiHandler := NewAPIHandler()

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSecurityHeadersMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(middleware.NewCurrentUserMiddleware(deps.Gateway))

		r.Get("/", pageHandler.Landing)

		// 認証ルート（OAuthフロー）
		// レート制限はサインイン開始のみ。コールバックとログアウトは常にリダイレクトで応答する
		r.Route("/auth", func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.With(deps.RateLimiter.Middleware()).Get("/login", authHandler.Login)
			} else {
				r.Get("/login", authHandler.Login)
			}
			r.Get("/callback", authHandler.Callback)
			r.Get("/error", pageHandler.AuthError)
			r.Post("/logout", authHandler.Logout)
		})

		// 保護画面
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewRequireUserMiddleware())
			r.Get("/dashboard", pageHandler.Dashboard)
		})

		// JSON API
		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
			r.Use(middleware.NewRequireAPIUserMiddleware())
			r.Get("/me", apiHandler.Me)
			r.Get("/dashboard", apiHandler.Dashboard)
		})
	})

	return r
}
