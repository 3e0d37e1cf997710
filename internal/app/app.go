package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/vortox/internal/auth"
	"github.com/hitoshi/vortox/internal/config"
	"github.com/hitoshi/vortox/internal/database"
	"github.com/hitoshi/vortox/internal/gotrue"
	"github.com/hitoshi/vortox/internal/handler"
	"github.com/hitoshi/vortox/internal/logger"
	"github.com/hitoshi/vortox/internal/metrics"
	"github.com/hitoshi/vortox/internal/middleware"
	"github.com/hitoshi/vortox/internal/repository"
	"github.com/hitoshi/vortox/internal/security"
	"github.com/hitoshi/vortox/internal/worker/cleanup"
)

// shutdownTimeout はグレースフルシャットダウンの待機上限。
const shutdownTimeout = 30 * time.Second

// ErrDatabaseURLRequired はDATABASE_URLが必須のコマンドで未設定だった場合のエラー。
var ErrDatabaseURLRequired = errors.New("DATABASE_URL is required for this command")

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
		slog.Bool("auth_configured", cfg.ProviderConfigured),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// application はserveモードで組み立てた依存関係一式。
type application struct {
	handler     http.Handler
	cleanup     *cleanup.CleanupJob
	rateLimiter *middleware.RateLimiter
	closeFn     func() error
}

// Close はレートリミッターとセッションストアが保持するリソースを解放する。
func (a *application) Close() error {
	a.rateLimiter.Stop()
	if a.closeFn == nil {
		return nil
	}
	return a.closeFn()
}

// newApplication は設定から全依存関係をワイヤリングする。
// DATABASE_URLが空の場合はインメモリのセッションストアを使用する。
func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	// 1. セッションストア
	var (
		sessions repository.SessionRepository
		closeFn  func() error
	)
	if cfg.DatabaseURL != "" {
		db, err := openDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		sessions = repository.NewPostgresSessionRepo(db)
		closeFn = db.Close
		slog.Info("using postgres session store")
	} else {
		sessions = repository.NewMemorySessionRepo()
		slog.Warn("DATABASE_URL is not set, sessions are kept in memory and lost on restart")
	}

	// 2. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 3. 認証ゲートウェイ
	client := gotrue.NewClient(gotrue.Config{
		BaseURL: cfg.ProviderURL,
		APIKey:  cfg.ProviderAnonKey,
		Timeout: cfg.ProviderTimeout,
	})
	gateway := auth.NewGateway(client, sessions, security.NewMetadataSanitizer(), collector, auth.GatewayConfig{
		Configured:     cfg.ProviderConfigured,
		Missing:        cfg.ProviderMissing,
		Provider:       cfg.OAuthProvider,
		CallbackURL:    cfg.CallbackURL(),
		SessionMaxAge:  cfg.SessionMaxAge,
		RefreshTimeout: cfg.ProviderTimeout,
	})

	// 4. テンプレート
	pages, err := handler.NewPages()
	if err != nil {
		if closeFn != nil {
			_ = closeFn()
		}
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	// 5. ルーター
	rateLimiter := middleware.NewRateLimiter(middleware.AuthRateLimiterConfig(cfg.RateLimitAuth))
	router := handler.NewRouter(&handler.RouterDeps{
		Gateway: gateway,
		Pages:   pages,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(registry),
	})

	return &application{
		handler:     router,
		cleanup:     cleanup.NewCleanupJob(sessions, slog.Default(), collector),
		rateLimiter: rateLimiter,
		closeFn:     closeFn,
	}, nil
}

// runServe はWebサーバーモードで起動する。
// HTTPサーバーと期限切れセッションの削除ジョブを並行して実行し、
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	app, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      app.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("web server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		app.cleanup.Start(gctx, cleanup.DefaultInterval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down web server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("web server stopped gracefully")
	return nil
}

// runWorker は期限切れセッションの削除ジョブのみを起動する。
// PostgreSQLのセッションストアが必要。
func runWorker(ctx context.Context, cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return ErrDatabaseURLRequired
	}

	db, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	job := cleanup.NewCleanupJob(repository.NewPostgresSessionRepo(db), slog.Default(), nil)
	job.Start(ctx, cleanup.DefaultInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return ErrDatabaseURLRequired
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// openDatabase はセッションストア用のDB接続を開き、疎通を確認する。
func openDatabase(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := database.Connect(ctx, databaseURL, database.DefaultPoolConfig())
	if err != nil {
		return nil, err
	}

	slog.Info("database connection established")
	return db, nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	u.RawQuery = ""
	return u.Redacted()
}
