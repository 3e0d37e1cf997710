// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/vortox/internal/auth"
	"github.com/hitoshi/vortox/internal/middleware"
	"github.com/hitoshi/vortox/internal/model"
	"github.com/hitoshi/vortox/internal/view"
)

// pkceVerifierCookie はサインイン開始からコールバックまでPKCE verifierを保持するCookie。
const pkceVerifierCookie = "pkce_verifier"

// pkceVerifierMaxAge はPKCE verifier Cookieの有効期間（秒）。
const pkceVerifierMaxAge = 600

// AuthGateway は認証ハンドラーが必要とするゲートウェイのインターフェース。
// *auth.Gateway が実装する。
type AuthGateway interface {
	BeginExternalSignIn(ctx context.Context) (*auth.SignIn, error)
	ExchangeCodeForSession(ctx context.Context, code, codeVerifier string) (*model.Session, error)
	EndSession(ctx context.Context, sessionID string)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	gateway AuthGateway
	pages   *Pages
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(gateway AuthGateway, pages *Pages, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		gateway: gateway,
		pages:   pages,
		config:  config,
	}
}

// Login は外部IdPによるサインインを開始する。
// 成功時はverifierをCookieに保存してプロバイダーへ303でリダイレクトする。
// 失敗時はランディングページに原因と対処方法を表示する。
// GET /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	signIn, err := h.gateway.BeginExternalSignIn(r.Context())
	if err != nil {
		status := signInErrorStatus(err)
		slog.Warn("failed to begin sign-in",
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
		h.pages.renderLanding(w, r, status, middleware.UserFromContext(r.Context()), auth.ToAPIError(err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     pkceVerifierCookie,
		Value:    signIn.CodeVerifier,
		Path:     "/auth",
		MaxAge:   pkceVerifierMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, signIn.RedirectURL, http.StatusSeeOther)
}

// signInErrorStatus はサインイン開始エラーのHTTPステータスを返す。
func signInErrorStatus(err error) int {
	var cfgErr *auth.ConfigurationError
	if errors.As(err, &cfgErr) {
		return http.StatusServiceUnavailable
	}
	var provErr *auth.ProviderError
	if errors.As(err, &provErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Callback はOAuthコールバックを処理する。常にリダイレクトで応答する。
// 認可コードがあればセッションに交換し、成功ならダッシュボード、失敗ならエラーページへ。
// 認可コードが無ければ交換せずにダッシュボードへ遷移し、ガードに判断を委ねる。
// GET /auth/callback?code=xxx
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")

	var verifier string
	if c, err := r.Cookie(pkceVerifierCookie); err == nil {
		verifier = c.Value
	}
	h.clearCookie(w, pkceVerifierCookie, "/auth")

	page := view.NewCallbackPage()
	target := page.Load(r.Context(), h.gateway, code, verifier)

	if err := page.Err(); err != nil {
		slog.Warn("oauth callback failed", slog.String("error", err.Error()))
	}
	if session := page.Session(); session != nil {
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    session.ID,
			Path:     "/",
			Domain:   h.config.CookieDomain,
			MaxAge:   h.config.SessionMaxAge,
			HttpOnly: true,
			Secure:   h.config.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Logout はセッションを破棄してホームへ遷移する。
// プロバイダー側のサインアウトに失敗してもローカルのセッションとCookieは必ず破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := middleware.SessionIDFromRequest(r); sessionID != "" {
		h.gateway.EndSession(r.Context(), sessionID)
	}

	h.clearCookie(w, middleware.SessionCookieName, "/")
	http.Redirect(w, r, view.PathHome, http.StatusSeeOther)
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name, path string) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if name == middleware.SessionCookieName {
		cookie.Domain = h.config.CookieDomain
	}
	http.SetCookie(w, cookie)
}
