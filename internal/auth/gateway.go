// Package auth はホスト型認証サービスとのやり取りを仲介するセッションゲートウェイを提供する。
// サインイン開始、認可コードのセッションへの交換、サインアウト、現在のユーザー取得の
// 4操作だけを外部に公開し、プロバイダー由来のエラーは境界で型付きエラーに変換する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hitoshi/vortox/internal/gotrue"
	"github.com/hitoshi/vortox/internal/metrics"
	"github.com/hitoshi/vortox/internal/model"
	"github.com/hitoshi/vortox/internal/repository"
	"github.com/hitoshi/vortox/internal/security"
)

// DefaultRefreshSkew はアクセストークンを期限前に更新する猶予。
const DefaultRefreshSkew = 60 * time.Second

// DefaultRefreshTimeout はリフレッシュ1回（プロバイダー呼び出しとセッション保存）の上限。
const DefaultRefreshTimeout = 10 * time.Second

// errEmptyCode は空の認可コードが渡された場合のエラー。
var errEmptyCode = errors.New("authorization code is empty")

// errSessionGone はリフレッシュ中にセッションが削除された場合のエラー。
var errSessionGone = errors.New("session no longer exists")

// IdentityProvider は認証サービスのクライアントのインターフェース。
// *gotrue.Client が実装する。テストではフェイクに差し替える。
type IdentityProvider interface {
	Authorize(ctx context.Context, req gotrue.AuthorizeRequest) (string, error)
	ExchangePKCE(ctx context.Context, authCode, codeVerifier string) (*gotrue.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*gotrue.Session, error)
	GetUser(ctx context.Context, accessToken string) (*gotrue.User, error)
	Logout(ctx context.Context, accessToken string) error
}

// GatewayConfig はゲートウェイの設定。
type GatewayConfig struct {
	// Configured がfalseの場合、プロバイダーへのネットワーク呼び出しを一切行わない。
	Configured bool
	Missing    []string

	Provider      string // "google" 等
	CallbackURL   string // 認可コード付きで戻ってくるURL
	SessionMaxAge int    // ローカルセッションの有効期間（秒）
	RefreshSkew   time.Duration

	// RefreshTimeout はリフレッシュ処理の上限。リクエストのキャンセルとは独立に適用される。
	RefreshTimeout time.Duration
}

// SignIn はサインイン開始の結果。
// ブラウザをRedirectURLへ遷移させ、CodeVerifierはコールバックまで保持する。
type SignIn struct {
	RedirectURL  string
	CodeVerifier string
}

// Gateway はセッションに影響する全ての操作を認証プロバイダーとの間で仲介する。
type Gateway struct {
	idp       IdentityProvider
	sessions  repository.SessionRepository
	sanitizer security.MetadataSanitizer
	metrics   metrics.MetricsCollector
	config    GatewayConfig

	refreshGroup singleflight.Group
	now          func() time.Time
}

// NewGateway はGatewayを生成する。mcがnilの場合はメトリクスを記録しない。
func NewGateway(
	idp IdentityProvider,
	sessions repository.SessionRepository,
	sanitizer security.MetadataSanitizer,
	mc metrics.MetricsCollector,
	config GatewayConfig,
) *Gateway {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	if config.RefreshSkew <= 0 {
		config.RefreshSkew = DefaultRefreshSkew
	}
	if config.RefreshTimeout <= 0 {
		config.RefreshTimeout = DefaultRefreshTimeout
	}
	return &Gateway{
		idp:       idp,
		sessions:  sessions,
		sanitizer: sanitizer,
		metrics:   mc,
		config:    config,
		now:       time.Now,
	}
}

// Configured はプロバイダーが設定済みかどうかを返す。
func (g *Gateway) Configured() bool {
	return g.config.Configured
}

// BeginExternalSignIn は外部IdPによるサインインのリダイレクト先を取得する。
// 未設定の場合はネットワーク呼び出しを行わず*ConfigurationErrorを返す。
// プロバイダーが拒否した場合は分類済みの*ProviderErrorを返す。
func (g *Gateway) BeginExternalSignIn(ctx context.Context) (*SignIn, error) {
	if !g.config.Configured {
		g.metrics.RecordAuthOperation(metrics.OpSignIn, metrics.ResultNotConfigured)
		return nil, &ConfigurationError{Missing: g.config.Missing}
	}

	verifier, err := gotrue.GenerateCodeVerifier()
	if err != nil {
		g.metrics.RecordAuthOperation(metrics.OpSignIn, metrics.ResultFailure)
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}

	start := g.now()
	location, err := g.idp.Authorize(ctx, gotrue.AuthorizeRequest{
		Provider:      g.config.Provider,
		RedirectTo:    g.config.CallbackURL,
		CodeChallenge: gotrue.CodeChallengeS256(verifier),
	})
	g.metrics.RecordProviderLatency(metrics.OpSignIn, g.now().Sub(start))
	if err != nil {
		provErr := g.newProviderError(err)
		g.metrics.RecordAuthOperation(metrics.OpSignIn, metrics.ResultProviderError)
		slog.Warn("external sign-in was rejected by auth provider",
			slog.String("provider", provErr.Provider),
			slog.String("kind", provErr.Kind.String()),
			slog.String("error", err.Error()),
		)
		return nil, provErr
	}

	g.metrics.RecordAuthOperation(metrics.OpSignIn, metrics.ResultSuccess)
	return &SignIn{RedirectURL: location, CodeVerifier: verifier}, nil
}

// newProviderError はプロバイダーのエラーを分類して*ProviderErrorに変換する。
func (g *Gateway) newProviderError(err error) *ProviderError {
	msg := err.Error()
	var apiErr *gotrue.Error
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
	}
	return &ProviderError{
		Kind:     ClassifyProviderMessage(msg),
		Provider: g.config.Provider,
		Message:  msg,
		Err:      err,
	}
}

// ExchangeCodeForSession は認可コードをセッションに交換し、セッションストアに保存する。
// 失敗した場合は常に*ExchangeErrorを返す。
func (g *Gateway) ExchangeCodeForSession(ctx context.Context, code, codeVerifier string) (*model.Session, error) {
	session, err := g.exchange(ctx, code, codeVerifier)
	if err != nil {
		g.metrics.RecordAuthOperation(metrics.OpExchange, metrics.ResultFailure)
		slog.Warn("authorization code exchange failed", slog.String("error", err.Error()))
		return nil, &ExchangeError{Err: err}
	}

	g.metrics.RecordAuthOperation(metrics.OpExchange, metrics.ResultSuccess)
	slog.Info("user signed in",
		slog.String("user_id", session.UserID),
		slog.String("provider", g.config.Provider),
	)
	return session, nil
}

func (g *Gateway) exchange(ctx context.Context, code, codeVerifier string) (*model.Session, error) {
	if code == "" {
		return nil, errEmptyCode
	}
	if !g.config.Configured {
		return nil, &ConfigurationError{Missing: g.config.Missing}
	}
	if codeVerifier == "" {
		return nil, errors.New("code verifier is missing")
	}

	start := g.now()
	ps, err := g.idp.ExchangePKCE(ctx, code, codeVerifier)
	g.metrics.RecordProviderLatency(metrics.OpExchange, g.now().Sub(start))
	if err != nil {
		return nil, err
	}

	user, err := g.resolveUser(ctx, ps)
	if err != nil {
		return nil, err
	}

	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := g.now()
	session := &model.Session{
		ID:             sessionID,
		UserID:         user.ID,
		AccessToken:    ps.AccessToken,
		RefreshToken:   ps.RefreshToken,
		TokenExpiresAt: ps.Expiry(now),
		ExpiresAt:      now.Add(time.Duration(g.config.SessionMaxAge) * time.Second),
		CreatedAt:      now,
		User:           user,
	}

	if err := g.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// resolveUser はトークンレスポンスのユーザーを使い、含まれていない場合はユーザーAPIで取得する。
func (g *Gateway) resolveUser(ctx context.Context, ps *gotrue.Session) (model.User, error) {
	if ps.User.ID != "" {
		return g.toModelUser(&ps.User), nil
	}

	u, err := g.idp.GetUser(ctx, ps.AccessToken)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to resolve user: %w", err)
	}
	return g.toModelUser(u), nil
}

// EndSession はセッションを無効化する。
// プロバイダー側の無効化は常に試みるが、失敗は*SignOutErrorとしてログに記録するだけで返さない。
// ローカルセッションは結果にかかわらず削除する。
func (g *Gateway) EndSession(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}

	session, err := g.sessions.FindByID(ctx, sessionID)
	if err != nil {
		slog.Warn("failed to load session for sign-out",
			slog.String("error", err.Error()),
		)
	}

	if session != nil && session.AccessToken != "" && g.config.Configured {
		start := g.now()
		err := g.idp.Logout(ctx, session.AccessToken)
		g.metrics.RecordProviderLatency(metrics.OpSignOut, g.now().Sub(start))
		if err != nil {
			g.metrics.RecordAuthOperation(metrics.OpSignOut, metrics.ResultProviderError)
			slog.Warn("sign-out was not confirmed by auth provider",
				slog.String("user_id", session.UserID),
				slog.String("error", (&SignOutError{Err: err}).Error()),
			)
		} else {
			g.metrics.RecordAuthOperation(metrics.OpSignOut, metrics.ResultSuccess)
		}
	}

	if err := g.sessions.DeleteByID(ctx, sessionID); err != nil {
		slog.Warn("failed to delete local session",
			slog.String("error", err.Error()),
		)
		return
	}

	if session != nil {
		slog.Info("user signed out", slog.String("user_id", session.UserID))
	}
}

// CurrentUser は現在のセッションのユーザーを返す。
// セッションが無い・期限切れ・プロバイダーエラーの場合はnilを返し、失敗しない。
// アクセストークンが期限切れ間近の場合はリフレッシュする。
func (g *Gateway) CurrentUser(ctx context.Context, sessionID string) *model.User {
	if sessionID == "" {
		return nil
	}

	session, err := g.sessions.FindByID(ctx, sessionID)
	if err != nil {
		slog.Warn("failed to load session", slog.String("error", err.Error()))
		return nil
	}
	if session == nil {
		return nil
	}

	if session.TokenExpired(g.now(), g.config.RefreshSkew) {
		refreshed, err := g.refresh(ctx, sessionID)
		if err != nil {
			slog.Warn("failed to refresh session",
				slog.String("user_id", session.UserID),
				slog.String("error", err.Error()),
			)
			return nil
		}
		session = refreshed
	}

	user := session.User
	return &user
}

// refresh はアクセストークンを更新する。
// 同一セッションへの同時リフレッシュはsingleflightで1回のプロバイダー呼び出しにまとめる。
// リフレッシュトークンが拒否された場合はローカルセッションも削除する。
// 処理は呼び出し元のキャンセルに影響されず、RefreshTimeoutで打ち切る。
func (g *Gateway) refresh(ctx context.Context, sessionID string) (*model.Session, error) {
	v, err, _ := g.refreshGroup.Do(sessionID, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.config.RefreshTimeout)
		defer cancel()

		latest, err := g.sessions.FindByID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			return nil, errSessionGone
		}
		// 別のリクエストが既に更新済み
		if !latest.TokenExpired(g.now(), g.config.RefreshSkew) {
			return latest, nil
		}
		if !g.config.Configured {
			return nil, &ConfigurationError{Missing: g.config.Missing}
		}

		start := g.now()
		ps, err := g.idp.RefreshSession(ctx, latest.RefreshToken)
		g.metrics.RecordProviderLatency(metrics.OpRefresh, g.now().Sub(start))
		if err != nil {
			g.metrics.RecordAuthOperation(metrics.OpRefresh, metrics.ResultProviderError)
			if isRejected(err) {
				if delErr := g.sessions.DeleteByID(ctx, sessionID); delErr != nil {
					slog.Warn("failed to delete rejected session", slog.String("error", delErr.Error()))
				}
			}
			return nil, err
		}

		latest.AccessToken = ps.AccessToken
		if ps.RefreshToken != "" {
			latest.RefreshToken = ps.RefreshToken
		}
		latest.TokenExpiresAt = ps.Expiry(g.now())
		if ps.User.ID != "" {
			latest.User = g.toModelUser(&ps.User)
		}

		if err := g.sessions.Update(ctx, latest); err != nil {
			return nil, fmt.Errorf("failed to update session: %w", err)
		}
		g.metrics.RecordAuthOperation(metrics.OpRefresh, metrics.ResultSuccess)
		return latest, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Session), nil
}

// isRejected はプロバイダーがリフレッシュトークンを明示的に拒否したかどうかを判定する。
// ネットワークエラーや5xxは一時的な障害とみなしセッションを残す。
func isRejected(err error) bool {
	var apiErr *gotrue.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= http.StatusBadRequest && apiErr.StatusCode < http.StatusInternalServerError
}

// toModelUser はプロバイダーのユーザーを表示用のスナップショットに変換する。
// メタデータの文字列はユーザーが自由に設定できるため無害化する。
func (g *Gateway) toModelUser(u *gotrue.User) model.User {
	avatar := u.MetadataString("avatar_url")
	if avatar == "" {
		avatar = u.MetadataString("picture")
	}
	return model.User{
		ID:        u.ID,
		Email:     g.sanitizer.SanitizeText(u.Email),
		FullName:  g.sanitizer.SanitizeText(u.MetadataString("full_name")),
		Name:      g.sanitizer.SanitizeText(u.MetadataString("name")),
		AvatarURL: g.sanitizer.SanitizeURL(avatar),
	}
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
