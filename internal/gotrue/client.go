// Package gotrue はホスト型認証サービス（Supabase Auth）のREST APIクライアントを提供する。
// ブラウザSDKが行っているサインインURL生成、認可コード交換、トークン更新、
// ユーザー取得、ログアウトをサーバーサイドから呼び出す。
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	authorizePath = "/auth/v1/authorize"
	tokenPath     = "/auth/v1/token"
	userPath      = "/auth/v1/user"
	logoutPath    = "/auth/v1/logout"

	// maxResponseSize はレスポンスボディの読み取り上限。
	maxResponseSize = 1 << 20
)

// Config はクライアントの設定。
type Config struct {
	BaseURL string // 例: https://abcdefgh.supabase.co
	APIKey  string // anon（公開）キー
	Timeout time.Duration

	// テスト用にオーバーライド可能なHTTPクライアント
	HTTPClient *http.Client
}

// Client は認証サービスのREST APIクライアント。
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient はClientを生成する。
// HTTPClientが未指定の場合はTimeout付きのクライアントを生成する。
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}
}

// AuthorizeRequest は外部IdPによるサインイン開始のパラメータ。
type AuthorizeRequest struct {
	Provider      string // "google" 等
	RedirectTo    string // 認可コード付きで戻ってくるコールバックURL
	CodeChallenge string // PKCEのS256チャレンジ
	Scopes        string // 空の場合はプロバイダーのデフォルト
}

// AuthorizeURL はauthorizeエンドポイントのURLを組み立てる。
func (c *Client) AuthorizeURL(req AuthorizeRequest) string {
	params := url.Values{
		"provider":    {req.Provider},
		"redirect_to": {req.RedirectTo},
	}
	if req.CodeChallenge != "" {
		params.Set("code_challenge", req.CodeChallenge)
		params.Set("code_challenge_method", "s256")
	}
	if req.Scopes != "" {
		params.Set("scopes", req.Scopes)
	}
	return c.baseURL + authorizePath + "?" + params.Encode()
}

// Authorize はauthorizeエンドポイントに問い合わせ、外部IdPへのリダイレクト先URLを返す。
// リダイレクトは追跡しない。プロバイダーが無効な場合などはエラーボディを*Errorとして返す。
func (c *Client) Authorize(ctx context.Context, req AuthorizeRequest) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.AuthorizeURL(req), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create authorize request: %w", err)
	}
	c.setAPIKeyHeaders(httpReq)

	noRedirect := *c.httpClient
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := noRedirect.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("authorize request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		location := resp.Header.Get("Location")
		if location == "" {
			return "", fmt.Errorf("authorize returned status %d without Location", resp.StatusCode)
		}
		return location, nil
	}

	return "", parseError(resp)
}

// ExchangePKCE は認可コードとPKCEのverifierをセッションに交換する。
func (c *Client) ExchangePKCE(ctx context.Context, authCode, codeVerifier string) (*Session, error) {
	body := map[string]string{
		"auth_code":     authCode,
		"code_verifier": codeVerifier,
	}
	var session Session
	if err := c.postJSON(ctx, tokenPath+"?grant_type=pkce", "", body, &session); err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if session.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}
	return &session, nil
}

// RefreshSession はリフレッシュトークンで新しいセッションを取得する。
// リフレッシュトークンは一度きりの使用で、成功時に新しい値に置き換わる。
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var session Session
	if err := c.postJSON(ctx, tokenPath+"?grant_type=refresh_token", "", body, &session); err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	if session.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}
	return &session, nil
}

// GetUser はアクセストークンに対応するユーザーを取得する。
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+userPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user request: %w", err)
	}
	c.setAPIKeyHeaders(req)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var user User
	if err := c.do(req, &user); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("empty id in user response")
	}
	return &user, nil
}

// Logout はアクセストークンに紐づく全セッションを無効化する。
// 401/403/404はセッションが既に存在しないことを意味するため成功として扱う。
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	err := c.postJSON(ctx, logoutPath+"?scope=global", accessToken, nil, nil)
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return nil
		}
	}
	return fmt.Errorf("failed to logout: %w", err)
}

// postJSON はJSONボディをPOSTする。bearerが空の場合はAPIキーをBearerとして使う。
func (c *Client) postJSON(ctx context.Context, path, bearer string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setAPIKeyHeaders(req)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, out)
}

// do はリクエストを送信し、2xxの場合はoutにデコードする。
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) setAPIKeyHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
}
