package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hitoshi/vortox/internal/auth"
	"github.com/hitoshi/vortox/internal/model"
)

// --- モック定義 ---

type mockGateway struct {
	beginFn       func(ctx context.Context) (*auth.SignIn, error)
	exchangeFn    func(ctx context.Context, code, verifier string) (*model.Session, error)
	endSessionFn  func(ctx context.Context, sessionID string)
	currentUserFn func(ctx context.Context, sessionID string) *model.User

	exchangeCalls   atomic.Int32
	endSessionCalls atomic.Int32
}

func (m *mockGateway) BeginExternalSignIn(ctx context.Context) (*auth.SignIn, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx)
	}
	return &auth.SignIn{RedirectURL: "https://abcdefgh.supabase.co/auth/v1/authorize", CodeVerifier: "verifier"}, nil
}

func (m *mockGateway) ExchangeCodeForSession(ctx context.Context, code, verifier string) (*model.Session, error) {
	m.exchangeCalls.Add(1)
	if m.exchangeFn != nil {
		return m.exchangeFn(ctx, code, verifier)
	}
	return nil, errors.New("not implemented")
}

func (m *mockGateway) EndSession(ctx context.Context, sessionID string) {
	m.endSessionCalls.Add(1)
	if m.endSessionFn != nil {
		m.endSessionFn(ctx, sessionID)
	}
}

func (m *mockGateway) CurrentUser(ctx context.Context, sessionID string) *model.User {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, sessionID)
	}
	return nil
}

// acceptingGateway は"valid123"だけを受け付け、発行したセッションでユーザーを返すモック。
func acceptingGateway() *mockGateway {
	return &mockGateway{
		exchangeFn: func(ctx context.Context, code, verifier string) (*model.Session, error) {
			if code != "valid123" {
				return nil, &auth.ExchangeError{Err: errors.New("invalid grant")}
			}
			return &model.Session{
				ID:        "session-abc",
				UserID:    "user-1",
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
		currentUserFn: func(ctx context.Context, sessionID string) *model.User {
			if sessionID == "session-abc" {
				return &model.User{ID: "user-1", Email: "ada@example.com"}
			}
			return nil
		},
	}
}

var testAuthConfig = AuthHandlerConfig{
	CookieSecure:  true,
	SessionMaxAge: 604800,
}

func newTestAuthHandler(gw AuthGateway) *AuthHandler {
	return NewAuthHandler(gw, MustNewPages(), testAuthConfig)
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// --- Login ---

func TestAuthHandler_Login_RedirectsToProviderAndStoresVerifier(t *testing.T) {
	gw := &mockGateway{
		beginFn: func(ctx context.Context) (*auth.SignIn, error) {
			return &auth.SignIn{
				RedirectURL:  "https://accounts.google.com/o/oauth2/auth?state=xyz",
				CodeVerifier: "verifier-123",
			}, nil
		},
	}
	h := newTestAuthHandler(gw)

	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if loc := resp.Header.Get("Location"); loc != "https://accounts.google.com/o/oauth2/auth?state=xyz" {
		t.Errorf("Location = %q", loc)
	}

	c := findCookie(resp, pkceVerifierCookie)
	if c == nil {
		t.Fatal("expected pkce_verifier cookie")
	}
	if c.Value != "verifier-123" {
		t.Errorf("cookie value = %q, want %q", c.Value, "verifier-123")
	}
	if !c.HttpOnly || !c.Secure {
		t.Errorf("cookie HttpOnly=%v Secure=%v, want both true", c.HttpOnly, c.Secure)
	}
	if c.Path != "/auth" || c.MaxAge != pkceVerifierMaxAge {
		t.Errorf("cookie Path=%q MaxAge=%d", c.Path, c.MaxAge)
	}
}

func TestAuthHandler_Login_ErrorsRenderNotice(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantText   string
	}{
		{
			name:       "not configured",
			err:        &auth.ConfigurationError{Missing: []string{"SUPABASE_URL"}},
			wantStatus: http.StatusServiceUnavailable,
			wantText:   "Authentication is not configured yet.",
		},
		{
			name:       "provider not enabled",
			err:        &auth.ProviderError{Kind: auth.ProviderNotEnabled, Provider: "google"},
			wantStatus: http.StatusBadGateway,
			wantText:   "Google OAuth is not enabled yet.",
		},
		{
			name:       "missing client id",
			err:        &auth.ProviderError{Kind: auth.ProviderMissingClientID, Provider: "google"},
			wantStatus: http.StatusBadGateway,
			wantText:   "Google OAuth Client ID is required.",
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantText:   "Sign-in could not be started.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &mockGateway{
				beginFn: func(ctx context.Context) (*auth.SignIn, error) { return nil, tt.err },
			}
			h := newTestAuthHandler(gw)

			w := httptest.NewRecorder()
			h.Login(w, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantText) {
				t.Errorf("body should contain %q", tt.wantText)
			}
			if findCookie(w.Result(), pkceVerifierCookie) != nil {
				t.Error("pkce_verifier cookie should not be set on failure")
			}
			if loc := w.Header().Get("Location"); loc != "" {
				t.Errorf("Location = %q, want none", loc)
			}
		})
	}
}

// --- Callback ---

func TestAuthHandler_Callback_Transitions(t *testing.T) {
	tests := []struct {
		name          string
		query         string
		wantLocation  string
		wantExchanges int32
		wantSession   bool
	}{
		{"accepted code", "?code=valid123", "/dashboard", 1, true},
		{"rejected code", "?code=expired999", "/auth/error", 1, false},
		{"no code", "", "/dashboard", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := acceptingGateway()
			h := newTestAuthHandler(gw)

			req := httptest.NewRequest(http.MethodGet, "/auth/callback"+tt.query, nil)
			w := httptest.NewRecorder()
			h.Callback(w, req)

			resp := w.Result()
			if resp.StatusCode != http.StatusSeeOther {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
			}
			if loc := resp.Header.Get("Location"); loc != tt.wantLocation {
				t.Errorf("Location = %q, want %q", loc, tt.wantLocation)
			}
			if got := gw.exchangeCalls.Load(); got != tt.wantExchanges {
				t.Errorf("exchange calls = %d, want %d", got, tt.wantExchanges)
			}

			c := findCookie(resp, "session_id")
			if tt.wantSession {
				if c == nil || c.Value != "session-abc" {
					t.Fatalf("session cookie = %+v, want session-abc", c)
				}
				if !c.HttpOnly || c.MaxAge != 604800 {
					t.Errorf("session cookie HttpOnly=%v MaxAge=%d", c.HttpOnly, c.MaxAge)
				}
			} else if c != nil {
				t.Errorf("session cookie should not be set, got %+v", c)
			}
		})
	}
}

func TestAuthHandler_Callback_PassesVerifierAndClearsCookie(t *testing.T) {
	var gotVerifier string
	gw := &mockGateway{
		exchangeFn: func(ctx context.Context, code, verifier string) (*model.Session, error) {
			gotVerifier = verifier
			return &model.Session{ID: "s1"}, nil
		},
	}
	h := newTestAuthHandler(gw)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=valid123", nil)
	req.AddCookie(&http.Cookie{Name: pkceVerifierCookie, Value: "verifier-xyz"})
	w := httptest.NewRecorder()
	h.Callback(w, req)

	if gotVerifier != "verifier-xyz" {
		t.Errorf("verifier = %q, want %q", gotVerifier, "verifier-xyz")
	}
	c := findCookie(w.Result(), pkceVerifierCookie)
	if c == nil || c.MaxAge >= 0 {
		t.Errorf("pkce_verifier cookie should be cleared, got %+v", c)
	}
}

func TestAuthHandler_Callback_ErrorQueryWithoutCode_GoesToDashboard(t *testing.T) {
	gw := acceptingGateway()
	h := newTestAuthHandler(gw)

	q := url.Values{"error": {"access_denied"}}
	w := httptest.NewRecorder()
	h.Callback(w, httptest.NewRequest(http.MethodGet, "/auth/callback?"+q.Encode(), nil))

	if loc := w.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", loc)
	}
	if gw.exchangeCalls.Load() != 0 {
		t.Error("exchange should not be attempted without a code")
	}
}

// --- Logout ---

func TestAuthHandler_Logout_EndsSessionAndClearsCookie(t *testing.T) {
	var ended string
	gw := &mockGateway{
		endSessionFn: func(ctx context.Context, sessionID string) { ended = sessionID },
	}
	h := newTestAuthHandler(gw)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "session-abc"})
	w := httptest.NewRecorder()
	h.Logout(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
	if ended != "session-abc" {
		t.Errorf("EndSession called with %q, want session-abc", ended)
	}
	c := findCookie(resp, "session_id")
	if c == nil || c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("session cookie should be cleared, got %+v", c)
	}
}

func TestAuthHandler_Logout_WithoutSession_StillRedirects(t *testing.T) {
	gw := &mockGateway{}
	h := newTestAuthHandler(gw)

	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if gw.endSessionCalls.Load() != 0 {
		t.Error("EndSession should not be called without a session cookie")
	}
}

func TestSignInErrorStatus_WrappedErrors(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), &auth.ConfigurationError{})
	if got := signInErrorStatus(wrapped); got != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", got, http.StatusServiceUnavailable)
	}
}
