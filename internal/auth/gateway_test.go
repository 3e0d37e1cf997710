package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hitoshi/vortox/internal/gotrue"
	"github.com/hitoshi/vortox/internal/model"
	"github.com/hitoshi/vortox/internal/repository"
	"github.com/hitoshi/vortox/internal/security"
)

// --- モック定義 ---

type mockIdentityProvider struct {
	authorizeFn func(ctx context.Context, req gotrue.AuthorizeRequest) (string, error)
	exchangeFn  func(ctx context.Context, code, verifier string) (*gotrue.Session, error)
	refreshFn   func(ctx context.Context, refreshToken string) (*gotrue.Session, error)
	getUserFn   func(ctx context.Context, accessToken string) (*gotrue.User, error)
	logoutFn    func(ctx context.Context, accessToken string) error

	calls atomic.Int32
}

func (m *mockIdentityProvider) Authorize(ctx context.Context, req gotrue.AuthorizeRequest) (string, error) {
	m.calls.Add(1)
	if m.authorizeFn != nil {
		return m.authorizeFn(ctx, req)
	}
	return "https://accounts.google.com/o/oauth2/auth", nil
}

func (m *mockIdentityProvider) ExchangePKCE(ctx context.Context, code, verifier string) (*gotrue.Session, error) {
	m.calls.Add(1)
	if m.exchangeFn != nil {
		return m.exchangeFn(ctx, code, verifier)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIdentityProvider) RefreshSession(ctx context.Context, refreshToken string) (*gotrue.Session, error) {
	m.calls.Add(1)
	if m.refreshFn != nil {
		return m.refreshFn(ctx, refreshToken)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIdentityProvider) GetUser(ctx context.Context, accessToken string) (*gotrue.User, error) {
	m.calls.Add(1)
	if m.getUserFn != nil {
		return m.getUserFn(ctx, accessToken)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIdentityProvider) Logout(ctx context.Context, accessToken string) error {
	m.calls.Add(1)
	if m.logoutFn != nil {
		return m.logoutFn(ctx, accessToken)
	}
	return nil
}

type mockSessionRepo struct {
	repository.SessionRepository
	findByIDFn   func(ctx context.Context, id string) (*model.Session, error)
	createFn     func(ctx context.Context, session *model.Session) error
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	return m.createFn(ctx, session)
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	return m.deleteByIDFn(ctx, id)
}

type recordingMetrics struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingMetrics) RecordAuthOperation(op, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op+":"+result)
}
func (r *recordingMetrics) RecordProviderLatency(string, time.Duration) {}
func (r *recordingMetrics) RecordSessionsPurged(int64) {}
func (r *recordingMetrics) RecordHTTPStatus(int) {}

func testConfig() GatewayConfig {
	return GatewayConfig{
		Configured:    true,
		Provider:      "google",
		CallbackURL:   "http://localhost:8080/auth/callback",
		SessionMaxAge: 3600,
	}
}

func validSession() *gotrue.Session {
	return &gotrue.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    3600,
		User: gotrue.User{
			ID:    "user-1",
			Email: "ada@example.com",
			UserMetadata: map[string]interface{}{
				"full_name": "Ada <b>Lovelace</b>",
				"picture":   "https://lh3.googleusercontent.com/a/ada",
			},
		},
	}
}

func newTestGateway(idp IdentityProvider, repo repository.SessionRepository, cfg GatewayConfig) *Gateway {
	return NewGateway(idp, repo, security.NewMetadataSanitizer(), nil, cfg)
}

// --- BeginExternalSignIn ---

func TestBeginExternalSignIn_Success_ReturnsRedirectAndVerifier(t *testing.T) {
	var gotReq gotrue.AuthorizeRequest
	idp := &mockIdentityProvider{
		authorizeFn: func(_ context.Context, req gotrue.AuthorizeRequest) (string, error) {
			gotReq = req
			return "https://accounts.google.com/o/oauth2/auth?client_id=abc", nil
		},
	}
	g := newTestGateway(idp, repository.NewMemorySessionRepo(), testConfig())

	signIn, err := g.BeginExternalSignIn(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if signIn.RedirectURL != "https://accounts.google.com/o/oauth2/auth?client_id=abc" {
		t.Errorf("RedirectURL = %q", signIn.RedirectURL)
	}
	if signIn.CodeVerifier == "" {
		t.Fatal("CodeVerifier should not be empty")
	}
	if gotReq.Provider != "google" || gotReq.RedirectTo != "http://localhost:8080/auth/callback" {
		t.Errorf("authorize request = %+v", gotReq)
	}
	if gotReq.CodeChallenge != gotrue.CodeChallengeS256(signIn.CodeVerifier) {
		t.Error("code challenge does not match verifier")
	}
}

func TestBeginExternalSignIn_NotConfigured_NoNetworkCall(t *testing.T) {
	idp := &mockIdentityProvider{}
	cfg := testConfig()
	cfg.Configured = false
	cfg.Missing = []string{"SUPABASE_URL"}
	rec := &recordingMetrics{}
	g := NewGateway(idp, repository.NewMemorySessionRepo(), security.NewMetadataSanitizer(), rec, cfg)

	_, err := g.BeginExternalSignIn(context.Background())

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigurationError, got %T (%v)", err, err)
	}
	if len(cfgErr.Missing) != 1 || cfgErr.Missing[0] != "SUPABASE_URL" {
		t.Errorf("Missing = %v", cfgErr.Missing)
	}
	if n := idp.calls.Load(); n != 0 {
		t.Errorf("provider was called %d times, want 0", n)
	}
	if len(rec.ops) != 1 || rec.ops[0] != "sign_in:not_configured" {
		t.Errorf("metrics = %v", rec.ops)
	}
}

func TestBeginExternalSignIn_ProviderErrors_AreClassified(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind ProviderErrorKind
	}{
		{
			name:     "provider not enabled",
			err:      &gotrue.Error{StatusCode: 400, Message: "Unsupported provider: provider is not enabled"},
			wantKind: ProviderNotEnabled,
		},
		{
			name:     "missing client id",
			err:      &gotrue.Error{StatusCode: 400, Message: "Client ID is required"},
			wantKind: ProviderMissingClientID,
		},
		{
			name:     "network error",
			err:      errors.New("dial tcp: connection refused"),
			wantKind: ProviderUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idp := &mockIdentityProvider{
				authorizeFn: func(context.Context, gotrue.AuthorizeRequest) (string, error) {
					return "", tt.err
				},
			}
			g := newTestGateway(idp, repository.NewMemorySessionRepo(), testConfig())

			_, err := g.BeginExternalSignIn(context.Background())

			var provErr *ProviderError
			if !errors.As(err, &provErr) {
				t.Fatalf("expected *ProviderError, got %T", err)
			}
			if provErr.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", provErr.Kind, tt.wantKind)
			}
			if provErr.Provider != "google" {
				t.Errorf("Provider = %q", provErr.Provider)
			}
		})
	}
}

// --- ExchangeCodeForSession ---

func TestExchangeCodeForSession_Success_StoresSession(t *testing.T) {
	repo := repository.NewMemorySessionRepo()
	idp := &mockIdentityProvider{
		exchangeFn: func(_ context.Context, code, verifier string) (*gotrue.Session, error) {
			if code != "valid123" || verifier != "verifier-1" {
				t.Errorf("exchange args = %q, %q", code, verifier)
			}
			return validSession(), nil
		},
	}
	g := newTestGateway(idp, repo, testConfig())
	now := time.Now().Truncate(time.Second)
	g.now = func() time.Time { return now }

	session, err := g.ExchangeCodeForSession(context.Background(), "valid123", "verifier-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(session.ID) != 64 {
		t.Errorf("session ID length = %d, want 64", len(session.ID))
	}
	if session.UserID != "user-1" || session.AccessToken != "access-1" {
		t.Errorf("session = %+v", session)
	}
	if !session.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v", session.ExpiresAt)
	}
	if !session.TokenExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("TokenExpiresAt = %v", session.TokenExpiresAt)
	}
	// メタデータは無害化され、pictureがアバターに使われる
	if session.User.FullName != "Ada Lovelace" {
		t.Errorf("FullName = %q", session.User.FullName)
	}
	if session.User.AvatarURL != "https://lh3.googleusercontent.com/a/ada" {
		t.Errorf("AvatarURL = %q", session.User.AvatarURL)
	}

	stored, _ := repo.FindByID(context.Background(), session.ID)
	if stored == nil {
		t.Error("session should be stored")
	}
}

func TestExchangeCodeForSession_Rejected_ReturnsExchangeError(t *testing.T) {
	idp := &mockIdentityProvider{
		exchangeFn: func(context.Context, string, string) (*gotrue.Session, error) {
			return nil, &gotrue.Error{StatusCode: 404, Message: "invalid flow state"}
		},
	}
	g := newTestGateway(idp, repository.NewMemorySessionRepo(), testConfig())

	_, err := g.ExchangeCodeForSession(context.Background(), "expired999", "verifier")

	var exErr *ExchangeError
	if !errors.As(err, &exErr) {
		t.Fatalf("expected *ExchangeError, got %T", err)
	}
	var apiErr *gotrue.Error
	if !errors.As(err, &apiErr) {
		t.Error("provider error should be reachable through Unwrap")
	}
}

func TestExchangeCodeForSession_InvalidInput_NoNetworkCall(t *testing.T) {
	notConfigured := testConfig()
	notConfigured.Configured = false

	tests := []struct {
		name     string
		code     string
		verifier string
		cfg      GatewayConfig
	}{
		{"empty code", "", "verifier", testConfig()},
		{"missing verifier", "valid123", "", testConfig()},
		{"not configured", "valid123", "verifier", notConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idp := &mockIdentityProvider{}
			g := newTestGateway(idp, repository.NewMemorySessionRepo(), tt.cfg)

			_, err := g.ExchangeCodeForSession(context.Background(), tt.code, tt.verifier)

			var exErr *ExchangeError
			if !errors.As(err, &exErr) {
				t.Fatalf("expected *ExchangeError, got %T", err)
			}
			if n := idp.calls.Load(); n != 0 {
				t.Errorf("provider was called %d times, want 0", n)
			}
		})
	}
}

func TestExchangeCodeForSession_UserMissing_FetchesUser(t *testing.T) {
	idp := &mockIdentityProvider{
		exchangeFn: func(context.Context, string, string) (*gotrue.Session, error) {
			return &gotrue.Session{AccessToken: "access-1", ExpiresIn: 3600}, nil
		},
		getUserFn: func(_ context.Context, token string) (*gotrue.User, error) {
			if token != "access-1" {
				t.Errorf("token = %q", token)
			}
			return &gotrue.User{ID: "user-2", Email: "grace@example.com"}, nil
		},
	}
	g := newTestGateway(idp, repository.NewMemorySessionRepo(), testConfig())

	session, err := g.ExchangeCodeForSession(context.Background(), "code", "verifier")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.UserID != "user-2" || session.User.Email != "grace@example.com" {
		t.Errorf("session = %+v", session)
	}
}

func TestExchangeCodeForSession_StoreFailure_ReturnsExchangeError(t *testing.T) {
	idp := &mockIdentityProvider{
		exchangeFn: func(context.Context, string, string) (*gotrue.Session, error) {
			return validSession(), nil
		},
	}
	repo := &mockSessionRepo{
		createFn: func(context.Context, *model.Session) error {
			return errors.New("db down")
		},
	}
	g := newTestGateway(idp, repo, testConfig())

	_, err := g.ExchangeCodeForSession(context.Background(), "code", "verifier")

	var exErr *ExchangeError
	if !errors.As(err, &exErr) {
		t.Fatalf("expected *ExchangeError, got %T", err)
	}
}

// --- EndSession ---

func TestEndSession_ProviderFailure_StillDeletesLocalSession(t *testing.T) {
	repo := repository.NewMemorySessionRepo()
	ctx := context.Background()
	repo.Create(ctx, &model.Session{ID: "s1", UserID: "user-1", AccessToken: "access-1", ExpiresAt: time.Now().Add(time.Hour)})

	var logoutToken string
	idp := &mockIdentityProvider{
		logoutFn: func(_ context.Context, token string) error {
			logoutToken = token
			return errors.New("provider unavailable")
		},
	}
	rec := &recordingMetrics{}
	g := NewGateway(idp, repo, security.NewMetadataSanitizer(), rec, testConfig())

	g.EndSession(ctx, "s1")

	if logoutToken != "access-1" {
		t.Errorf("logout token = %q, want access-1", logoutToken)
	}
	if got, _ := repo.FindByID(ctx, "s1"); got != nil {
		t.Error("local session should be deleted even when provider logout fails")
	}
	if len(rec.ops) != 1 || rec.ops[0] != "sign_out:provider_error" {
		t.Errorf("metrics = %v", rec.ops)
	}
}

func TestEndSession_Success_CallsProviderAndDeletes(t *testing.T) {
	repo := repository.NewMemorySessionRepo()
	ctx := context.Background()
	repo.Create(ctx, &model.Session{ID: "s1", UserID: "user-1", AccessToken: "access-1", ExpiresAt: time.Now().Add(time.Hour)})

	idp := &mockIdentityProvider{}
	g := newTestGateway(idp, repo, testConfig())

	g.EndSession(ctx, "s1")

	if n := idp.calls.Load(); n != 1 {
		t.Errorf("provider calls = %d, want 1", n)
	}
	if got, _ := repo.FindByID(ctx, "s1"); got != nil {
		t.Error("local session should be deleted")
	}
}

func TestEndSession_NoSession_DoesNotPanic(t *testing.T) {
	idp := &mockIdentityProvider{}
	g := newTestGateway(idp, repository.NewMemorySessionRepo(), testConfig())

	g.EndSession(context.Background(), "")
	g.EndSession(context.Background(), "unknown")

	if n := idp.calls.Load(); n != 0 {
		t.Errorf("provider calls = %d, want 0", n)
	}
}

func TestEndSession_RepositoryErrors_AreSwallowed(t *testing.T) {
	deleted := false
	repo := &mockSessionRepo{
		findByIDFn: func(context.Context, string) (*model.Session, error) {
			return nil, errors.New("db down")
		},
		deleteByIDFn: func(context.Context, string) error {
			deleted = true
			return errors.New("db down")
		},
	}
	g := newTestGateway(&mockIdentityProvider{}, repo, testConfig())

	g.EndSession(context.Background(), "s1")

	if !deleted {
		t.Error("DeleteByID should still be attempted")
	}
}

// --- CurrentUser ---

func TestCurrentUser_NoSession_ReturnsNil(t *testing.T) {
	g := newTestGateway(&mockIdentityProvider{}, repository.NewMemorySessionRepo(), testConfig())

	if u := g.CurrentUser(context.Background(), ""); u != nil {
		t.Errorf("expected nil for empty session ID, got %+v", u)
	}
	if u := g.CurrentUser(context.Background(), "unknown"); u != nil {
		t.Errorf("expected nil for unknown session, got %+v", u)
	}
}

func TestCurrentUser_RepositoryError_ReturnsNil(t *testing.T) {
	repo := &mockSessionRepo{
		findByIDFn: func(context.Context, string) (*model.Session, error) {
			return nil, errors.New("db down")
		},
	}
	g := newTestGateway(&mockIdentityProvider{}, repo, testConfig())

	if u := g.CurrentUser(context.Background(), "s1"); u != nil {
		t.Errorf("expected nil, got %+v", u)
	}
}

func TestCurrentUser_ValidSession_ReturnsSnapshotWithoutNetwork(t *testing.T) {
	repo := repository.NewMemorySessionRepo()
	ctx := context.Background()
	repo.Create(ctx, &model.Session{
		ID:             "s1",
		UserID:         "user-1",
		AccessToken:    "access-1",
		TokenExpiresAt: time.Now().Add(time.Hour),
		ExpiresAt:      time.Now().Add(time.Hour),
		User:           model.User{ID: "user-1", Name: "Ada"},
	})
	idp := &mockIdentityProvider{}
	g := newTestGateway(idp, repo, testConfig())

	u := g.CurrentUser(ctx, "s1")
	if u == nil || u.Name != "Ada" {
		t.Fatalf("user = %+v", u)
	}
	if n := idp.calls.Load(); n != 0 {
		t.Errorf("provider calls = %d, want 0", n)
	}
}

func TestCurrentUser_ExpiringToken_Refreshes(t *testing.T) {
	repo := repository.NewMemorySessionRepo()
	ctx := context.Background()
	now := time.Now()
	repo.Create(ctx, &model.Session{
		ID:             "s1",
		UserID:         "user-1",
		AccessToken:    "access-old",
		RefreshToken:   "refresh-old",
		TokenExpiresAt: now.Add(30 * time.Second),
		ExpiresAt:      now.Add(time.Hour),
		User:           model.User{ID: "user-1", Name: "Old"},
	})
	idp := &mockIdentityProvider{
		refreshFn: func(_ context.Context, token string) (*gotrue.Session, error) {
			if token != "refresh-old" {
				t.Errorf("refresh token = %q", token)
			}
			return &gotrue.Session{
				AccessToken:  "access-new",
				RefreshToken: "refresh-new",
				ExpiresIn:    3600,
				User: gotrue.User{
					ID:           "user-1",
					UserMetadata: map[string]interface{}{"name": "Ada"},
				},
			}, nil
		},
	}
	g := newTestGateway(idp, repo, testConfig())

	u := g.CurrentUser(ctx, "s1")
	if u == nil || u.Name != "Ada" {
		t.Fatalf("user = %+v", u)
	}

	stored, _ := repo.FindByID(ctx, "s1")
	if stored.AccessToken != "access-new" || stored.RefreshToken != "refresh-new" {
		t.Errorf("stored tokens = %q/%q", stored.AccessToken, stored.RefreshToken)
	}
	if stored.TokenExpired(time.Now(), DefaultRefreshSkew) {
		t.Error("refreshed token should not be expiring")
	}
}

func TestCurrentUser_RefreshRejected_DeletesSession(t *testing.T) {
	repo := repository.NewMemorySessionRepo()
	ctx := context.Background()
	repo.Create(ctx, &model.Session{
		ID:             "s1",
		UserID:         "user-1",
		RefreshToken:   "refresh-old",
		TokenExpiresAt: time.Now().Add(-time.Minute),
		ExpiresAt:      time.Now().Add(time.Hour),
	})
	idp := &mockIdentityProvider{
		refreshFn: func(context.Context, string) (*gotrue.Session, error) {
			return nil, &gotrue.Error{StatusCode: http.StatusBadRequest, Message: "Invalid Refresh Token: Already Used"}
		},
	}
	g := newTestGateway(idp, repo, testConfig())

	if u := g.CurrentUser(ctx, "s1"); u != nil {
		t.Errorf("expected nil, got %+v", u)
	}
	if got, _ := repo.FindByID(ctx, "s1"); got != nil {
		t.Error("session with rejected refresh token should be deleted")
	}
}

func TestCurrentUser_RefreshTransientError_KeepsSession(t *testing.T) {
	repo := repository.NewMemorySessionRepo()
	ctx := context.Background()
	repo.Create(ctx, &model.Session{
		ID:             "s1",
		UserID:         "user-1",
		RefreshToken:   "refresh-old",
		TokenExpiresAt: time.Now().Add(-time.Minute),
		ExpiresAt:      time.Now().Add(time.Hour),
	})
	idp := &mockIdentityProvider{
		refreshFn: func(context.Context, string) (*gotrue.Session, error) {
			return nil, errors.New("context deadline exceeded")
		},
	}
	g := newTestGateway(idp, repo, testConfig())

	if u := g.CurrentUser(ctx, "s1"); u != nil {
		t.Errorf("expected nil, got %+v", u)
	}
	if got, _ := repo.FindByID(ctx, "s1"); got == nil {
		t.Error("session should survive a transient refresh failure")
	}
}

func TestCurrentUser_ConcurrentRefresh_SingleProviderCall(t *testing.T) {
	repo := repository.NewMemorySessionRepo()
	ctx := context.Background()
	repo.Create(ctx, &model.Session{
		ID:             "s1",
		UserID:         "user-1",
		RefreshToken:   "refresh-old",
		TokenExpiresAt: time.Now().Add(-time.Minute),
		ExpiresAt:      time.Now().Add(time.Hour),
		User:           model.User{ID: "user-1"},
	})

	release := make(chan struct{})
	var refreshCalls atomic.Int32
	idp := &mockIdentityProvider{
		refreshFn: func(context.Context, string) (*gotrue.Session, error) {
			refreshCalls.Add(1)
			<-release
			return &gotrue.Session{AccessToken: "access-new", RefreshToken: "refresh-new", ExpiresIn: 3600}, nil
		},
	}
	g := newTestGateway(idp, repo, testConfig())

	const n = 10
	var wg sync.WaitGroup
	results := make([]*model.User, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = g.CurrentUser(ctx, "s1")
		}(i)
	}

	// 全ゴルーチンがsingleflightに到達するまで少し待つ
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, u := range results {
		if u == nil || u.ID != "user-1" {
			t.Errorf("results[%d] = %+v", i, u)
		}
	}
	// 先に終わったゴルーチンの後に到着したものは更新済みトークンを見るため、呼び出しは1回のみ
	if got := refreshCalls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
}

func TestCurrentUser_RefreshSurvivesCancelledLeader(t *testing.T) {
	repo := repository.NewMemorySessionRepo()
	repo.Create(context.Background(), &model.Session{
		ID:             "s1",
		UserID:         "user-1",
		RefreshToken:   "refresh-old",
		TokenExpiresAt: time.Now().Add(-time.Minute),
		ExpiresAt:      time.Now().Add(time.Hour),
		User:           model.User{ID: "user-1"},
	})

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	idp := &mockIdentityProvider{
		refreshFn: func(ctx context.Context, _ string) (*gotrue.Session, error) {
			once.Do(func() { close(started) })
			select {
			case <-release:
				return &gotrue.Session{AccessToken: "access-new", RefreshToken: "refresh-new", ExpiresIn: 3600}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
	g := newTestGateway(idp, repo, testConfig())

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	defer cancelLeader()

	var wg sync.WaitGroup
	var leader, follower *model.User
	wg.Add(1)
	go func() {
		defer wg.Done()
		leader = g.CurrentUser(leaderCtx, "s1")
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		follower = g.CurrentUser(context.Background(), "s1")
	}()

	// フォロワーがsingleflightに合流してからリーダーのリクエストを切断する
	time.Sleep(50 * time.Millisecond)
	cancelLeader()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if follower == nil || follower.ID != "user-1" {
		t.Errorf("follower user = %+v, want user-1", follower)
	}
	if leader == nil {
		t.Error("leader should also receive the refreshed session")
	}

	// ローテーションされたリフレッシュトークンが保存されていること
	stored, err := repo.FindByID(context.Background(), "s1")
	if err != nil || stored == nil {
		t.Fatalf("session should remain, got %v, err=%v", stored, err)
	}
	if stored.RefreshToken != "refresh-new" {
		t.Errorf("RefreshToken = %q, want %q", stored.RefreshToken, "refresh-new")
	}
}

func TestCurrentUser_RefreshTimeout_ReturnsNilAndKeepsSession(t *testing.T) {
	repo := repository.NewMemorySessionRepo()
	repo.Create(context.Background(), &model.Session{
		ID:             "s1",
		UserID:         "user-1",
		RefreshToken:   "refresh-old",
		TokenExpiresAt: time.Now().Add(-time.Minute),
		ExpiresAt:      time.Now().Add(time.Hour),
		User:           model.User{ID: "user-1"},
	})

	idp := &mockIdentityProvider{
		refreshFn: func(ctx context.Context, _ string) (*gotrue.Session, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	cfg := testConfig()
	cfg.RefreshTimeout = 20 * time.Millisecond
	g := newTestGateway(idp, repo, cfg)

	if u := g.CurrentUser(context.Background(), "s1"); u != nil {
		t.Errorf("CurrentUser() = %+v, want nil after refresh timeout", u)
	}
	if stored, _ := repo.FindByID(context.Background(), "s1"); stored == nil {
		t.Error("session should survive a refresh timeout")
	}
}

func TestToModelUser_PrefersAvatarURLOverPicture(t *testing.T) {
	g := newTestGateway(&mockIdentityProvider{}, repository.NewMemorySessionRepo(), testConfig())

	u := g.toModelUser(&gotrue.User{
		ID:    "user-1",
		Email: "ada@example.com",
		UserMetadata: map[string]interface{}{
			"avatar_url": "https://example.com/avatar.png",
			"picture":    "https://example.com/picture.png",
			"name":       "<script>x</script>Ada",
		},
	})

	if u.AvatarURL != "https://example.com/avatar.png" {
		t.Errorf("AvatarURL = %q", u.AvatarURL)
	}
	if strings.Contains(u.Name, "script") || u.Name != "Ada" {
		t.Errorf("Name = %q", u.Name)
	}
}
