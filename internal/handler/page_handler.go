package handler

import (
	"net/http"

	"github.com/hitoshi/vortox/internal/middleware"
	"github.com/hitoshi/vortox/internal/view"
)

// PageHandler はHTMLページのハンドラー。
type PageHandler struct {
	pages *Pages
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(pages *Pages) *PageHandler {
	return &PageHandler{pages: pages}
}

// Landing はランディングページを返す。
// GET /
func (h *PageHandler) Landing(w http.ResponseWriter, r *http.Request) {
	h.pages.renderLanding(w, r, http.StatusOK, middleware.UserFromContext(r.Context()), nil)
}

// AuthError は認証エラーページを返す。セッションの有無に関わらず同じ内容を表示する。
// GET /auth/error
func (h *PageHandler) AuthError(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, http.StatusOK, pageAuthError, pageData{})
}

// Dashboard はダッシュボードを返す。RequireUserMiddlewareの後に配置する。
// GET /dashboard?section=...&flipped=...&billing=...
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	state := view.ParseDashboardState(r.URL.Query())

	h.pages.render(w, http.StatusOK, pageDashboard, dashboardData{
		pageData: pageData{
			SignedIn:  true,
			CSRFToken: csrfToken(r),
		},
		Dashboard: view.BuildDashboard(user, state),
	})
}

func csrfToken(r *http.Request) string {
	return middleware.CSRFTokenFromContext(r.Context())
}
