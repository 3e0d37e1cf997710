package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/vortox/internal/middleware"
	"github.com/hitoshi/vortox/internal/model"
	"github.com/hitoshi/vortox/internal/view"
)

// meResponse は GET /api/me のレスポンス。
type meResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name,omitempty"`
	Name        string `json:"name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	DisplayName string `json:"display_name"`
}

// APIHandler はJSON APIのハンドラー。どのエンドポイントもRequireAPIUserMiddlewareの後に配置する。
type APIHandler struct{}

// NewAPIHandler はAPIHandlerを生成する。
func NewAPIHandler() *APIHandler {
	return &APIHandler{}
}

// Me は現在のログインユーザー情報を返す。
// GET /api/me
func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		Name:        user.Name,
		AvatarURL:   user.AvatarURL,
		DisplayName: view.DisplayName(user),
	})
}

// Dashboard はダッシュボードの表示モデルを返す。
// GET /api/dashboard?section=...&flipped=...&billing=...
func (h *APIHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	state := view.ParseDashboardState(r.URL.Query())
	writeJSON(w, http.StatusOK, view.BuildDashboard(user, state))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
