package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/hitoshi/vortox/internal/catalog"
	"github.com/hitoshi/vortox/internal/model"
	"github.com/hitoshi/vortox/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

// ページ名。templates/ 配下のファイル名と対応する。
const (
	pageLanding   = "landing"
	pageAuthError = "auth_error"
	pageDashboard = "dashboard"
)

// Pages はサーバー描画するHTMLページのテンプレート集。
type Pages struct {
	templates map[string]*template.Template
}

// NewPages は埋め込みテンプレートを解析してPagesを生成する。
func NewPages() (*Pages, error) {
	p := &Pages{templates: make(map[string]*template.Template)}
	for _, name := range []string{pageLanding, pageAuthError, pageDashboard} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		p.templates[name] = t
	}
	return p, nil
}

// MustNewPages はNewPagesがエラーを返した場合にpanicする。テンプレートは埋め込みのため起動時に確定する。
func MustNewPages() *Pages {
	p, err := NewPages()
	if err != nil {
		panic(err)
	}
	return p
}

// pageData は全ページ共通の表示データ。
type pageData struct {
	SignedIn  bool
	CSRFToken string
}

type landingData struct {
	pageData
	DisplayName    string
	Notice         *model.APIError
	TrendingTopics []catalog.TrendingTopic
}

type dashboardData struct {
	pageData
	Dashboard *view.Dashboard
}

// render はテンプレートをバッファに描画してからレスポンスに書き込む。
// 描画に失敗した場合は途中までのHTMLを返さず500にする。
func (p *Pages) render(w http.ResponseWriter, status int, name string, data any) {
	t, ok := p.templates[name]
	if !ok {
		slog.Error("template not found", slog.String("template", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// renderLanding はランディングページを描画する。noticeがあれば警告として表示する。
func (p *Pages) renderLanding(w http.ResponseWriter, r *http.Request, status int, user *model.User, notice *model.APIError) {
	data := landingData{
		pageData: pageData{
			SignedIn:  user != nil,
			CSRFToken: csrfToken(r),
		},
		Notice:         notice,
		TrendingTopics: catalog.TrendingTopics(),
	}
	if user != nil {
		data.DisplayName = view.DisplayName(user)
	}
	p.render(w, status, pageLanding, data)
}
