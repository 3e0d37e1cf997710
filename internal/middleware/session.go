// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"

	"github.com/hitoshi/vortox/internal/model"
	"github.com/hitoshi/vortox/internal/view"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var userContextKey = contextKey("user")

// UserResolver はセッションIDから現在のユーザーを解決する。*auth.Gateway が実装する。
// 失敗はすべてnilで表す。
type UserResolver interface {
	CurrentUser(ctx context.Context, sessionID string) *model.User
}

// SessionIDFromRequest はCookieからセッションIDを取得する。無ければ空文字列。
func SessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// NewCurrentUserMiddleware はセッションCookieから現在のユーザーを解決し、
// リクエストコンテキストに注入するミドルウェアを返す。
// 未認証でもリクエストは拒否しない。拒否はNewRequireUserMiddlewareが行う。
func NewCurrentUserMiddleware(resolver UserResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := SessionIDFromRequest(r)
			if sessionID == "" {
				next.ServeHTTP(w, r)
				return
			}

			user := resolver.CurrentUser(r.Context(), sessionID)
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			recordLogUserID(r.Context(), user.ID)
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// NewRequireUserMiddleware は保護画面用のガードを返す。
// コンテキストのユーザーでProtectedPageを確定させ、未認証ならホームへ303でリダイレクトする。
// NewCurrentUserMiddlewareの後に配置する。
func NewRequireUserMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			page := view.NewProtectedPage()
			if page.Resolve(UserFromContext(r.Context())) != view.ProtectedAuthorized {
				http.Redirect(w, r, page.RedirectTo(), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewRequireAPIUserMiddleware はAPI用のガードを返す。未認証なら401を返す。
func NewRequireAPIUserMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext はリクエストコンテキストからユーザーを取得する。未認証ならnil。
func UserFromContext(ctx context.Context) *model.User {
	u, _ := ctx.Value(userContextKey).(*model.User)
	return u
}

// ContextWithUser はコンテキストにユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
