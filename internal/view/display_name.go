// Package view はセッションの有無に応じて表示内容と遷移先を決める画面ロジックを提供する。
// HTTPやテンプレートには依存せず、ハンドラーとミドルウェアから利用する。
package view

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hitoshi/vortox/internal/model"
)

// FallbackDisplayName は名前もメールアドレスも無い場合の表示名。
const FallbackDisplayName = "Creator"

// DisplayName はユーザーの表示名を決める。
// full_name、name、メールアドレスのローカル部（先頭を大文字化）、固定値の順に優先する。
// 同じユーザーに対して常に同じ値を返す。
func DisplayName(u *model.User) string {
	if u == nil {
		return FallbackDisplayName
	}
	if u.FullName != "" {
		return u.FullName
	}
	if u.Name != "" {
		return u.Name
	}

	local, _, _ := strings.Cut(u.Email, "@")
	if local == "" {
		return FallbackDisplayName
	}
	return capitalize(local)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
