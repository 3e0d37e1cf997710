// Package security はアプリケーションのセキュリティ機能を提供する。
//
// MetadataSanitizer は認証プロバイダーから受け取ったユーザーメタデータ
// （氏名、表示名、アバターURL）を画面表示前に無害化する。
// 氏名はIdP側でユーザーが自由に設定できるため、bluemondayのStrictPolicyで
// 全てのタグを除去したプレーンテキストとして扱う。
package security

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxTextLength は表示用テキストの最大文字数（rune単位）。
const maxTextLength = 200

// MetadataSanitizer はユーザーメタデータの無害化機能のインターフェース。
type MetadataSanitizer interface {
	// SanitizeText はタグを除去し、前後の空白を取り除いたプレーンテキストを返す。
	// HTMLエンティティはデコードされる。maxTextLength文字を超える部分は切り捨てる。
	SanitizeText(s string) string
	// SanitizeURL はhttpsの絶対URLのみを返す。それ以外は空文字列を返す。
	SanitizeURL(raw string) string
}

// metadataSanitizer はMetadataSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type metadataSanitizer struct {
	policy *bluemonday.Policy
}

// NewMetadataSanitizer はMetadataSanitizerを生成する。
func NewMetadataSanitizer() MetadataSanitizer {
	return &metadataSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText はタグを除去したプレーンテキストを返す。
func (s *metadataSanitizer) SanitizeText(in string) string {
	if in == "" {
		return ""
	}
	// StrictPolicyは&などをエスケープして返すので、テンプレート側での二重エスケープを避けるためデコードする
	out := html.UnescapeString(s.policy.Sanitize(in))
	out = strings.Join(strings.Fields(out), " ")

	r := []rune(out)
	if len(r) > maxTextLength {
		out = string(r[:maxTextLength])
	}
	return out
}

// SanitizeURL はhttpsの絶対URLのみを許可する。
func (s *metadataSanitizer) SanitizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Host == "" || u.User != nil {
		return ""
	}
	return u.String()
}
