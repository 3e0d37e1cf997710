// Package model はドメインモデルを定義する。
package model

import "time"

// User は認証プロバイダーから取得したユーザーのスナップショットを表す。
// FullName, Name, AvatarURL はプロバイダー側のuser_metadataに由来し、存在しない場合は空文字列。
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Session はブラウザのセッションCookieと認証プロバイダーのトークンの対応を表す。
// IDはCookieに格納する不透明な値で、プロバイダーのトークン自体はブラウザに渡さない。
type Session struct {
	ID             string
	UserID         string
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt time.Time // アクセストークンの有効期限
	ExpiresAt      time.Time // ローカルセッションの有効期限
	CreatedAt      time.Time
	User           User
}

// TokenExpired はアクセストークンがskew以内に期限切れになるかどうかを返す。
func (s *Session) TokenExpired(now time.Time, skew time.Duration) bool {
	if s.TokenExpiresAt.IsZero() {
		return false
	}
	return !now.Add(skew).Before(s.TokenExpiresAt)
}
