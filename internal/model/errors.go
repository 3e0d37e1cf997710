package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeAuthNotConfigured     = "AUTH_NOT_CONFIGURED"
	ErrCodeProviderNotEnabled    = "PROVIDER_NOT_ENABLED"
	ErrCodeProviderMissingClient = "PROVIDER_MISSING_CLIENT_ID"
	ErrCodeSignInFailed          = "SIGN_IN_FAILED"
	ErrCodeRateLimited           = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal              = "INTERNAL_ERROR"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication is required.",
		Category: "auth",
		Action:   "Please sign in.",
	}
}

// NewAuthNotConfiguredError は認証プロバイダー未設定エラーを生成する。
func NewAuthNotConfiguredError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthNotConfigured,
		Message:  "Authentication is not configured yet.",
		Category: "system",
		Action:   "Please check the setup instructions and set SUPABASE_URL and SUPABASE_ANON_KEY.",
	}
}

// NewProviderNotEnabledError はOAuthプロバイダーが無効化されている場合のエラーを生成する。
func NewProviderNotEnabledError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeProviderNotEnabled,
		Message:  fmt.Sprintf("%s OAuth is not enabled yet.", providerLabel(provider)),
		Category: "auth",
		Action:   "Please enable it in your Supabase dashboard under Authentication → Providers.",
	}
}

// NewProviderMissingClientIDError はOAuthクライアントIDが未設定の場合のエラーを生成する。
func NewProviderMissingClientIDError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeProviderMissingClient,
		Message:  fmt.Sprintf("%s OAuth Client ID is required.", providerLabel(provider)),
		Category: "auth",
		Action:   "Please configure it in your Supabase dashboard under Authentication → Providers.",
	}
}

// NewSignInFailedError は分類できないサインイン失敗のエラーを生成する。
func NewSignInFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeSignInFailed,
		Message:  "Sign-in could not be started.",
		Category: "auth",
		Action:   "Please try again in a moment.",
	}
}

// NewRateLimitedError はレート制限超過のエラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Please wait and retry after the specified time.",
	}
}

// NewInternalError は内部エラーを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "An internal error occurred.",
		Category: "system",
		Action:   "Please wait and try again.",
	}
}

func providerLabel(provider string) string {
	switch provider {
	case "google":
		return "Google"
	case "github":
		return "GitHub"
	case "":
		return "OAuth"
	default:
		return provider
	}
}
