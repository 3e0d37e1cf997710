package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hitoshi/vortox/internal/model"
)

// ConfigurationError は認証プロバイダーの接続設定が未設定またはプレースホルダーの場合のエラー。
// 試みた操作は失敗するが、プロセスは継続する。
type ConfigurationError struct {
	Missing []string // 未設定の環境変数名
}

// Error はerrorインターフェースを実装する。
func (e *ConfigurationError) Error() string {
	if len(e.Missing) == 0 {
		return "auth provider is not configured"
	}
	return fmt.Sprintf("auth provider is not configured: missing %s", strings.Join(e.Missing, ", "))
}

// ProviderErrorKind はプロバイダーが返したエラーの分類。
type ProviderErrorKind int

const (
	// ProviderUnknown は分類できないエラー。ネットワークエラーもここに含む。
	ProviderUnknown ProviderErrorKind = iota
	// ProviderNotEnabled はOAuthプロバイダーが認証サービス側で無効化されている。
	ProviderNotEnabled
	// ProviderMissingClientID はOAuthプロバイダーのクライアントIDが未設定。
	ProviderMissingClientID
)

// String はログ出力用の名前を返す。
func (k ProviderErrorKind) String() string {
	switch k {
	case ProviderNotEnabled:
		return "provider_not_enabled"
	case ProviderMissingClientID:
		return "missing_client_id"
	default:
		return "unknown"
	}
}

// ProviderError は認証プロバイダーがサインイン要求を拒否または処理できなかった場合のエラー。
type ProviderError struct {
	Kind     ProviderErrorKind
	Provider string // "google" 等
	Message  string // プロバイダーのメッセージ（ログ用、ユーザーには表示しない）
	Err      error
}

// Error はerrorインターフェースを実装する。
func (e *ProviderError) Error() string {
	return fmt.Sprintf("auth provider rejected %s sign-in (%s): %s", e.Provider, e.Kind, e.Message)
}

// Unwrap は元のエラーを返す。
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ExchangeError は認可コードが無効・期限切れなどでセッションに交換できなかった場合のエラー。
// 呼び出し側はエラーページへ遷移させ、リトライしない。
type ExchangeError struct {
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *ExchangeError) Error() string {
	return fmt.Sprintf("failed to exchange authorization code: %v", e.Err)
}

// Unwrap は元のエラーを返す。
func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// SignOutError はプロバイダー側のセッション無効化に失敗した場合のエラー。
// ログに記録するのみで呼び出し側には返さない。
type SignOutError struct {
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *SignOutError) Error() string {
	return fmt.Sprintf("failed to sign out at auth provider: %v", e.Err)
}

// Unwrap は元のエラーを返す。
func (e *SignOutError) Unwrap() error {
	return e.Err
}

// プロバイダーの自由記述メッセージに含まれる既知の文言（小文字で比較する）。
const (
	msgProviderNotEnabled = "provider is not enabled"
	msgMissingClientID    = "client id is required"
)

// ClassifyProviderMessage はプロバイダーのエラーメッセージを分類する。
// 認証サービスは構造化されたエラーコードを返さないケースがあるため、
// メッセージの部分一致による判定はこの関数だけに閉じ込める。
func ClassifyProviderMessage(msg string) ProviderErrorKind {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, msgProviderNotEnabled):
		return ProviderNotEnabled
	case strings.Contains(lower, msgMissingClientID):
		return ProviderMissingClientID
	default:
		return ProviderUnknown
	}
}

// ToAPIError はゲートウェイのエラーをユーザー向けのAPIErrorに変換する。
// 分類できないエラーは汎用のサインイン失敗として扱う。
func ToAPIError(err error) *model.APIError {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return model.NewAuthNotConfiguredError()
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		switch provErr.Kind {
		case ProviderNotEnabled:
			return model.NewProviderNotEnabledError(provErr.Provider)
		case ProviderMissingClientID:
			return model.NewProviderMissingClientIDError(provErr.Provider)
		}
	}

	return model.NewSignInFailedError()
}
