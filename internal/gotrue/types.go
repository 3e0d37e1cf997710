package gotrue

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Session はトークンエンドポイントのレスポンス。
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Expiry はアクセストークンの有効期限を返す。
// expires_atが無い場合はnowとexpires_inから算出し、どちらも無ければゼロ値を返す。
func (s *Session) Expiry(now time.Time) time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}
	if s.ExpiresIn > 0 {
		return now.Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return time.Time{}
}

// User は認証サービスのユーザー。
type User struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
}

// MetadataString はuser_metadataの文字列値を返す。存在しないか文字列でない場合は空文字列。
func (u *User) MetadataString(key string) string {
	if u.UserMetadata == nil {
		return ""
	}
	v, ok := u.UserMetadata[key].(string)
	if !ok {
		return ""
	}
	return v
}

// Error は認証サービスが返したエラーレスポンス。
// Messageはプロバイダーの自由記述のメッセージをそのまま保持する。
type Error struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("auth api error (status %d, %s): %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("auth api error (status %d): %s", e.StatusCode, e.Message)
}

// errorBody はバージョンごとに異なるエラーレスポンスのフィールドを受ける。
type errorBody struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	ErrorName        string `json:"error"`
	ErrorCode        string `json:"error_code"`
}

// parseError はエラーレスポンスを*Errorに変換する。
func parseError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))

	apiErr := &Error{StatusCode: resp.StatusCode}

	var body errorBody
	if err := json.Unmarshal(b, &body); err == nil {
		apiErr.ErrorCode = body.ErrorCode
		apiErr.Message = firstNonEmpty(body.Msg, body.Message, body.ErrorDescription, body.ErrorName)
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(b))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
