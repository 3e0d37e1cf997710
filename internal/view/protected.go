package view

import "github.com/hitoshi/vortox/internal/model"

// ProtectedState は保護画面の状態。
type ProtectedState int

const (
	ProtectedLoading ProtectedState = iota
	ProtectedAuthorized
	ProtectedUnauthorized
)

// String はログ出力用の名前を返す。
func (s ProtectedState) String() string {
	switch s {
	case ProtectedAuthorized:
		return "authorized"
	case ProtectedUnauthorized:
		return "unauthorized"
	default:
		return "loading"
	}
}

// ProtectedPage はセッションが必要な画面の状態機械。
// loadingで始まり、最初のResolveでauthorizedかunauthorizedに確定する。
// 確定後にloadingへ戻ることはなく、以降のResolveは無視する。
type ProtectedPage struct {
	state ProtectedState
	user  *model.User
}

// NewProtectedPage はloading状態のProtectedPageを生成する。
func NewProtectedPage() *ProtectedPage {
	return &ProtectedPage{state: ProtectedLoading}
}

// Resolve はセッション復元の結果を反映し、確定した状態を返す。
func (p *ProtectedPage) Resolve(user *model.User) ProtectedState {
	if p.state != ProtectedLoading {
		return p.state
	}
	if user == nil {
		p.state = ProtectedUnauthorized
		return p.state
	}
	p.user = user
	p.state = ProtectedAuthorized
	return p.state
}

// State は現在の状態を返す。
func (p *ProtectedPage) State() ProtectedState {
	return p.state
}

// User はauthorizedの場合のユーザーを返す。
func (p *ProtectedPage) User() *model.User {
	return p.user
}

// RedirectTo はunauthorizedの場合の遷移先を返す。それ以外は空文字列。
func (p *ProtectedPage) RedirectTo() string {
	if p.state == ProtectedUnauthorized {
		return PathHome
	}
	return ""
}
