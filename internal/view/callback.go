package view

import (
	"context"

	"github.com/hitoshi/vortox/internal/model"
)

// 画面遷移先のパス。
const (
	PathHome      = "/"
	PathDashboard = "/dashboard"
	PathAuthError = "/auth/error"
)

// CallbackState はコールバック画面の状態。
type CallbackState int

const (
	CallbackPending CallbackState = iota
	CallbackRedirecting
)

// CodeExchanger は認可コードをセッションに交換する。*auth.Gateway が実装する。
type CodeExchanger interface {
	ExchangeCodeForSession(ctx context.Context, code, codeVerifier string) (*model.Session, error)
}

// CallbackPage はOAuthコールバック画面の状態機械。
// pendingで始まり、Loadで遷移先を決めてredirectingになる。redirectingは終端。
type CallbackPage struct {
	state   CallbackState
	target  string
	session *model.Session
	err     error
}

// NewCallbackPage はpending状態のCallbackPageを生成する。
func NewCallbackPage() *CallbackPage {
	return &CallbackPage{state: CallbackPending}
}

// Load はリクエストの認可コードを処理し、遷移先を返す。
// コードが無い場合は交換を行わずダッシュボードへ、交換に成功した場合もダッシュボードへ、
// 失敗した場合はエラー画面へ遷移する。2回目以降の呼び出しは最初の結果を返す。
func (p *CallbackPage) Load(ctx context.Context, exchanger CodeExchanger, code, codeVerifier string) string {
	if p.state == CallbackRedirecting {
		return p.target
	}

	p.target = PathDashboard
	if code != "" {
		session, err := exchanger.ExchangeCodeForSession(ctx, code, codeVerifier)
		if err != nil {
			p.err = err
			p.target = PathAuthError
		} else {
			p.session = session
		}
	}

	p.state = CallbackRedirecting
	return p.target
}

// State は現在の状態を返す。
func (p *CallbackPage) State() CallbackState {
	return p.state
}

// Target は遷移先を返す。pendingの間は空文字列。
func (p *CallbackPage) Target() string {
	return p.target
}

// Session は交換に成功した場合のセッションを返す。それ以外はnil。
func (p *CallbackPage) Session() *model.Session {
	return p.session
}

// Err は交換に失敗した場合のエラーを返す。
func (p *CallbackPage) Err() error {
	return p.err
}
