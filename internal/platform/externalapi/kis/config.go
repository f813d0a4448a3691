// Package kis は韓国投資証券（KIS）Open APIのクライアントを提供します。
package kis

import "time"

const (
	// DefaultBaseURL は実運用環境のベースURLです。
	DefaultBaseURL = "https://openapi.koreainvestment.com:9443"
	// DefaultRequestInterval は連続する呼び出しの最小間隔です。
	DefaultRequestInterval = 500 * time.Millisecond
	// DefaultTimeout はHTTPリクエスト全体のタイムアウトです。
	DefaultTimeout = 10 * time.Second
)

// Config はKIS APIクライアントの設定を保持します。
type Config struct {
	AppKey          string        // アプリキー
	AppSecret       string        // アプリシークレット
	AccessToken     string        // 事前に発行済みのトークン（空なら /oauth2/tokenP で発行）
	BaseURL         string        // APIのベースURL
	CustType        string        // 顧客区分（個人は "P"）
	Timeout         time.Duration // HTTPリクエストタイムアウト
	RequestInterval time.Duration // 呼び出し間の最小間隔
}

// withDefaults は未設定の項目にデフォルト値を入れた Config を返します。
func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.CustType == "" {
		c.CustType = "P"
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RequestInterval < 0 {
		c.RequestInterval = 0
	}
	return c
}
