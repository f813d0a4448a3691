// Package dto defines data transfer objects for the KIS Open API.
package dto

import "encoding/json"

// Envelope is the common part of every KIS quotation response.
type Envelope struct {
	RtCd   string          `json:"rt_cd"`  // "0" on success
	MsgCd  string          `json:"msg_cd"` // provider message code (e.g. "MCA00000")
	Msg1   string          `json:"msg1"`
	Output json.RawMessage `json:"output"`
}

// OK reports whether the provider marked the call as successful.
func (e Envelope) OK() bool {
	return e.RtCd == "0"
}

// TokenRequest is the body of POST /oauth2/tokenP.
type TokenRequest struct {
	GrantType string `json:"grant_type"`
	AppKey    string `json:"appkey"`
	AppSecret string `json:"appsecret"`
}

// TokenResponse is the answer of POST /oauth2/tokenP.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
	ErrorCode   string `json:"error_code,omitempty"`
	ErrorDesc   string `json:"error_description,omitempty"`
}
