package kis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	currentprice "stock_pipeline/internal/feature/currentprice/usecase"
	rankentity "stock_pipeline/internal/feature/volumerank/domain/entity"
	volumerank "stock_pipeline/internal/feature/volumerank/usecase"
	"stock_pipeline/internal/platform/externalapi/kis/dto"
	"stock_pipeline/internal/shared/ratelimiter"
)

const (
	volumeRankPath   = "/uapi/domestic-stock/v1/quotations/volume-rank"
	inquirePricePath = "/uapi/domestic-stock/v1/quotations/inquire-price"
	tokenPath        = "/oauth2/tokenP"

	trVolumeRank   = "FHPST01710000"
	trInquirePrice = "FHKST01010100"

	// 国内株式（KRX）の市場区分コード
	marketDivStock = "J"

	// 期限切れ直前のトークンは使わない
	tokenExpiryMargin = time.Minute
)

// ErrProvider はKIS APIが失敗を返した場合のエラーです。errors.Is で判定できます。
var ErrProvider = errors.New("kis provider error")

// APIError はKIS APIのHTTPエラーまたは業務エラーを表します。
type APIError struct {
	Status  int    // HTTPステータス（業務エラーの場合は0）
	MsgCd   string // rt_cd != "0" の場合の msg_cd
	Message string // rt_cd != "0" の場合の msg1
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("kis http %d", e.Status)
	}
	return fmt.Sprintf("kis: %s %s", e.MsgCd, e.Message)
}

// Is は ErrProvider との比較を可能にします。
func (e *APIError) Is(target error) bool {
	return target == ErrProvider
}

// Client はKIS Open APIから出来高ランキングと現在価格を取得します。
// 1プロセスで1つを共有し、呼び出し間隔の制御はクライアント内部で行います。
type Client struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
	logger  *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	now         func() time.Time
}

// Client が両フィーチャーの MarketRepository を実装していることをコンパイル時に検証します。
var (
	_ volumerank.MarketRepository   = (*Client)(nil)
	_ currentprice.MarketRepository = (*Client)(nil)
)

// NewClient は指定された設定とHTTPクライアントで Client を生成します。
func NewClient(cfg Config, client *http.Client, logger *zap.Logger) *Client {
	cfg = cfg.withDefaults()
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		client:  client,
		limiter: ratelimiter.NewInterval(cfg.RequestInterval),
		logger:  logger,
		token:   cfg.AccessToken,
		now:     time.Now,
	}
}

// FetchVolumeRank は出来高ランキングを取得し、レスポンス全体をそのまま返します。
func (c *Client) FetchVolumeRank(ctx context.Context) (rankentity.RankResult, error) {
	q := url.Values{}
	q.Set("FID_COND_MRKT_DIV_CODE", marketDivStock)
	q.Set("FID_COND_SCR_DIV_CODE", "20171")
	q.Set("FID_INPUT_ISCD", "0000")
	q.Set("FID_DIV_CLS_CODE", "0")
	q.Set("FID_BLNG_CLS_CODE", "0")
	q.Set("FID_TRGT_CLS_CODE", "111111111")
	q.Set("FID_TRGT_EXLS_CLS_CODE", "0000000000")
	q.Set("FID_INPUT_PRICE_1", "")
	q.Set("FID_INPUT_PRICE_2", "")
	q.Set("FID_VOL_CNT", "")
	q.Set("FID_INPUT_DATE_1", "")

	body, _, err := c.get(ctx, volumeRankPath, trVolumeRank, q)
	if err != nil {
		return nil, err
	}
	return rankentity.RankResult(body), nil
}

// FetchCurrentPrice は銘柄コードの現在価格を取得し、output オブジェクトを返します。
func (c *Client) FetchCurrentPrice(ctx context.Context, code string) (map[string]any, error) {
	q := url.Values{}
	q.Set("FID_COND_MRKT_DIV_CODE", marketDivStock)
	q.Set("FID_INPUT_ISCD", code)

	_, env, err := c.get(ctx, inquirePricePath, trInquirePrice, q)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := decodeJSON(env.Output, &out); err != nil {
		return nil, fmt.Errorf("decode inquire-price output for %s: %w", code, err)
	}
	if out == nil {
		return nil, &APIError{MsgCd: env.MsgCd, Message: "empty output"}
	}
	return out, nil
}

// get はレートリミットを待ってからGETを実行し、レスポンス全体とエンベロープを返します。
func (c *Client) get(ctx context.Context, path, trID string, q url.Values) (map[string]any, dto.Envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, dto.Envelope{}, err
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, dto.Envelope{}, err
	}

	u := fmt.Sprintf("%s%s?%s", c.cfg.BaseURL, path, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, dto.Envelope{}, err
	}
	req.Header.Set("content-type", "application/json; charset=utf-8")
	req.Header.Set("authorization", "Bearer "+token)
	req.Header.Set("appkey", c.cfg.AppKey)
	req.Header.Set("appsecret", c.cfg.AppSecret)
	req.Header.Set("tr_id", trID)
	req.Header.Set("custtype", c.cfg.CustType)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, dto.Envelope{}, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if res.StatusCode >= 400 {
		return nil, dto.Envelope{}, &APIError{Status: res.StatusCode}
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(res.Body); err != nil {
		return nil, dto.Envelope{}, err
	}

	var env dto.Envelope
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		return nil, dto.Envelope{}, fmt.Errorf("decode %s response: %w", trID, err)
	}
	if !env.OK() {
		return nil, env, &APIError{MsgCd: env.MsgCd, Message: env.Msg1}
	}

	var body map[string]any
	if err := decodeJSON(buf.Bytes(), &body); err != nil {
		return nil, env, fmt.Errorf("decode %s response: %w", trID, err)
	}
	return body, env, nil
}

// accessToken は有効なアクセストークンを返します。期限切れなら発行し直します。
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.AccessToken != "" {
		return c.cfg.AccessToken, nil
	}
	if c.token != "" && c.now().Before(c.tokenExpiry.Add(-tokenExpiryMargin)) {
		return c.token, nil
	}

	b, err := json.Marshal(dto.TokenRequest{
		GrantType: "client_credentials",
		AppKey:    c.cfg.AppKey,
		AppSecret: c.cfg.AppSecret,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+tokenPath, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("content-type", "application/json; charset=utf-8")

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if res.StatusCode >= 400 {
		return "", fmt.Errorf("issue access token: %w", &APIError{Status: res.StatusCode})
	}

	var tr dto.TokenResponse
	if err := json.NewDecoder(res.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode access token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("issue access token: %w", &APIError{MsgCd: tr.ErrorCode, Message: tr.ErrorDesc})
	}

	c.token = tr.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	c.logger.Info("issued kis access token", zap.Time("expires_at", c.tokenExpiry))
	return c.token, nil
}

// decodeJSON は数値を json.Number のまま保持してデコードします。
func decodeJSON(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(v)
}
