package kis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	return Config{
		AppKey:      "app-key",
		AppSecret:   "app-secret",
		AccessToken: "token-123",
		BaseURL:     baseURL,
	}
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{AppKey: "k"}, nil, nil)

	assert.Equal(t, DefaultBaseURL, c.cfg.BaseURL)
	assert.Equal(t, "P", c.cfg.CustType)
	assert.Equal(t, DefaultTimeout, c.cfg.Timeout)
	assert.NotNil(t, c.client)
}

func TestClient_FetchVolumeRank_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, volumeRankPath, r.URL.Path)
		assert.Equal(t, "J", r.URL.Query().Get("FID_COND_MRKT_DIV_CODE"))
		assert.Equal(t, "20171", r.URL.Query().Get("FID_COND_SCR_DIV_CODE"))
		assert.Equal(t, trVolumeRank, r.Header.Get("tr_id"))
		assert.Equal(t, "Bearer token-123", r.Header.Get("authorization"))
		assert.Equal(t, "app-key", r.Header.Get("appkey"))
		assert.Equal(t, "app-secret", r.Header.Get("appsecret"))
		assert.Equal(t, "P", r.Header.Get("custtype"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"rt_cd": "0",
			"msg_cd": "MCA00000",
			"msg1": "정상처리 되었습니다.",
			"output": [
				{"mksc_shrn_iscd": "005930", "hts_kor_isnm": "삼성전자", "acml_vol": 12345678},
				{"mksc_shrn_iscd": "000660", "hts_kor_isnm": "SK하이닉스", "acml_vol": 2345678}
			]
		}`))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), server.Client(), nil)
	rank, err := c.FetchVolumeRank(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "0", rank["rt_cd"])
	output, ok := rank["output"].([]any)
	require.True(t, ok)
	require.Len(t, output, 2)

	// numbers survive untouched when republished
	b, err := json.Marshal(rank)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"acml_vol":12345678`)
}

func TestClient_FetchCurrentPrice_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, inquirePricePath, r.URL.Path)
		assert.Equal(t, "J", r.URL.Query().Get("FID_COND_MRKT_DIV_CODE"))
		assert.Equal(t, "005930", r.URL.Query().Get("FID_INPUT_ISCD"))
		assert.Equal(t, trInquirePrice, r.Header.Get("tr_id"))

		_, _ = w.Write([]byte(`{"rt_cd":"0","msg_cd":"MCA00000","msg1":"ok","output":{"stck_prpr":"71000","prdy_vrss":"500"}}`))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), server.Client(), nil)
	quote, err := c.FetchCurrentPrice(context.Background(), "005930")
	require.NoError(t, err)
	assert.Equal(t, "71000", quote["stck_prpr"])
	assert.Equal(t, "500", quote["prdy_vrss"])
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		status      int
		body        string
		expectedMsg string
	}{
		{name: "http error", status: http.StatusInternalServerError, body: `{}`, expectedMsg: "kis http 500"},
		{name: "business error", status: http.StatusOK, body: `{"rt_cd":"1","msg_cd":"EGW00201","msg1":"초당 거래건수를 초과하였습니다."}`, expectedMsg: "kis: EGW00201 초당 거래건수를 초과하였습니다."},
		{name: "null output", status: http.StatusOK, body: `{"rt_cd":"0","msg_cd":"MCA00000","output":null}`, expectedMsg: "kis: MCA00000 empty output"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			c := NewClient(testConfig(server.URL), server.Client(), nil)
			_, err := c.FetchCurrentPrice(context.Background(), "005930")

			require.Error(t, err)
			assert.EqualError(t, err, tc.expectedMsg)
			assert.True(t, errors.Is(err, ErrProvider))
		})
	}
}

func TestClient_FetchVolumeRank_InvalidJSON(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), server.Client(), nil)
	_, err := c.FetchVolumeRank(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrProvider))
}

func TestClient_RequestInterval(t *testing.T) {
	t.Parallel()

	const gap = 40 * time.Millisecond

	var mu sync.Mutex
	var stamps []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		_, _ = w.Write([]byte(`{"rt_cd":"0","output":{"stck_prpr":"1"}}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.RequestInterval = gap
	c := NewClient(cfg, server.Client(), nil)

	for _, code := range []string{"1", "2", "3"} {
		_, err := c.FetchCurrentPrice(context.Background(), code)
		require.NoError(t, err)
	}

	require.Len(t, stamps, 3)
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), gap-5*time.Millisecond)
	}
}

func TestClient_AccessTokenIssuedAndCached(t *testing.T) {
	t.Parallel()

	var issued atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == tokenPath {
			issued.Add(1)
			assert.Equal(t, http.MethodPost, r.Method)
			var req map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "client_credentials", req["grant_type"])
			assert.Equal(t, "app-key", req["appkey"])
			_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":86400}`))
			return
		}
		assert.Equal(t, "Bearer fresh", r.Header.Get("authorization"))
		_, _ = w.Write([]byte(`{"rt_cd":"0","output":{"stck_prpr":"1"}}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.AccessToken = ""
	c := NewClient(cfg, server.Client(), nil)

	for i := 0; i < 3; i++ {
		_, err := c.FetchCurrentPrice(context.Background(), "005930")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), issued.Load())
}

func TestClient_AccessTokenRefreshedAfterExpiry(t *testing.T) {
	t.Parallel()

	var issued atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == tokenPath {
			issued.Add(1)
			_, _ = w.Write([]byte(`{"access_token":"fresh","expires_in":3600}`))
			return
		}
		_, _ = w.Write([]byte(`{"rt_cd":"0","output":{"stck_prpr":"1"}}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.AccessToken = ""
	c := NewClient(cfg, server.Client(), nil)

	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.FetchCurrentPrice(context.Background(), "005930")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = c.FetchCurrentPrice(context.Background(), "005930")
	require.NoError(t, err)

	assert.Equal(t, int32(2), issued.Load())
}

func TestClient_AccessTokenFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.AccessToken = ""
	c := NewClient(cfg, server.Client(), nil)

	_, err := c.FetchVolumeRank(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvider)
	assert.Contains(t, err.Error(), "kis http 403")
}
