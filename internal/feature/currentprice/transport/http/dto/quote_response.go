// Package dto はcurrentpriceフィーチャーのHTTPレスポンスDTOを定義します。
package dto

import (
	"time"

	"stock_pipeline/internal/feature/currentprice/domain/entity"
)

// QuoteResponse は1銘柄の現在価格のレスポンスDTOです。
type QuoteResponse struct {
	Code      string         `json:"code"`       // 銘柄コード
	Price     string         `json:"price"`      // 現在価格（stck_prpr）
	FetchedAt string         `json:"fetched_at"` // 取得時刻（RFC3339）
	Quote     map[string]any `json:"quote"`      // プロバイダーの output そのまま
}

// SnapshotResponse はスナップショット全体のレスポンスDTOです。
type SnapshotResponse struct {
	Count  int             `json:"count"`
	Quotes []QuoteResponse `json:"quotes"`
}

// ErrorResponse はエラーレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromRecord はドメインの QuoteRecord をレスポンスに変換します。
func FromRecord(r entity.QuoteRecord) QuoteResponse {
	return QuoteResponse{
		Code:      r.Code,
		Price:     r.Price(),
		FetchedAt: r.FetchedAt.UTC().Format(time.RFC3339),
		Quote:     r.Quote,
	}
}
