// Package handler はcurrentpriceフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stock_pipeline/internal/feature/currentprice/domain"
	"stock_pipeline/internal/feature/currentprice/domain/entity"
	"stock_pipeline/internal/feature/currentprice/transport/http/dto"
)

// QuoteUsecase は保存済み現在価格の参照ユースケースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type QuoteUsecase interface {
	GetSnapshot(ctx context.Context) ([]entity.QuoteRecord, error)
	GetQuote(ctx context.Context, code string) (entity.QuoteRecord, error)
}

// QuoteHandler は現在価格のHTTPリクエストを処理します。
type QuoteHandler struct {
	uc QuoteUsecase
}

// NewQuoteHandler は QuoteHandler の新しいインスタンスを生成します。
func NewQuoteHandler(uc QuoteUsecase) *QuoteHandler {
	return &QuoteHandler{uc: uc}
}

// GetSnapshotHandler は最新のスナップショットを返します。
//
// エンドポイント例:
// GET /snapshot
func (h *QuoteHandler) GetSnapshotHandler(c *gin.Context) {
	records, err := h.uc.GetSnapshot(c.Request.Context())
	if err != nil {
		c.JSON(statusOf(err), dto.ErrorResponse{Error: err.Error()})
		return
	}

	out := dto.SnapshotResponse{Count: len(records), Quotes: make([]dto.QuoteResponse, 0, len(records))}
	for _, r := range records {
		out.Quotes = append(out.Quotes, dto.FromRecord(r))
	}
	c.JSON(http.StatusOK, out)
}

// GetQuoteHandler は銘柄コードの最新の現在価格を返します。
//
// エンドポイント例:
// GET /quotes/005930
func (h *QuoteHandler) GetQuoteHandler(c *gin.Context) {
	record, err := h.uc.GetQuote(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.JSON(statusOf(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.FromRecord(record))
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuoteNotFound), errors.Is(err, domain.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrQuoteStoreDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
