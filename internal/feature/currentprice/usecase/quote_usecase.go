package usecase

import (
	"context"
	"strings"

	"stock_pipeline/internal/feature/currentprice/domain"
	"stock_pipeline/internal/feature/currentprice/domain/entity"
)

// SnapshotReader は保存済みスナップショットの読み取りを抽象化します。
type SnapshotReader interface {
	Load(ctx context.Context) ([]entity.QuoteRecord, error)
}

// quoteUsecase は保存済みの現在価格を参照するユースケースです。
type quoteUsecase struct {
	snapshot SnapshotReader
	quotes   QuoteRepository
}

// NewQuoteUsecase は quoteUsecase の新しいインスタンスを生成します。quotes は nil でも構いません。
func NewQuoteUsecase(snapshot SnapshotReader, quotes QuoteRepository) *quoteUsecase {
	return &quoteUsecase{snapshot: snapshot, quotes: quotes}
}

// GetSnapshot は最新のスナップショットを返します。
func (qu *quoteUsecase) GetSnapshot(ctx context.Context) ([]entity.QuoteRecord, error) {
	return qu.snapshot.Load(ctx)
}

// GetQuote は銘柄コードの最新の現在価格を返します。
func (qu *quoteUsecase) GetQuote(ctx context.Context, code string) (entity.QuoteRecord, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return entity.QuoteRecord{}, domain.ErrQuoteNotFound
	}
	if qu.quotes == nil {
		return entity.QuoteRecord{}, domain.ErrQuoteStoreDisabled
	}
	return qu.quotes.Find(ctx, code)
}
