package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stock_pipeline/internal/feature/currentprice/domain/entity"
)

// MarketRepository は銘柄ごとの現在価格を取得する外部APIを抽象化します。
// 呼び出し間隔の制御（レートリミット）は実装側の責務です。
type MarketRepository interface {
	FetchCurrentPrice(ctx context.Context, code string) (map[string]any, error)
}

// EnrichUsecase は銘柄コードごとに現在価格を順番に取得します。
type EnrichUsecase struct {
	market MarketRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewEnrichUsecase は新しい EnrichUsecase を作成します。
func NewEnrichUsecase(market MarketRepository, logger *zap.Logger) *EnrichUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrichUsecase{market: market, logger: logger, now: time.Now}
}

// Enrich は codes を入力順に1件ずつ問い合わせます。
// クライアントのレートリミットを守るため並列化はしません。
// 1銘柄の失敗はログに出して Failures に記録し、残りの銘柄の処理を続けます。
func (eu *EnrichUsecase) Enrich(ctx context.Context, codes []string) entity.EnrichResult {
	result := entity.EnrichResult{
		Records: make([]entity.QuoteRecord, 0, len(codes)),
	}

	for i, code := range codes {
		if err := ctx.Err(); err != nil {
			// 残りはすべて失敗扱い
			for _, rest := range codes[i:] {
				result.Failures = append(result.Failures, entity.EnrichFailure{Code: rest, Err: err})
			}
			eu.logger.Warn("enrichment cancelled",
				zap.Int("remaining", len(codes)-i),
				zap.Error(err),
			)
			break
		}

		quote, err := eu.market.FetchCurrentPrice(ctx, code)
		if err != nil {
			eu.logger.Error("failed to fetch current price",
				zap.String("code", code),
				zap.Error(err),
			)
			result.Failures = append(result.Failures, entity.EnrichFailure{Code: code, Err: err})
			continue
		}

		result.Records = append(result.Records, entity.QuoteRecord{
			Code:      code,
			FetchedAt: eu.now(),
			Quote:     quote,
		})
	}

	return result
}
