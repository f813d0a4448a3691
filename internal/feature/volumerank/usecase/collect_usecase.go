// Package usecase は出来高ランキングの収集ユースケースを実装します。
package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"stock_pipeline/internal/feature/volumerank/domain"
	"stock_pipeline/internal/feature/volumerank/domain/entity"
	"stock_pipeline/internal/platform/scheduler"
)

// MessageKey はイベントストリームに発行するメッセージのキーです。
const MessageKey = "volume-rank"

// MarketRepository は出来高ランキングを取得する外部APIを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type MarketRepository interface {
	FetchVolumeRank(ctx context.Context) (entity.RankResult, error)
}

// EventPublisher はイベントストリームへの発行を抽象化します。
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// CollectUsecase はスケジュール実行ごとにランキングを1回取得し、そのままイベントストリームへ再発行します。
type CollectUsecase struct {
	market    MarketRepository
	publisher EventPublisher
	logger    *zap.Logger
}

// NewCollectUsecase は新しい CollectUsecase を作成します。
func NewCollectUsecase(market MarketRepository, publisher EventPublisher, logger *zap.Logger) *CollectUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CollectUsecase{market: market, publisher: publisher, logger: logger}
}

// Collect はスケジューラから呼び出されます。
// 取得失敗はリトライせずにそのまま返し、スケジューラ側のエラー処理に任せます。
func (cu *CollectUsecase) Collect(ctx context.Context, tick scheduler.Tick) error {
	if tick.PastDue {
		cu.logger.Info("the timer is past due",
			zap.Time("scheduled", tick.Scheduled),
			zap.Time("fired", tick.Fired),
		)
	}

	rank, err := cu.market.FetchVolumeRank(ctx)
	if err != nil {
		return fmt.Errorf("fetch volume rank: %w", err)
	}
	if rank == nil {
		return domain.ErrEmptyRanking
	}

	payload, err := json.Marshal(coerce(map[string]any(rank)))
	if err != nil {
		return fmt.Errorf("encode volume rank: %w", err)
	}

	if err := cu.publisher.Publish(ctx, MessageKey, payload); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPublish, err)
	}

	cu.logger.Info("volume rank collected",
		zap.Int("bytes", len(payload)),
		zap.Bool("past_due", tick.PastDue),
	)
	return nil
}

// coerce はJSONにできない値（complex、chan、funcなど）を文字列表現に置き換えます。
// time.Time などMarshalerを実装する値はそのまま残します。
func coerce(v any) any {
	switch x := v.(type) {
	case nil, string, bool, json.Number, json.RawMessage,
		float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return x
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = coerce(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = coerce(val)
		}
		return out
	case json.Marshaler:
		return x
	case fmt.Stringer:
		return x.String()
	}
	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprint(v)
	}
	return v
}
