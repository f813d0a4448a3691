package usecase

import (
	"context"

	"go.uber.org/zap"

	"stock_pipeline/internal/feature/currentprice/domain/entity"
)

// Message はイベントストリームから受け取った1件のメッセージです。
type Message struct {
	Body        []byte
	Sequence    int64 // オフセット（シーケンス番号）
	HasSequence bool
}

// SnapshotWriter は現在価格スナップショットの保存先を抽象化します。
type SnapshotWriter interface {
	// Save は records で保存先を丸ごと置き換えます。
	Save(ctx context.Context, records []entity.QuoteRecord) error
}

// QuoteRepository は銘柄ごとの最新の現在価格を保持するストアを抽象化します。
type QuoteRepository interface {
	UpsertBatch(ctx context.Context, records []entity.QuoteRecord) error
	Find(ctx context.Context, code string) (entity.QuoteRecord, error)
}

// Enricher は銘柄コードの一覧から現在価格を取得します。
type Enricher interface {
	Enrich(ctx context.Context, codes []string) entity.EnrichResult
}

// ConsumeOutcome は1メッセージの処理結果です。
type ConsumeOutcome struct {
	Sequence    int64
	HasSequence bool
	Codes       []string
	Records     []entity.QuoteRecord
	Failures    []entity.EnrichFailure
	PersistErr  error
	Skipped     bool // 銘柄コードが1件も取れなかった
}

// ConsumeUsecase はメッセージごとに 抽出 → 現在価格取得 → スナップショット保存 を行います。
type ConsumeUsecase struct {
	enricher   Enricher
	snapshot   SnapshotWriter
	quotes     QuoteRepository // nil の場合は保存しない
	batchLimit int
	logger     *zap.Logger
}

// NewConsumeUsecase は新しい ConsumeUsecase を作成します。quotes は nil でも構いません。
func NewConsumeUsecase(enricher Enricher, snapshot SnapshotWriter, quotes QuoteRepository, batchLimit int, logger *zap.Logger) *ConsumeUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchLimit <= 0 {
		batchLimit = DefaultBatchLimit
	}
	return &ConsumeUsecase{
		enricher:   enricher,
		snapshot:   snapshot,
		quotes:     quotes,
		batchLimit: batchLimit,
		logger:     logger,
	}
}

// Handle は届いた順に1件ずつメッセージを処理します。
// エラーは返さず、各メッセージの結果を ConsumeOutcome として返します。
func (cu *ConsumeUsecase) Handle(ctx context.Context, msgs ...Message) []ConsumeOutcome {
	outcomes := make([]ConsumeOutcome, 0, len(msgs))
	for _, m := range msgs {
		outcomes = append(outcomes, cu.handleOne(ctx, m))
	}
	return outcomes
}

func (cu *ConsumeUsecase) handleOne(ctx context.Context, m Message) ConsumeOutcome {
	outcome := ConsumeOutcome{Sequence: m.Sequence, HasSequence: m.HasSequence}
	log := cu.logger
	if m.HasSequence {
		log = log.With(zap.Int64("sequence", m.Sequence))
	}

	codes := ExtractStockCodes(log, m.Body, cu.batchLimit)
	outcome.Codes = codes
	if len(codes) == 0 {
		log.Info("no stock codes found in message", zap.ByteString("payload", m.Body))
		outcome.Skipped = true
		return outcome
	}

	result := cu.enricher.Enrich(ctx, codes)
	outcome.Records = result.Records
	outcome.Failures = result.Failures

	// 停止中は途中までの結果で既存のスナップショットを壊さない。
	// オフセットはコミットされないので、メッセージは再配信される。
	if err := ctx.Err(); err != nil {
		outcome.PersistErr = err
		log.Warn("enrichment interrupted, snapshot left unchanged",
			zap.Int("rows", len(result.Records)),
			zap.Int("failed", len(result.Failures)),
			zap.Error(err),
		)
		return outcome
	}

	// 成功が0件でもスナップショットは書き換える
	if err := cu.snapshot.Save(ctx, result.Records); err != nil {
		outcome.PersistErr = err
		log.Error("snapshot was not persisted", zap.Error(err))
	}

	if cu.quotes != nil && len(result.Records) > 0 {
		if err := cu.quotes.UpsertBatch(ctx, result.Records); err != nil {
			log.Error("failed to store latest quotes", zap.Error(err))
		}
	}

	log.Info("fetched current price rows",
		zap.Int("rows", len(result.Records)),
		zap.Int("failed", len(result.Failures)),
	)

	return outcome
}
