// Package event はイベントストリームからのメッセージをユースケースに渡すハンドラーを提供します。
package event

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"stock_pipeline/internal/feature/currentprice/usecase"
)

// Consumer はメッセージを処理するユースケースです。
type Consumer interface {
	Handle(ctx context.Context, msgs ...usecase.Message) []usecase.ConsumeOutcome
}

// KafkaHandler はKafkaメッセージを1件ずつ Consumer に渡します。
type KafkaHandler struct {
	consumer Consumer
	logger   *zap.Logger
}

// NewKafkaHandler は KafkaHandler を生成します。
func NewKafkaHandler(consumer Consumer, logger *zap.Logger) *KafkaHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaHandler{consumer: consumer, logger: logger}
}

// ToMessage はKafkaメッセージを usecase.Message に変換します。オフセットをシーケンス番号として使います。
func ToMessage(m kafka.Message) usecase.Message {
	return usecase.Message{
		Body:        m.Value,
		Sequence:    m.Offset,
		HasSequence: true,
	}
}

// Handle は eventbus.HandlerFunc として使えます。
func (h *KafkaHandler) Handle(ctx context.Context, m kafka.Message) {
	for _, out := range h.consumer.Handle(ctx, ToMessage(m)) {
		fields := []zap.Field{
			zap.Int64("sequence", out.Sequence),
			zap.Int("partition", m.Partition),
			zap.Int("codes", len(out.Codes)),
			zap.Int("rows", len(out.Records)),
			zap.Int("failed", len(out.Failures)),
		}
		if out.PersistErr != nil {
			fields = append(fields, zap.NamedError("persist_error", out.PersistErr))
		}
		h.logger.Info("processed event", fields...)
	}
}
