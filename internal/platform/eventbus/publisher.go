package eventbus

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher はキー付きのメッセージを1件ずつトピックに発行します。
type Publisher struct {
	writer KafkaWriter
	logger *zap.Logger
}

// NewPublisher は writer に書き込む Publisher を生成します。
func NewPublisher(writer KafkaWriter, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{writer: writer, logger: logger}
}

// Publish は payload を key 付きで発行します。書き込みが確認されるまで戻りません。
func (p *Publisher) Publish(ctx context.Context, key string, payload []byte) error {
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	p.logger.Debug("message published", zap.String("key", key), zap.Int("bytes", len(payload)))
	return nil
}

// Close は下層の writer を閉じます。
func (p *Publisher) Close() error {
	return p.writer.Close()
}
