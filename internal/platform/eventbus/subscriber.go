package eventbus

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// HandlerFunc は受信した1件のメッセージを処理します。
// 戻った時点でメッセージはコミットされます。
type HandlerFunc func(ctx context.Context, msg kafka.Message)

// Subscriber はメッセージを1件ずつ取り出して処理し、処理後にコミットします。
type Subscriber struct {
	reader  KafkaReader
	logger  *zap.Logger
	backoff time.Duration
	sleep   Sleeper
}

// NewSubscriber は reader から読む Subscriber を生成します。
func NewSubscriber(reader KafkaReader, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{
		reader:  reader,
		logger:  logger,
		backoff: time.Second,
		sleep:   sleepContext,
	}
}

// Run は ctx が終わるか reader が閉じられるまで handle を呼び続けます。
// 読み取りエラーはログに出して待機後に再試行します。
// handle の途中で ctx が終わった場合、そのメッセージはコミットしません。
func (s *Subscriber) Run(ctx context.Context, handle HandlerFunc) error {
	s.logger.Info("subscriber started")
	for {
		m, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
				s.logger.Info("subscriber stopped", zap.Error(err))
				return nil
			}
			s.logger.Error("kafka fetch error", zap.Error(err))
			if err := s.sleep(ctx, s.backoff); err != nil {
				return nil
			}
			continue
		}

		handle(ctx, m)

		// 停止中に処理したメッセージはコミットせず、再起動後に再配信させる
		if ctx.Err() != nil {
			s.logger.Info("subscriber stopped before commit",
				zap.Int64("offset", m.Offset),
				zap.Int("partition", m.Partition),
			)
			return nil
		}

		if err := s.reader.CommitMessages(ctx, m); err != nil {
			s.logger.Error("kafka commit error",
				zap.Int64("offset", m.Offset),
				zap.Int("partition", m.Partition),
				zap.Error(err),
			)
		}
	}
}

// Close は下層の reader を閉じます。
func (s *Subscriber) Close() error {
	return s.reader.Close()
}
