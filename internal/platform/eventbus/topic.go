package eventbus

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ErrTopicNotReady はトピックのパーティションが確認できなかった場合のエラーです。
var ErrTopicNotReady = errors.New("topic not ready")

// TopicCreator は起動時にトピックを作成し、利用可能になるまで待ちます。
type TopicCreator struct {
	logger *zap.Logger
	dialer KafkaDialer
	sleep  Sleeper

	Partitions int
	Retries    int
	RetryDelay time.Duration
}

// NewTopicCreator は TopicCreator を生成します。
func NewTopicCreator(logger *zap.Logger, dialer KafkaDialer) *TopicCreator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopicCreator{
		logger:     logger,
		dialer:     dialer,
		sleep:      sleepContext,
		Partitions: 1,
		Retries:    5,
		RetryDelay: 200 * time.Millisecond,
	}
}

// Ensure は topic を作成し（既にあれば何もしない）、パーティションが見えるまで待ちます。
func (tc *TopicCreator) Ensure(ctx context.Context, brokers []string, topic string) error {
	var conn KafkaConn
	err := errors.New("no brokers configured")
	for _, addr := range brokers {
		conn, err = tc.dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			break
		}
	}
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}

	controllerAddr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	controllerConn, err := tc.dialer.DialContext(ctx, "tcp", controllerAddr)
	if err != nil {
		return err
	}
	defer func() { _ = controllerConn.Close() }()

	if err := controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     tc.Partitions,
		ReplicationFactor: 1,
	}); err != nil {
		tc.logger.Info("topic creation finished (might already exist)", zap.String("topic", topic), zap.Error(err))
	} else {
		tc.logger.Info("topic creation request sent", zap.String("topic", topic))
	}

	return tc.waitForTopic(ctx, conn, topic)
}

func (tc *TopicCreator) waitForTopic(ctx context.Context, conn KafkaConn, topic string) error {
	for i := 0; i < tc.Retries; i++ {
		partitions, err := conn.ReadPartitions(topic)
		if err == nil && len(partitions) > 0 {
			tc.logger.Info("topic is ready", zap.String("topic", topic), zap.Int("partitions", len(partitions)))
			return nil
		}
		if err := tc.sleep(ctx, tc.RetryDelay); err != nil {
			return err
		}
	}
	return ErrTopicNotReady
}
