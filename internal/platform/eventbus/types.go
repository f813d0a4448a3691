// Package eventbus はKafkaをイベントストリームとして使うための発行・購読の実装を提供します。
package eventbus

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaWriter は出力ストリームを抽象化します。*kafka.Writer が実装します。
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaReader は入力ストリームを抽象化します。*kafka.Reader が実装します。
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaDialer はブローカーへの接続を抽象化します。
type KafkaDialer interface {
	DialContext(ctx context.Context, network, address string) (KafkaConn, error)
}

// KafkaConn はトピック管理に使う接続を抽象化します。
type KafkaConn interface {
	Controller() (kafka.Broker, error)
	Close() error
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
}

// Sleeper は待機をテストから差し替えるためのものです。
type Sleeper func(ctx context.Context, d time.Duration) error

// sleepContext は d だけ待つか、ctx が終わるまで待ちます。
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RealKafkaConn は *kafka.Conn を KafkaConn に適合させます。
type RealKafkaConn struct{ *kafka.Conn }

func (c *RealKafkaConn) Controller() (kafka.Broker, error) { return c.Conn.Controller() }
func (c *RealKafkaConn) Close() error                      { return c.Conn.Close() }
func (c *RealKafkaConn) CreateTopics(topics ...kafka.TopicConfig) error {
	return c.Conn.CreateTopics(topics...)
}
func (c *RealKafkaConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	return c.Conn.ReadPartitions(topics...)
}

// RealKafkaDialer は *kafka.Dialer を KafkaDialer に適合させます。
type RealKafkaDialer struct{ *kafka.Dialer }

func (d *RealKafkaDialer) DialContext(ctx context.Context, network, address string) (KafkaConn, error) {
	conn, err := d.Dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	return &RealKafkaConn{Conn: conn}, nil
}

// NewKafkaWriter は topic に同期的に書き込む *kafka.Writer を生成します。
// 同じキーのメッセージは同じパーティションに入ります。
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaReader はコンシューマーグループ groupID で topic を読む *kafka.Reader を生成します。
// groupID が空なら "default" を使います。
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	if groupID == "" {
		groupID = DefaultConsumerGroup
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
}

// DefaultConsumerGroup はコンシューマーグループのデフォルト名です。
const DefaultConsumerGroup = "default"
