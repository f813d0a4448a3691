package eventbus

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

type mockKafkaWriter struct {
	mu         sync.Mutex
	messages   []kafka.Message
	shouldFail bool
	closed     bool
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return errors.New("kafka error")
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *mockKafkaWriter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// mockKafkaReader replays messages and then reports io.EOF, like a closed reader.
type mockKafkaReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	index     int
	fetchErrs []error // returned before any message, one per call
	commitErr error
	committed []kafka.Message
}

func (m *mockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.fetchErrs) > 0 {
		err := m.fetchErrs[0]
		m.fetchErrs = m.fetchErrs[1:]
		return kafka.Message{}, err
	}
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	if m.index >= len(m.messages) {
		return kafka.Message{}, io.EOF
	}
	msg := m.messages[m.index]
	m.index++
	return msg, nil
}

func (m *mockKafkaReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = append(m.committed, msgs...)
	return nil
}

func (m *mockKafkaReader) Close() error { return nil }

type mockKafkaConn struct {
	createdTopics []kafka.TopicConfig
	createErr     error
	readyAfter    int // ReadPartitions calls that return nothing before the topic appears
	reads         int
}

func (m *mockKafkaConn) Controller() (kafka.Broker, error) {
	return kafka.Broker{Host: "localhost", Port: 9092}, nil
}
func (m *mockKafkaConn) Close() error { return nil }
func (m *mockKafkaConn) CreateTopics(topics ...kafka.TopicConfig) error {
	m.createdTopics = append(m.createdTopics, topics...)
	return m.createErr
}
func (m *mockKafkaConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	m.reads++
	if m.reads <= m.readyAfter {
		return nil, nil
	}
	return []kafka.Partition{{ID: 0}}, nil
}

type mockKafkaDialer struct {
	conn    *mockKafkaConn
	failFor map[string]bool
	dialed  []string
}

func (m *mockKafkaDialer) DialContext(ctx context.Context, network, address string) (KafkaConn, error) {
	m.dialed = append(m.dialed, address)
	if m.failFor[address] {
		return nil, errors.New("connection refused")
	}
	return m.conn, nil
}

// noSleep records requested delays without waiting.
type noSleep struct{ delays []time.Duration }

func (n *noSleep) sleep(ctx context.Context, d time.Duration) error {
	n.delays = append(n.delays, d)
	return ctx.Err()
}
