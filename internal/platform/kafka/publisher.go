package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"solcred/internal/platform/config"
)

// Publisher wraps a franz-go client for publishing audit events. The audit
// outbox worker is its only producer; consumers live outside this service.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// NewPublisher connects to the configured brokers and ensures the audit topic
// exists. Returns nil if no brokers are configured (Kafka optional in dev).
func NewPublisher(ctx context.Context, cfg config.KafkaConfig) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, cfg.AuditTopic); err != nil {
		client.Close()
		return nil, err
	}

	return &Publisher{client: client, topic: cfg.AuditTopic}, nil
}

// Publish produces a single record synchronously. Key controls partition
// affinity so events for one credential stay ordered.
func (p *Publisher) Publish(ctx context.Context, key string, value []byte) error {
	record := &kgo.Record{Topic: p.topic, Key: []byte(key), Value: value}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit record: %w", err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (p *Publisher) Close() {
	p.client.Close()
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	topics, err := adm.ListTopics(ctx)
	if err != nil {
		return fmt.Errorf("list kafka topics: %w", err)
	}
	if topics.Has(topic) {
		return nil
	}
	if _, err := adm.CreateTopic(ctx, 1, 1, nil, topic); err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	return nil
}
