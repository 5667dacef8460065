//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"solcred/internal/platform/config"
	"solcred/internal/platform/kafka"
	"solcred/pkg/testutil/containers"
)

type PublisherSuite struct {
	suite.Suite
	broker    string
	publisher *kafka.Publisher
}

func TestPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupSuite() {
	s.broker = containers.GetManager().GetRedpanda(s.T()).Broker

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pub, err := kafka.NewPublisher(ctx, config.KafkaConfig{
		Brokers:    []string{s.broker},
		AuditTopic: "solcred.audit",
	})
	s.Require().NoError(err)
	s.Require().NotNil(pub)
	s.publisher = pub
}

func (s *PublisherSuite) TearDownSuite() {
	if s.publisher != nil {
		s.publisher.Close()
	}
}

func (s *PublisherSuite) TestNilWhenUnconfigured() {
	pub, err := kafka.NewPublisher(context.Background(), config.KafkaConfig{})
	s.Require().NoError(err)
	s.Nil(pub)
}

func (s *PublisherSuite) TestPublishRoundTrip() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	key := "credential-abc"
	value := []byte(`{"action":"credential_revoked"}`)
	s.Require().NoError(s.publisher.Publish(ctx, key, value))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker),
		kgo.ConsumeTopics("solcred.audit"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().NoError(fetches.Err())

	records := fetches.Records()
	s.Require().NotEmpty(records)
	last := records[len(records)-1]
	s.Equal(key, string(last.Key))
	s.Equal(value, last.Value)
}

// TestKeyOrdering publishes several events for one subject and checks they
// land on a single partition in publish order.
func (s *PublisherSuite) TestKeyOrdering() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	values := [][]byte{[]byte(`{"seq":1}`), []byte(`{"seq":2}`), []byte(`{"seq":3}`)}
	for _, v := range values {
		s.Require().NoError(s.publisher.Publish(ctx, "ordered-subject", v))
	}

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker),
		kgo.ConsumeTopics("solcred.audit"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	var got [][]byte
	for len(got) < len(values) {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(fetches.Err())
		for _, rec := range fetches.Records() {
			if string(rec.Key) == "ordered-subject" {
				got = append(got, rec.Value)
			}
		}
	}
	s.Equal(values, got)
}
