//go:build integration

package notify

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"flightsurety/pkg/domain"
	"flightsurety/pkg/testutil/containers"
)

type SinkSuite struct {
	suite.Suite
	redis    *containers.RedisContainer
	redpanda *containers.RedpandaContainer
	nats     *containers.NATSContainer
}

func TestSinkSuite(t *testing.T) {
	suite.Run(t, new(SinkSuite))
}

func (s *SinkSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
	s.nats = containers.GetManager().GetNATS(s.T())
}

func (s *SinkSuite) requested() Event {
	return Event{
		ID:         uuid.New(),
		Type:       EventConfirmationRequested,
		OccurredAt: time.Now().UTC().Truncate(time.Second),
		Airline:    domain.AddressFromSeed("airline"),
		Flight:     "ND1309",
		Timestamp:  1_700_000_000,
		Index:      7,
	}
}

// =============================================================================
// Redis pub/sub
// =============================================================================

func (s *SinkSuite) TestRedisSinkPublishesOnTypeChannel() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sub := s.redis.Client.Subscribe(ctx, Channel("it:", EventConfirmationRequested))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	s.Require().NoError(err)

	sent := s.requested()
	s.Require().NoError(NewRedisSink(s.redis.Client, "it:").Deliver(ctx, sent))

	msg, err := sub.ReceiveMessage(ctx)
	s.Require().NoError(err)
	got, err := Decode([]byte(msg.Payload))
	s.Require().NoError(err)
	s.Equal(sent.ID, got.ID)
	s.Equal(sent.Index, got.Index)
	s.Equal(sent.FlightRef(), got.FlightRef())
}

// =============================================================================
// Kafka topic
// =============================================================================

func (s *SinkSuite) TestKafkaSinkAppendsKeyedRecord() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	topic := "ledger-events-" + uuid.NewString()[:8]

	producer, err := kgo.NewClient(kgo.SeedBrokers(s.redpanda.Brokers...))
	s.Require().NoError(err)
	defer producer.Close()
	s.Require().NoError(EnsureTopic(ctx, producer, topic, 1))
	s.Require().NoError(EnsureTopic(ctx, producer, topic, 1), "second create is a no-op")

	sent := s.requested()
	s.Require().NoError(NewKafkaSink(producer, topic).Deliver(ctx, sent))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().Len(records, 1)
	s.Equal(sent.ID.String(), string(records[0].Key))
	s.Equal(string(EventConfirmationRequested), string(records[0].Headers[0].Value))

	got, err := Decode(records[0].Value)
	s.Require().NoError(err)
	s.Equal(sent.ID, got.ID)
}

// =============================================================================
// NATS subjects
// =============================================================================

func (s *SinkSuite) TestNATSSinkPublishesOnTypeSubject() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sub, err := s.nats.Conn.SubscribeSync("it." + string(EventConfirmationRequested))
	s.Require().NoError(err)
	defer func() { _ = sub.Unsubscribe() }()
	s.Require().NoError(s.nats.Conn.Flush())

	sent := s.requested()
	s.Require().NoError(NewNATSSink(s.nats.Conn, "it.").Deliver(ctx, sent))

	msg, err := sub.NextMsgWithContext(ctx)
	s.Require().NoError(err)
	s.Equal(sent.ID.String(), msg.Header.Get(nats.MsgIdHdr))
	s.Equal(string(EventConfirmationRequested), msg.Header.Get("Event-Type"))

	got, err := Decode(msg.Data)
	s.Require().NoError(err)
	s.Equal(sent.ID, got.ID)
	s.Equal(sent.Index, got.Index)
}

func (s *SinkSuite) TestNATSSinkFailsOnClosedConnection() {
	conn, err := nats.Connect(s.nats.URL)
	s.Require().NoError(err)
	conn.Close()

	err = NewNATSSink(conn, "it.").Deliver(context.Background(), s.requested())
	s.Require().Error(err)
}
