//go:build unit

package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"inventory-engine/internal/domain/event"
	"inventory-engine/internal/infra/db"
	"inventory-engine/internal/pkg/clock"
	"inventory-engine/internal/pkg/config"
	"inventory-engine/internal/pkg/metrics"
	"inventory-engine/internal/usecase/shared"
	"inventory-engine/internal/worker"
	"inventory-engine/tests/common/builder"
	sharedmock "inventory-engine/tests/mock/shared"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeSink records publishes and fails selected partition keys.
type fakeSink struct {
	published   []sinkCall
	deadLetters []sinkCall
	failKeys    map[string]error
}

type sinkCall struct {
	key   string
	value []byte
}

func newFakeSink() *fakeSink {
	return &fakeSink{failKeys: map[string]error{}}
}

func (f *fakeSink) Publish(_ context.Context, key string, value []byte) error {
	if err, ok := f.failKeys[key]; ok {
		return err
	}
	f.published = append(f.published, sinkCall{key: key, value: value})
	return nil
}

func (f *fakeSink) DeadLetter(_ context.Context, key string, value []byte) error {
	f.deadLetters = append(f.deadLetters, sinkCall{key: key, value: value})
	return nil
}

type PublisherTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	uow       *sharedmock.MockUnitOfWork
	tx        *sharedmock.MockTx
	outbox    *sharedmock.MockOutboxRepository
	sink      *fakeSink
	publisher *worker.Publisher
}

func (s *PublisherTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.uow = sharedmock.NewMockUnitOfWork(s.ctrl)
	s.tx = sharedmock.NewMockTx(s.ctrl)
	s.outbox = sharedmock.NewMockOutboxRepository(s.ctrl)
	s.sink = newFakeSink()

	s.tx.EXPECT().Outbox().Return(s.outbox).AnyTimes()
	s.tx.EXPECT().DB().Return(db.DBTX(nil)).AnyTimes()

	s.uow.EXPECT().
		Within(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, shared.Tx) error) error {
			return fn(ctx, s.tx)
		}).
		AnyTimes()
	s.uow.EXPECT().
		WithDB(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, db.DBTX) error) error {
			return fn(ctx, nil)
		}).
		AnyTimes()
	s.outbox.EXPECT().CountPending(gomock.Any(), gomock.Any()).Return(int64(0), nil).AnyTimes()

	s.publisher = worker.NewPublisher(
		s.uow,
		s.sink,
		s.outbox,
		clock.NewMockClock(baseTime),
		metrics.NewEngine(metrics.NewRegistry()),
		worker.NewLiveness(),
		config.PublisherConfig{PollInterval: time.Second, BatchSize: 100, MaxRetries: 5},
	)
}

func (s *PublisherTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherTestSuite))
}

func (s *PublisherTestSuite) TestPublishBatchSuccess() {
	ev1 := builder.NewOutboxEventBuilder().WithPartitionKey("SKU-A").Build()
	ev2 := builder.NewOutboxEventBuilder().WithPartitionKey("SKU-B").Build()

	s.outbox.EXPECT().ClaimPending(gomock.Any(), gomock.Any(), int32(100)).
		Return([]*event.OutboxEvent{ev1, ev2}, nil)
	s.outbox.EXPECT().MarkPublished(gomock.Any(), gomock.Any(), ev1.ID, baseTime).Return(nil)
	s.outbox.EXPECT().MarkPublished(gomock.Any(), gomock.Any(), ev2.ID, baseTime).Return(nil)

	published, err := s.publisher.PublishBatch(context.Background())
	s.Require().NoError(err)
	s.Equal(2, published)

	s.Require().Len(s.sink.published, 2)
	s.Equal("SKU-A", s.sink.published[0].key)
	s.Equal("SKU-B", s.sink.published[1].key)
	s.Contains(string(s.sink.published[0].value), ev1.ID.String())
}

func (s *PublisherTestSuite) TestEmptyBatch() {
	s.outbox.EXPECT().ClaimPending(gomock.Any(), gomock.Any(), int32(100)).Return(nil, nil)

	published, err := s.publisher.PublishBatch(context.Background())
	s.Require().NoError(err)
	s.Zero(published)
	s.Empty(s.sink.published)
}

func (s *PublisherTestSuite) TestRetryBlocksLaterEventsWithSameKey() {
	evA1 := builder.NewOutboxEventBuilder().WithPartitionKey("SKU-A").Build()
	evA2 := builder.NewOutboxEventBuilder().WithPartitionKey("SKU-A").Build()
	evB := builder.NewOutboxEventBuilder().WithPartitionKey("SKU-B").Build()
	s.sink.failKeys["SKU-A"] = errors.New("broker unreachable")

	s.outbox.EXPECT().ClaimPending(gomock.Any(), gomock.Any(), int32(100)).
		Return([]*event.OutboxEvent{evA1, evA2, evB}, nil)
	// Only the first SKU-A event records a retry; the second stays untouched
	// so its order relative to the first survives.
	s.outbox.EXPECT().MarkRetry(gomock.Any(), gomock.Any(), evA1.ID, gomock.Any()).Return(nil)
	s.outbox.EXPECT().MarkPublished(gomock.Any(), gomock.Any(), evB.ID, baseTime).Return(nil)

	published, err := s.publisher.PublishBatch(context.Background())
	s.Require().NoError(err)
	s.Equal(1, published)

	s.Require().Len(s.sink.published, 1)
	s.Equal("SKU-B", s.sink.published[0].key)
}

func (s *PublisherTestSuite) TestDeadLetterAfterRetryCap() {
	evA1 := builder.NewOutboxEventBuilder().WithPartitionKey("SKU-A").WithRetryCount(4).Build()
	evA2 := builder.NewOutboxEventBuilder().WithPartitionKey("SKU-A").Build()
	s.sink.failKeys["SKU-A"] = errors.New("broker unreachable")

	s.outbox.EXPECT().ClaimPending(gomock.Any(), gomock.Any(), int32(100)).
		Return([]*event.OutboxEvent{evA1, evA2}, nil)
	s.outbox.EXPECT().MarkFailed(gomock.Any(), gomock.Any(), evA1.ID, gomock.Any()).Return(nil)
	// The dead-lettered event no longer blocks the key; the follower is
	// attempted (and also fails, recording its own retry).
	s.outbox.EXPECT().MarkRetry(gomock.Any(), gomock.Any(), evA2.ID, gomock.Any()).Return(nil)

	published, err := s.publisher.PublishBatch(context.Background())
	s.Require().NoError(err)
	s.Zero(published)

	s.Require().Len(s.sink.deadLetters, 1)
	s.Equal("SKU-A", s.sink.deadLetters[0].key)
}

func (s *PublisherTestSuite) TestCorruptPayloadParkedImmediately() {
	ev := builder.NewOutboxEventBuilder().WithPartitionKey("SKU-A").Build()
	ev.Payload = []byte("{not json")

	s.outbox.EXPECT().ClaimPending(gomock.Any(), gomock.Any(), int32(100)).
		Return([]*event.OutboxEvent{ev}, nil)
	s.outbox.EXPECT().MarkFailed(gomock.Any(), gomock.Any(), ev.ID, gomock.Any()).Return(nil)

	published, err := s.publisher.PublishBatch(context.Background())
	s.Require().NoError(err)
	s.Zero(published)
	s.Empty(s.sink.published)
	s.Empty(s.sink.deadLetters)
}

func (s *PublisherTestSuite) TestClaimFailureSurfaces() {
	claimErr := errors.New("database gone")
	s.outbox.EXPECT().ClaimPending(gomock.Any(), gomock.Any(), int32(100)).Return(nil, claimErr)

	_, err := s.publisher.PublishBatch(context.Background())
	s.ErrorIs(err, claimErr)
}
