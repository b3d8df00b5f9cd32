package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tiktip/pkg/logger"
	"tiktip/services/ledger/internal/entity"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Name() string {
	return m.Called().String(0)
}

func (m *MockPublisher) Publish(ctx context.Context, event entity.LedgerEvent) error {
	return m.Called(ctx, event).Error(0)
}

type fakeRedis struct {
	channel string
	message []byte
	err     error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.message = message.([]byte)
	return redis.NewIntResult(1, f.err)
}

type fakeQueue struct {
	routingKey string
	payload    interface{}
}

func (f *fakeQueue) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	f.routingKey = routingKey
	f.payload = payload
	return nil
}

func sampleEvent() entity.LedgerEvent {
	return entity.LedgerEvent{
		TransactionID: "tx-1",
		CreatorID:     "creator-1",
		Reference:     "tip_1",
		Type:          entity.TransactionTypeTip,
		Status:        entity.TransactionStatusCompleted,
		Amount:        decimal.RequireFromString("25.00"),
	}
}

func TestRedisPublisher(t *testing.T) {
	client := &fakeRedis{}
	pub := NewRedisPublisher(client)

	require.NoError(t, pub.Publish(context.Background(), sampleEvent()))
	assert.Equal(t, "ledger:creator:creator-1", client.channel)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(client.message, &decoded))
	assert.Equal(t, "tip_1", decoded["reference"])
	assert.Equal(t, "25", decoded["amount"])
}

func TestQueuePublisher(t *testing.T) {
	client := &fakeQueue{}
	pub := NewQueuePublisher(client)

	require.NoError(t, pub.Publish(context.Background(), sampleEvent()))
	assert.Equal(t, "ledger.tip.completed", client.routingKey)
	assert.Equal(t, sampleEvent(), client.payload)
}

func TestMulti_ContinuesPastFailures(t *testing.T) {
	failing := new(MockPublisher)
	failing.On("Name").Return("redis")
	failing.On("Publish", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	ok := new(MockPublisher)
	ok.On("Publish", mock.Anything, mock.Anything).Return(nil)

	err := Multi{failing, ok}.Publish(context.Background(), sampleEvent())

	assert.ErrorContains(t, err, "redis: connection refused")
	ok.AssertCalled(t, "Publish", mock.Anything, sampleEvent())
}

func TestDispatcher_LogsAndSwallowsErrors(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf)

	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	d := NewDispatcher(pub, time.Second, log)
	assert.NotPanics(t, func() { d.Dispatch(sampleEvent()) })
	assert.Contains(t, buf.String(), "broker down")
}

func TestDispatcher_DetachedDeadline(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) > 0
	}), mock.Anything).Return(nil)

	NewDispatcher(pub, 500*time.Millisecond, nil).Dispatch(sampleEvent())
	pub.AssertExpectations(t)
}

func TestNoOp(t *testing.T) {
	assert.NoError(t, NoOp{}.Publish(context.Background(), sampleEvent()))
	NewDispatcher(nil, 0, nil).Dispatch(sampleEvent())
}
