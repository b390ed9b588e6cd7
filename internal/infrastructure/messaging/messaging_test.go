package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/config"
	"github.com/xiebiao/inventory-reservation/pkg/circuitbreaker"
	"github.com/xiebiao/inventory-reservation/pkg/mq"
)

type mockBroker struct {
	mock.Mock
}

func (m *mockBroker) Publish(ctx context.Context, routingKey string, body []byte) error {
	args := m.Called(ctx, routingKey, body)
	return args.Error(0)
}

func (m *mockBroker) Close() error {
	return m.Called().Error(0)
}

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) ConfirmOrder(ctx context.Context, orderID string) ([]*inventory.Reservation, error) {
	args := m.Called(ctx, orderID)
	return nil, args.Error(0)
}

func (m *mockOrderService) CancelOrder(ctx context.Context, orderID, reason string) ([]*inventory.Reservation, error) {
	args := m.Called(ctx, orderID, reason)
	return nil, args.Error(0)
}

func TestEventPublisher_Publish(t *testing.T) {
	t.Run("按事件类型作为路由键", func(t *testing.T) {
		broker := &mockBroker{}
		broker.On("Publish", mock.Anything, inventory.EventReservationCreated, mock.MatchedBy(func(body []byte) bool {
			var e inventory.Event
			return json.Unmarshal(body, &e) == nil && e.SKU == "SKU-1" && e.Quantity == 3
		})).Return(nil).Once()
		broker.On("Publish", mock.Anything, inventory.EventStockLow, mock.Anything).Return(nil).Once()

		p := NewEventPublisher(broker, nil)
		err := p.Publish(context.Background(),
			inventory.Event{Type: inventory.EventReservationCreated, SKU: "SKU-1", Quantity: 3},
			inventory.Event{Type: inventory.EventStockLow, SKU: "SKU-1"},
		)
		require.NoError(t, err)
		broker.AssertExpectations(t)
	})

	t.Run("单条失败不影响后续事件", func(t *testing.T) {
		broker := &mockBroker{}
		broker.On("Publish", mock.Anything, inventory.EventReservationCreated, mock.Anything).Return(errors.New("down")).Once()
		broker.On("Publish", mock.Anything, inventory.EventStockLow, mock.Anything).Return(nil).Once()

		p := NewEventPublisher(broker, nil)
		err := p.Publish(context.Background(),
			inventory.Event{Type: inventory.EventReservationCreated},
			inventory.Event{Type: inventory.EventStockLow},
		)
		assert.Error(t, err)
		broker.AssertExpectations(t)
	})

	t.Run("连续失败后熔断，不再访问broker", func(t *testing.T) {
		broker := &mockBroker{}
		broker.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("down")).Times(5)

		p := NewEventPublisher(broker, nil)
		for i := 0; i < 5; i++ {
			assert.Error(t, p.Publish(context.Background(), inventory.Event{Type: inventory.EventStockChanged}))
		}
		err := p.Publish(context.Background(), inventory.Event{Type: inventory.EventStockChanged})
		assert.ErrorIs(t, err, circuitbreaker.ErrOpenState)
		broker.AssertNumberOfCalls(t, "Publish", 5)
	})
}

func TestOrderEventHandler_Handle(t *testing.T) {
	ctx := context.Background()
	body := func(orderID, reason string) []byte {
		b, _ := json.Marshal(OrderEvent{OrderID: orderID, Reason: reason})
		return b
	}

	t.Run("发货事件确认整单", func(t *testing.T) {
		svc := &mockOrderService{}
		svc.On("ConfirmOrder", mock.Anything, "order-1").Return(nil).Once()

		err := NewOrderEventHandler(svc, nil).Handle(ctx, EventOrderShipped, body("order-1", ""))
		require.NoError(t, err)
		svc.AssertExpectations(t)
	})

	t.Run("取消事件带默认原因", func(t *testing.T) {
		svc := &mockOrderService{}
		svc.On("CancelOrder", mock.Anything, "order-1", "order cancelled").Return(nil).Once()

		err := NewOrderEventHandler(svc, nil).Handle(ctx, EventOrderCancelled, body("order-1", ""))
		require.NoError(t, err)
		svc.AssertExpectations(t)
	})

	t.Run("业务错误确认消息，不重投", func(t *testing.T) {
		svc := &mockOrderService{}
		svc.On("ConfirmOrder", mock.Anything, "order-1").
			Return(fmt.Errorf("预留单r-1: %w", inventory.ErrInvalidState)).Once()

		err := NewOrderEventHandler(svc, nil).Handle(ctx, EventOrderShipped, body("order-1", ""))
		assert.NoError(t, err)
	})

	t.Run("系统错误返回给消费者重投", func(t *testing.T) {
		svc := &mockOrderService{}
		svc.On("CancelOrder", mock.Anything, "order-1", "payment timeout").
			Return(errors.Join(inventory.ErrInvalidState, inventory.ErrConcurrencyConflict)).Once()

		err := NewOrderEventHandler(svc, nil).Handle(ctx, EventOrderCancelled, body("order-1", "payment timeout"))
		assert.ErrorIs(t, err, inventory.ErrConcurrencyConflict)
	})

	t.Run("非法消息和未知事件直接丢弃", func(t *testing.T) {
		svc := &mockOrderService{}
		h := NewOrderEventHandler(svc, nil)

		assert.NoError(t, h.Handle(ctx, EventOrderShipped, []byte("not json")))
		assert.NoError(t, h.Handle(ctx, EventOrderShipped, body("", "")))
		assert.NoError(t, h.Handle(ctx, "order.created", body("order-1", "")))
		svc.AssertNotCalled(t, "ConfirmOrder", mock.Anything, mock.Anything)
	})
}

func TestNewBroker(t *testing.T) {
	pub, err := NewBroker(config.MQConfig{Driver: "none"}, nil)
	require.NoError(t, err)
	assert.IsType(t, mq.NopPublisher{}, pub)

	c, err := NewOrderConsumer(config.MQConfig{Driver: "kafka", Consume: false}, nil)
	require.NoError(t, err)
	assert.Nil(t, c)
}
