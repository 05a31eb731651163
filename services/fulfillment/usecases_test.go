package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// MockStoreRepository para testes que não precisam de um store real
type MockStoreRepository struct {
	mock.Mock
}

func (m *MockStoreRepository) GetItem(ctx context.Context, itemID string) (*StoreItem, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*StoreItem), args.Error(1)
}

func (m *MockStoreRepository) PutItem(ctx context.Context, item *StoreItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockStoreRepository) DecrementItemQuantity(ctx context.Context, itemID string, qty int) error {
	args := m.Called(ctx, itemID, qty)
	return args.Error(0)
}

func (m *MockStoreRepository) PutOrder(ctx context.Context, order *Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockStoreRepository) UpdateOrderStatus(ctx context.Context, orderID string, status string) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *MockStoreRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func TestStockChecker_CheckStock(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	ctx := context.Background()

	tests := []struct {
		name      string
		available int
		requested int
		inStock   bool
	}{
		{name: "enough stock", available: 5, requested: 3, inStock: true},
		{name: "exact stock", available: 3, requested: 3, inStock: true},
		{name: "short stock", available: 2, requested: 3, inStock: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := new(MockStoreRepository)
			mockRepo.On("GetItem", mock.Anything, "sku-1").
				Return(NewStoreItem("sku-1", tc.available), nil)

			checker := NewStockChecker(mockRepo, tracer)
			inStock, err := checker.CheckStock(ctx, "sku-1", tc.requested)

			require.NoError(t, err)
			assert.Equal(t, tc.inStock, inStock)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestStockChecker_MissingItemIsOutOfStock(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	mockRepo := new(MockStoreRepository)
	mockRepo.On("GetItem", mock.Anything, "sku-missing").
		Return(nil, ErrItemNotFound)

	checker := NewStockChecker(mockRepo, tracer)
	inStock, err := checker.CheckStock(context.Background(), "sku-missing", 1)

	// Não encontrado vira "fora de estoque", nunca erro fatal
	require.NoError(t, err)
	assert.False(t, inStock)
	mockRepo.AssertExpectations(t)
}

func TestStockChecker_PropagatesStoreErrors(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	storeErr := errors.New("connection reset")
	mockRepo := new(MockStoreRepository)
	mockRepo.On("GetItem", mock.Anything, "sku-1").Return(nil, storeErr)

	checker := NewStockChecker(mockRepo, tracer)
	_, err := checker.CheckStock(context.Background(), "sku-1", 1)

	assert.ErrorIs(t, err, storeErr)
}

func TestStockUpdater_DecrementStock(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	mockRepo := new(MockStoreRepository)
	mockRepo.On("DecrementItemQuantity", mock.Anything, "sku-1", 3).Return(nil)

	updater := NewStockUpdater(mockRepo, tracer)
	err := updater.DecrementStock(context.Background(), "sku-1", 3)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestStockUpdater_InsufficientStock(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	mockRepo := new(MockStoreRepository)
	mockRepo.On("DecrementItemQuantity", mock.Anything, "sku-1", 3).
		Return(ErrInsufficientStock)

	updater := NewStockUpdater(mockRepo, tracer)
	err := updater.DecrementStock(context.Background(), "sku-1", 3)

	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestOrderRecorder_RecordOrder(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	order := NewOrder("order-1", []OrderLine{{ItemID: "sku-1", Quantity: 1}})

	mockRepo := new(MockStoreRepository)
	mockRepo.On("PutOrder", mock.Anything, order).Return(nil)

	recorder := NewOrderRecorder(mockRepo, tracer)
	err := recorder.RecordOrder(context.Background(), order)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestOrderRecorder_WrapsPersistenceFailures(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	order := NewOrder("order-1", []OrderLine{{ItemID: "sku-1", Quantity: 1}})

	mockRepo := new(MockStoreRepository)
	mockRepo.On("PutOrder", mock.Anything, order).Return(errors.New("disk full"))

	recorder := NewOrderRecorder(mockRepo, tracer)
	err := recorder.RecordOrder(context.Background(), order)

	assert.ErrorIs(t, err, ErrPersistence)
}

func TestOrderRecorder_SettleOrderStatus(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	mockRepo := new(MockStoreRepository)
	mockRepo.On("UpdateOrderStatus", mock.Anything, "order-1", OrderStatusCommitted).Return(nil)

	recorder := NewOrderRecorder(mockRepo, tracer)
	err := recorder.SettleOrderStatus(context.Background(), "order-1", OrderStatusCommitted)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
