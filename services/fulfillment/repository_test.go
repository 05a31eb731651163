package main

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetItemNotFound(t *testing.T) {
	repo := NewMemoryStoreRepository()

	item, err := repo.GetItem(context.Background(), "sku-missing")

	assert.Nil(t, item)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestMemoryStore_PutItemReplaces(t *testing.T) {
	repo := NewMemoryStoreRepository()
	ctx := context.Background()

	require.NoError(t, repo.PutItem(ctx, NewStoreItem("sku-1", 5)))
	require.NoError(t, repo.PutItem(ctx, NewStoreItem("sku-1", 9)))

	item, err := repo.GetItem(ctx, "sku-1")
	require.NoError(t, err)
	assert.Equal(t, 9, item.Quantity)
}

func TestMemoryStore_DecrementErrors(t *testing.T) {
	repo := NewMemoryStoreRepository()
	ctx := context.Background()
	require.NoError(t, repo.PutItem(ctx, NewStoreItem("sku-1", 2)))

	err := repo.DecrementItemQuantity(ctx, "sku-1", 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	err = repo.DecrementItemQuantity(ctx, "sku-missing", 1)
	assert.ErrorIs(t, err, ErrItemNotFound)

	// Falha sem mutação
	item, err := repo.GetItem(ctx, "sku-1")
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)
}

func TestMemoryStore_ConcurrentDecrementsNeverGoNegative(t *testing.T) {
	// N decrementos concorrentes com sum(q) > estoque inicial: exatamente o
	// prefixo que cabe tem sucesso
	const (
		initialStock = 25
		workers      = 40
		qtyPerCall   = 2
	)

	repo := NewMemoryStoreRepository()
	ctx := context.Background()
	require.NoError(t, repo.PutItem(ctx, NewStoreItem("sku-1", initialStock)))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.DecrementItemQuantity(ctx, "sku-1", qtyPerCall); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	item, err := repo.GetItem(ctx, "sku-1")
	require.NoError(t, err)

	assert.Equal(t, initialStock/qtyPerCall, succeeded)
	assert.Equal(t, initialStock-succeeded*qtyPerCall, item.Quantity)
	assert.GreaterOrEqual(t, item.Quantity, 0)
}

func TestMemoryStore_PutOrderIdempotent(t *testing.T) {
	repo := NewMemoryStoreRepository()
	ctx := context.Background()

	order := NewOrder("order-1", []OrderLine{{ItemID: "sku-1", Quantity: 2}})
	require.NoError(t, repo.PutOrder(ctx, order))
	require.NoError(t, repo.PutOrder(ctx, order))

	stored, err := repo.GetOrder(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
	assert.Equal(t, order.Lines, stored.Lines)
}

func TestMemoryStore_UpdateOrderStatus(t *testing.T) {
	repo := NewMemoryStoreRepository()
	ctx := context.Background()

	require.NoError(t, repo.PutOrder(ctx, NewOrder("order-1", []OrderLine{{ItemID: "sku-1", Quantity: 1}})))
	require.NoError(t, repo.UpdateOrderStatus(ctx, "order-1", OrderStatusCommitted))

	stored, err := repo.GetOrder(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCommitted, stored.Status)

	err = repo.UpdateOrderStatus(ctx, "order-missing", OrderStatusFailed)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMemoryStore_RespectsCancelledContext(t *testing.T) {
	repo := NewMemoryStoreRepository()
	require.NoError(t, repo.PutItem(context.Background(), NewStoreItem("sku-1", 5)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.DecrementItemQuantity(ctx, "sku-1", 1)
	assert.ErrorIs(t, err, context.Canceled)

	item, err := repo.GetItem(context.Background(), "sku-1")
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)
}

func TestMemoryStore_GetItemReturnsCopy(t *testing.T) {
	repo := NewMemoryStoreRepository()
	ctx := context.Background()
	require.NoError(t, repo.PutItem(ctx, NewStoreItem("sku-1", 5)))

	item, err := repo.GetItem(ctx, "sku-1")
	require.NoError(t, err)
	item.Quantity = 0

	again, err := repo.GetItem(ctx, "sku-1")
	require.NoError(t, err)
	assert.Equal(t, 5, again.Quantity)
}
