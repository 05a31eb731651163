package main

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStoreRepository implementa StoreRepository em memória.
// Usado no modo local (STORE_BACKEND=memory) e nos testes.
type MemoryStoreRepository struct {
	mu     sync.RWMutex
	items  map[string]*StoreItem
	orders map[string]*Order
}

// NewMemoryStoreRepository cria uma nova instância de MemoryStoreRepository
func NewMemoryStoreRepository() *MemoryStoreRepository {
	return &MemoryStoreRepository{
		items:  make(map[string]*StoreItem),
		orders: make(map[string]*Order),
	}
}

// GetItem busca um item do estoque pelo ID
func (r *MemoryStoreRepository) GetItem(ctx context.Context, itemID string) (*StoreItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[itemID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	copied := *item
	return &copied, nil
}

// PutItem cria ou substitui um item do estoque
func (r *MemoryStoreRepository) PutItem(ctx context.Context, item *StoreItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *item
	copied.UpdatedAt = time.Now()
	r.items[item.ID] = &copied
	return nil
}

// DecrementItemQuantity decrementa o estoque com guarda de não-negatividade.
// O mutex torna a leitura e a escrita um passo único por item (sem lost update).
func (r *MemoryStoreRepository) DecrementItemQuantity(ctx context.Context, itemID string, qty int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[itemID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	if item.Quantity < qty {
		return fmt.Errorf("%w: item %s needs %d has %d", ErrInsufficientStock, itemID, qty, item.Quantity)
	}

	item.Quantity -= qty
	item.UpdatedAt = time.Now()
	return nil
}

// PutOrder persiste um pedido; re-gravar o mesmo ID é um no-op
func (r *MemoryStoreRepository) PutOrder(ctx context.Context, order *Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return nil
	}

	copied := *order
	copied.Lines = append([]OrderLine(nil), order.Lines...)
	r.orders[order.ID] = &copied
	return nil
}

// UpdateOrderStatus atualiza o status de um pedido
func (r *MemoryStoreRepository) UpdateOrderStatus(ctx context.Context, orderID string, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	order, exists := r.orders[orderID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	if order.Status != status {
		order.Status = status
		order.UpdatedAt = time.Now()
	}
	return nil
}

// GetOrder busca um pedido pelo ID
func (r *MemoryStoreRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, exists := r.orders[orderID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	copied := *order
	copied.Lines = append([]OrderLine(nil), order.Lines...)
	return &copied, nil
}
