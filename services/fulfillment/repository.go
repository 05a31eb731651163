package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StoreRepository define a interface para operações de persistência da loja.
// O orquestrador só conhece esta interface, nunca o backend concreto.
type StoreRepository interface {
	// GetItem busca um item do estoque pelo ID
	GetItem(ctx context.Context, itemID string) (*StoreItem, error)

	// PutItem cria ou substitui um item do estoque
	PutItem(ctx context.Context, item *StoreItem) error

	// DecrementItemQuantity decrementa o estoque de forma atômica por item.
	// Falha com ErrInsufficientStock sem mutação se o resultado ficaria negativo.
	DecrementItemQuantity(ctx context.Context, itemID string, qty int) error

	// PutOrder persiste um pedido (idempotente para o mesmo ID e conteúdo)
	PutOrder(ctx context.Context, order *Order) error

	// UpdateOrderStatus atualiza o status de um pedido
	UpdateOrderStatus(ctx context.Context, orderID string, status string) error

	// GetOrder busca um pedido pelo ID
	GetOrder(ctx context.Context, orderID string) (*Order, error)
}

// PostgresStoreRepository implementa StoreRepository usando PostgreSQL
type PostgresStoreRepository struct {
	db *pgxpool.Pool
}

// NewPostgresStoreRepository cria uma nova instância de PostgresStoreRepository
func NewPostgresStoreRepository(db *pgxpool.Pool) StoreRepository {
	return &PostgresStoreRepository{
		db: db,
	}
}

// GetItem busca um item do estoque pelo ID
func (r *PostgresStoreRepository) GetItem(ctx context.Context, itemID string) (*StoreItem, error) {
	var item StoreItem
	err := r.db.QueryRow(ctx, `
		SELECT id, quantity, created_at, updated_at
		FROM store_items WHERE id = $1
	`, itemID).Scan(&item.ID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		return nil, err
	}
	return &item, nil
}

// PutItem cria ou substitui um item do estoque
func (r *PostgresStoreRepository) PutItem(ctx context.Context, item *StoreItem) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO store_items (id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET quantity = EXCLUDED.quantity, updated_at = NOW()
	`, item.ID, item.Quantity, item.CreatedAt, item.UpdatedAt)
	return err
}

// DecrementItemQuantity decrementa o estoque com guarda de não-negatividade.
// Um único UPDATE condicional fecha a corrida entre decrementos concorrentes:
// a linha só é alterada quando quantity >= qty.
func (r *PostgresStoreRepository) DecrementItemQuantity(ctx context.Context, itemID string, qty int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE store_items
		SET quantity = quantity - $2,
		    updated_at = NOW()
		WHERE id = $1 AND quantity >= $2
	`, itemID, qty)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Distingue item inexistente de estoque insuficiente
		if _, getErr := r.GetItem(ctx, itemID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: item %s needs %d", ErrInsufficientStock, itemID, qty)
	}
	return nil
}

// PutOrder persiste um pedido. ON CONFLICT DO NOTHING garante que re-gravar
// o mesmo pedido é um no-op, não uma duplicata.
func (r *PostgresStoreRepository) PutOrder(ctx context.Context, order *Order) error {
	lines, err := json.Marshal(order.Lines)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO orders (id, lines, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, order.ID, lines, order.Status, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// UpdateOrderStatus atualiza o status de um pedido
func (r *PostgresStoreRepository) UpdateOrderStatus(ctx context.Context, orderID string, status string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status != $1
	`, status, orderID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// GetOrder busca um pedido pelo ID
func (r *PostgresStoreRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	var lines []byte
	err := r.db.QueryRow(ctx, `
		SELECT id, lines, status, created_at, updated_at
		FROM orders WHERE id = $1
	`, orderID).Scan(&order.ID, &lines, &order.Status, &order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, err
	}

	if err := json.Unmarshal(lines, &order.Lines); err != nil {
		return nil, fmt.Errorf("failed to decode order lines: %w", err)
	}
	return &order, nil
}
