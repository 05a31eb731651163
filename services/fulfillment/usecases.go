package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StockChecker responde se o estoque atual cobre a quantidade pedida.
// Leitura pura, sem efeitos colaterais; seguro para chamadas concorrentes.
type StockChecker struct {
	repository StoreRepository
	tracer     trace.Tracer
}

// NewStockChecker cria uma nova instância de StockChecker
func NewStockChecker(repository StoreRepository, tracer trace.Tracer) *StockChecker {
	return &StockChecker{
		repository: repository,
		tracer:     tracer,
	}
}

// CheckStock retorna true se quantity >= requestedQty.
// Item inexistente conta como "fora de estoque", não como erro fatal.
func (uc *StockChecker) CheckStock(ctx context.Context, itemID string, requestedQty int) (bool, error) {
	ctx, span := uc.tracer.Start(ctx, "check_stock")
	defer span.End()

	span.SetAttributes(
		attribute.String("item_id", itemID),
		attribute.Int("requested_quantity", requestedQty),
	)

	item, err := uc.repository.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			log.Printf("ℹ️ [CHECK] ItemID=%s does not exist, treating as out of stock", itemID)
			span.SetAttributes(attribute.Bool("in_stock", false))
			return false, nil
		}
		span.RecordError(err)
		return false, err
	}

	inStock := item.Quantity >= requestedQty
	span.SetAttributes(attribute.Bool("in_stock", inStock))
	return inStock, nil
}

// StockUpdater executa o compare-and-decrement do estoque na fase de commit.
// A verificação é independente da fase de check: o estoque pode ter mudado.
type StockUpdater struct {
	repository StoreRepository
	tracer     trace.Tracer
}

// NewStockUpdater cria uma nova instância de StockUpdater
func NewStockUpdater(repository StoreRepository, tracer trace.Tracer) *StockUpdater {
	return &StockUpdater{
		repository: repository,
		tracer:     tracer,
	}
}

// DecrementStock decrementa o estoque de forma atômica por item
func (uc *StockUpdater) DecrementStock(ctx context.Context, itemID string, qty int) error {
	ctx, span := uc.tracer.Start(ctx, "decrement_stock")
	defer span.End()

	span.SetAttributes(
		attribute.String("item_id", itemID),
		attribute.Int("quantity", qty),
	)

	if err := uc.repository.DecrementItemQuantity(ctx, itemID, qty); err != nil {
		log.Printf("❌ [DECREMENT] Failed for ItemID=%s qty=%d: %v", itemID, qty, err)
		span.RecordError(err)
		return err
	}

	log.Printf("✅ [DECREMENT] Success: ItemID=%s qty=%d", itemID, qty)
	return nil
}

// OrderRecorder persiste pedidos e acerta o status terminal
type OrderRecorder struct {
	repository StoreRepository
	tracer     trace.Tracer
}

// NewOrderRecorder cria uma nova instância de OrderRecorder
func NewOrderRecorder(repository StoreRepository, tracer trace.Tracer) *OrderRecorder {
	return &OrderRecorder{
		repository: repository,
		tracer:     tracer,
	}
}

// RecordOrder persiste o pedido (idempotente para o mesmo ID)
func (uc *OrderRecorder) RecordOrder(ctx context.Context, order *Order) error {
	ctx, span := uc.tracer.Start(ctx, "record_order")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", order.ID),
		attribute.Int("line_count", len(order.Lines)),
	)

	if err := uc.repository.PutOrder(ctx, order); err != nil {
		log.Printf("❌ [RECORD ORDER] Failed for OrderID=%s: %v", order.ID, err)
		span.RecordError(err)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	log.Printf("✅ [RECORD ORDER] Success: OrderID=%s", order.ID)
	return nil
}

// SettleOrderStatus grava o status terminal decidido pelo orquestrador
func (uc *OrderRecorder) SettleOrderStatus(ctx context.Context, orderID string, status string) error {
	ctx, span := uc.tracer.Start(ctx, "settle_order_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", orderID),
		attribute.String("status", status),
	)

	if err := uc.repository.UpdateOrderStatus(ctx, orderID, status); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
