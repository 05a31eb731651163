package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CreateStoreItemRequest representa a requisição para criar um item da loja
type CreateStoreItemRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"gte=0"`
}

// SubmitOrderRequest representa a requisição de submissão de pedido
type SubmitOrderRequest struct {
	Lines []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// OrderLineRequest representa uma linha do pedido na requisição
type OrderLineRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

// FulfillmentHandler contém os handlers HTTP do serviço
type FulfillmentHandler struct {
	repository   StoreRepository
	checker      *StockChecker
	orchestrator *WorkflowOrchestrator
	tracer       trace.Tracer
}

// NewFulfillmentHandler cria uma nova instância de FulfillmentHandler
func NewFulfillmentHandler(
	repository StoreRepository,
	checker *StockChecker,
	orchestrator *WorkflowOrchestrator,
	tracer trace.Tracer,
) *FulfillmentHandler {
	return &FulfillmentHandler{
		repository:   repository,
		checker:      checker,
		orchestrator: orchestrator,
		tracer:       tracer,
	}
}

// CreateStoreItem cria ou substitui um item do estoque
func (h *FulfillmentHandler) CreateStoreItem(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_store_item")
	defer span.End()

	var req CreateStoreItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("item_id", req.ItemID),
		attribute.Int("quantity", req.Quantity),
	)

	item := NewStoreItem(req.ItemID, req.Quantity)
	if err := h.repository.PutItem(ctx, item); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create store item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Store item created successfully."})
}

// IsItemInStock responde se o estoque cobre a quantidade pedida.
// Item inexistente é reportado como fora de estoque.
func (h *FulfillmentHandler) IsItemInStock(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "is_item_in_stock")
	defer span.End()

	var query struct {
		ItemID   string `form:"item_id" binding:"required"`
		Quantity int    `form:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("item_id", query.ItemID),
		attribute.Int("quantity", query.Quantity),
	)

	inStock, err := h.checker.CheckStock(ctx, query.ItemID, query.Quantity)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check stock"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item_id":  query.ItemID,
		"quantity": query.Quantity,
		"in_stock": inStock,
	})
}

// SubmitOrder executa o workflow de fulfillment e retorna o outcome terminal
func (h *FulfillmentHandler) SubmitOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "submit_order_request")
	defer span.End()

	var req SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lines := make([]OrderLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = OrderLine{ItemID: l.ItemID, Quantity: l.Quantity}
	}

	outcome, err := h.orchestrator.SubmitOrder(ctx, lines)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrInvalidOrder) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("order_id", outcome.OrderID),
		attribute.String("outcome", outcome.Status),
	)

	c.JSON(http.StatusOK, outcome)
}

// GetOrder busca um pedido persistido pelo ID
func (h *FulfillmentHandler) GetOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "get_order")
	defer span.End()

	orderID := c.Param("id")
	span.SetAttributes(attribute.String("order_id", orderID))

	order, err := h.repository.GetOrder(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get order"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// HealthCheck verifica a saúde do serviço
func (h *FulfillmentHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "fulfillment-service",
	})
}
