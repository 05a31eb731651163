package main

import (
	"time"
)

// StoreItem representa um item do estoque da loja
type StoreItem struct {
	ID        string    `json:"id" db:"id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewStoreItem cria uma nova instância de StoreItem
func NewStoreItem(id string, quantity int) *StoreItem {
	return &StoreItem{
		ID:        id,
		Quantity:  quantity,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// OrderLine representa uma linha de um pedido (imutável após a submissão)
type OrderLine struct {
	ItemID   string `json:"item_id" db:"item_id"`
	Quantity int    `json:"quantity" db:"quantity"`
}

// Order representa um pedido no sistema
type Order struct {
	ID        string      `json:"id" db:"id"`
	Lines     []OrderLine `json:"lines" db:"lines"`
	Status    string      `json:"status" db:"status"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// NewOrder cria uma nova instância de Order com status pending
func NewOrder(id string, lines []OrderLine) *Order {
	return &Order{
		ID:        id,
		Lines:     lines,
		Status:    OrderStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// Validate verifica se o pedido pode iniciar o workflow
func (o *Order) Validate() error {
	if len(o.Lines) == 0 {
		return ErrInvalidOrder
	}
	for _, line := range o.Lines {
		if line.ItemID == "" || line.Quantity <= 0 {
			return ErrInvalidOrder
		}
	}
	return nil
}

// OrderStatus representa os possíveis status de um pedido.
// As transições pertencem exclusivamente ao orquestrador.
const (
	OrderStatusPending   = "pending"
	OrderStatusInStock   = "in_stock"
	OrderStatusRejected  = "rejected"
	OrderStatusCommitted = "committed"
	OrderStatusFailed    = "failed"
)

// WorkflowState representa os estados internos de uma execução do workflow
type WorkflowState string

const (
	WorkflowStateReceived   WorkflowState = "received"
	WorkflowStateChecking   WorkflowState = "checking"
	WorkflowStateReady      WorkflowState = "ready"
	WorkflowStateCommitting WorkflowState = "committing"
	WorkflowStateRejected   WorkflowState = "rejected"
	WorkflowStateCommitted  WorkflowState = "committed"
	WorkflowStateFailed     WorkflowState = "failed"
)

// Terminal indica se o estado encerra a execução
func (s WorkflowState) Terminal() bool {
	return s == WorkflowStateRejected || s == WorkflowStateCommitted || s == WorkflowStateFailed
}

// LineResult representa o resultado de uma linha do pedido na fase de commit.
// Linhas duplicadas do mesmo item são tratadas de forma independente.
type LineResult struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
	OK       bool   `json:"ok"`
	Code     string `json:"code"`
}

// Códigos de resultado por linha
const (
	LineCodeDecremented       = "decremented"
	LineCodeInsufficientStock = "insufficient_stock"
	LineCodeNotFound          = "not_found"
	LineCodeTimeout           = "timeout"
	LineCodeError             = "error"
)

// WorkflowOutcome representa o resultado terminal de uma submissão de pedido
type WorkflowOutcome struct {
	OrderID     string       `json:"order_id"`
	Status      string       `json:"status"`
	Reason      string       `json:"reason,omitempty"`
	LineResults []LineResult `json:"line_results,omitempty"`
}
