package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkflowTimeout é o prazo total de uma execução do workflow
const DefaultWorkflowTimeout = 5 * time.Minute

// errOutOfStock sinaliza indisponibilidade definitiva na fase de check.
// Interno ao orquestrador; o chamador recebe o outcome REJECTED, não o erro.
var errOutOfStock = errors.New("item not available")

// WorkflowRun representa uma execução efêmera do workflow, 1:1 com a submissão.
// Descartada depois que o outcome é reportado.
type WorkflowRun struct {
	OrderID  string
	State    WorkflowState
	Deadline time.Time
	Results  []LineResult
}

func (run *WorkflowRun) transition(state WorkflowState) {
	log.Printf("🔀 [WORKFLOW] OrderID=%s %s → %s", run.OrderID, run.State, state)
	run.State = state
}

// WorkflowOrchestrator coordena o workflow de fulfillment:
// fan-out da fase de check (all-or-nothing), depois fan-out paralelo da fase
// de commit (decrementos + gravação do pedido) com barreira de join.
type WorkflowOrchestrator struct {
	checker  *StockChecker
	updater  *StockUpdater
	recorder *OrderRecorder
	tracer   trace.Tracer
	outcomes metric.Int64Counter
	timeout  time.Duration
}

// NewWorkflowOrchestrator cria uma nova instância de WorkflowOrchestrator
func NewWorkflowOrchestrator(
	checker *StockChecker,
	updater *StockUpdater,
	recorder *OrderRecorder,
	tracer trace.Tracer,
	outcomes metric.Int64Counter,
	timeout time.Duration,
) *WorkflowOrchestrator {
	if timeout < 0 {
		timeout = DefaultWorkflowTimeout
	}
	return &WorkflowOrchestrator{
		checker:  checker,
		updater:  updater,
		recorder: recorder,
		tracer:   tracer,
		outcomes: outcomes,
		timeout:  timeout,
	}
}

// SubmitOrder executa o workflow completo para um pedido e retorna o outcome
// terminal. Pedidos malformados falham com ErrInvalidOrder antes de qualquer
// execução.
func (o *WorkflowOrchestrator) SubmitOrder(ctx context.Context, lines []OrderLine) (*WorkflowOutcome, error) {
	order := NewOrder(uuid.New().String(), lines)
	if err := order.Validate(); err != nil {
		return nil, err
	}

	ctx, span := o.tracer.Start(ctx, "submit_order")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", order.ID),
		attribute.Int("line_count", len(order.Lines)),
	)

	// Prazo único para a execução inteira, fixado no recebimento
	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	run := &WorkflowRun{
		OrderID:  order.ID,
		State:    WorkflowStateReceived,
		Deadline: time.Now().Add(o.timeout),
	}

	log.Printf("🚀 [WORKFLOW] Starting run | OrderID: %s | Lines: %d | Deadline: %s",
		order.ID, len(order.Lines), run.Deadline.Format(time.RFC3339))

	outcome := o.runCheckPhase(runCtx, run, order)
	if outcome == nil {
		outcome = o.runCommitPhase(runCtx, run, order)
	}

	span.SetAttributes(attribute.String("outcome", outcome.Status))
	o.countOutcome(ctx, outcome.Status)
	log.Printf("🏁 [WORKFLOW] Run finished | OrderID: %s | Outcome: %s", order.ID, outcome.Status)
	return outcome, nil
}

// runCheckPhase executa o fan-out de CheckStock sobre todas as linhas.
// Retorna nil quando todas passam (transição para READY); caso contrário
// retorna o outcome terminal (REJECTED ou FAILED) sem tentar o commit.
func (o *WorkflowOrchestrator) runCheckPhase(ctx context.Context, run *WorkflowRun, order *Order) *WorkflowOutcome {
	run.transition(WorkflowStateChecking)

	ctx, span := o.tracer.Start(ctx, "check_phase")
	defer span.End()

	if ctx.Err() != nil {
		// Prazo já expirado: nenhuma sub-operação é iniciada
		return o.resolve(run, order, WorkflowStateFailed, "timeout", nil)
	}

	// errgroup cancela as checagens restantes no primeiro resultado
	// definitivo de indisponibilidade (política fail-fast)
	g, gctx := errgroup.WithContext(ctx)
	for _, line := range order.Lines {
		g.Go(func() error {
			ok, err := o.checker.CheckStock(gctx, line.ItemID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s needs %d", errOutOfStock, line.ItemID, line.Quantity)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		order.Status = OrderStatusInStock
		run.transition(WorkflowStateReady)
		return nil
	}

	span.RecordError(err)
	switch {
	case ctx.Err() != nil:
		return o.resolve(run, order, WorkflowStateFailed, "timeout", nil)
	case errors.Is(err, errOutOfStock):
		log.Printf("🚫 [CHECK] Rejected | OrderID=%s | %v", order.ID, err)
		return o.resolve(run, order, WorkflowStateRejected, "out_of_stock", nil)
	default:
		log.Printf("❌ [CHECK] Unexpected failure | OrderID=%s | %v", order.ID, err)
		return o.resolve(run, order, WorkflowStateFailed, "internal_error", nil)
	}
}

// runCommitPhase executa os dois grupos concorrentes da fase de commit:
// Grupo A decrementa o estoque linha a linha, Grupo B grava o pedido.
// Os dois grupos completam (sucesso ou falha) antes da agregação: barreira
// de join, não corrida. Decrementos já aplicados não são revertidos.
func (o *WorkflowOrchestrator) runCommitPhase(ctx context.Context, run *WorkflowRun, order *Order) *WorkflowOutcome {
	run.transition(WorkflowStateCommitting)

	ctx, span := o.tracer.Start(ctx, "commit_phase")
	defer span.End()

	if ctx.Err() != nil {
		return o.resolve(run, order, WorkflowStateFailed, "timeout", nil)
	}

	results := make([]LineResult, len(order.Lines))
	var wg sync.WaitGroup

	// Grupo A: um decremento por linha; linhas duplicadas do mesmo item
	// consomem o mesmo StoreItem de forma independente
	for i, line := range order.Lines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := o.updater.DecrementStock(ctx, line.ItemID, line.Quantity)
			results[i] = LineResult{
				ItemID:   line.ItemID,
				Quantity: line.Quantity,
				OK:       err == nil,
				Code:     lineCodeForError(err),
			}
		}()
	}

	// Grupo B: gravação do pedido, uma única vez
	var recordErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		recordErr = o.recorder.RecordOrder(ctx, order)
	}()

	wg.Wait()
	run.Results = results

	failed := recordErr != nil
	for _, res := range results {
		if !res.OK {
			failed = true
		}
	}

	switch {
	case ctx.Err() != nil:
		return o.resolve(run, order, WorkflowStateFailed, "timeout", results)
	case recordErr != nil:
		span.RecordError(recordErr)
		return o.resolve(run, order, WorkflowStateFailed, "persistence_failed", results)
	case failed:
		return o.resolve(run, order, WorkflowStateFailed, "commit_failed", results)
	default:
		return o.resolve(run, order, WorkflowStateCommitted, "", results)
	}
}

// resolve fecha a execução em um estado terminal e acerta o status persistido
// do pedido quando ele foi gravado na fase de commit
func (o *WorkflowOrchestrator) resolve(run *WorkflowRun, order *Order, state WorkflowState, reason string, results []LineResult) *WorkflowOutcome {
	run.transition(state)

	var status string
	switch state {
	case WorkflowStateRejected:
		status = OrderStatusRejected
	case WorkflowStateCommitted:
		status = OrderStatusCommitted
	default:
		status = OrderStatusFailed
	}
	order.Status = status

	// O status terminal só é acertado quando a fase de commit rodou (o pedido
	// pode ter sido gravado). O acerto usa um contexto próprio: o prazo da
	// execução limita o trabalho do workflow, não o registro do veredito.
	if results != nil {
		settleCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.recorder.SettleOrderStatus(settleCtx, order.ID, status); err != nil {
			log.Printf("⚠️ [WORKFLOW] Could not settle status for OrderID=%s: %v", order.ID, err)
		}
	}

	return &WorkflowOutcome{
		OrderID:     order.ID,
		Status:      status,
		Reason:      reason,
		LineResults: results,
	}
}

func (o *WorkflowOrchestrator) countOutcome(ctx context.Context, status string) {
	if o.outcomes == nil {
		return
	}
	o.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
