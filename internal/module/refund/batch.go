package refund

import (
	"context"
	"fmt"
	"sync"

	"github.com/commercekit/checkout/internal/module/order"
	"github.com/commercekit/checkout/internal/shared/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

// OrderPort is the slice of the order service the orchestrator consumes.
type OrderPort interface {
	GetWithItems(ctx context.Context, id uuid.UUID) (*order.Order, error)
}

// PaymentPort reports whether an order has a successful payment.
type PaymentPort interface {
	HasPaid(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// BatchItem is one requested refund line.
type BatchItem struct {
	OrderItemID uuid.UUID `json:"orderItemId" binding:"required"`
	Quantity    int       `json:"quantity" binding:"required"`
}

// BatchEntry is one refund request against one order.
type BatchEntry struct {
	OrderID uuid.UUID   `json:"orderId" binding:"required"`
	Items   []BatchItem `json:"items" binding:"required"`
}

// BatchResult is the outcome of a batch. A batch is never
// all-or-nothing: created refunds and per-entry errors travel together.
type BatchResult struct {
	Refunds []*Refund    `json:"refunds"`
	Errors  []BatchError `json:"errors"`
}

// Orchestrator validates and creates refund drafts in batches, one or
// more orders per batch. Entries are processed concurrently; results
// and errors are reported back in input order.
type Orchestrator struct {
	refunds  Repository
	orders   OrderPort
	payments PaymentPort
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewOrchestrator creates a new refund batch orchestrator.
func NewOrchestrator(refunds Repository, orders OrderPort, payments PaymentPort, m *metrics.Metrics, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		refunds:  refunds,
		orders:   orders,
		payments: payments,
		metrics:  m,
		logger:   logger,
	}
}

type entryResult struct {
	refund *Refund
	errs   []BatchError
}

// Process validates and creates the batch. Every entry is independent:
// a validation failure in one entry never aborts its siblings.
func (o *Orchestrator) Process(ctx context.Context, entries []BatchEntry) BatchResult {
	// A duplicated orderId rejects every occurrence, not just the
	// later ones, so callers can retry the non-duplicate entries.
	occurrences := make(map[uuid.UUID]int, len(entries))
	for _, e := range entries {
		occurrences[e.OrderID]++
	}

	results := make([]entryResult, len(entries))

	var wg sync.WaitGroup
	for i := range entries {
		if occurrences[entries[i].OrderID] > 1 {
			results[i] = entryResult{errs: []BatchError{{
				Index:   i,
				OrderID: entries[i].OrderID.String(),
				Code:    CodeDuplicateOrderID,
				Message: fmt.Sprintf("%v: %s", ErrDuplicateOrder, entries[i].OrderID),
			}}}
			o.reject(CodeDuplicateOrderID)
			continue
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			refund, errs := o.processEntry(ctx, i, entries[i])
			results[i] = entryResult{refund: refund, errs: errs}
		}(i)
	}
	wg.Wait()

	result := BatchResult{
		Refunds: make([]*Refund, 0, len(entries)),
		Errors:  make([]BatchError, 0),
	}
	for _, res := range results {
		if res.refund != nil {
			result.Refunds = append(result.Refunds, res.refund)
		}
		result.Errors = append(result.Errors, res.errs...)
	}
	return result
}

func (o *Orchestrator) processEntry(ctx context.Context, index int, entry BatchEntry) (*Refund, []BatchError) {
	fail := func(code, message string) (*Refund, []BatchError) {
		o.reject(code)
		return nil, []BatchError{{
			Index:   index,
			OrderID: entry.OrderID.String(),
			Code:    code,
			Message: message,
		}}
	}

	ord, err := o.orders.GetWithItems(ctx, entry.OrderID)
	if err != nil {
		return fail(CodeOrderNotFound, err.Error())
	}

	paid, err := o.payments.HasPaid(ctx, entry.OrderID)
	if err != nil {
		return fail(CodeOrderNotPaid, err.Error())
	}
	if !paid {
		return fail(CodeOrderNotPaid, fmt.Sprintf("%v: %s", ErrOrderNotPaid, entry.OrderID))
	}

	seen := make(map[uuid.UUID]bool, len(entry.Items))
	for _, item := range entry.Items {
		if seen[item.OrderItemID] {
			return fail(CodeDuplicateOrderItemID,
				fmt.Sprintf("%v: %s", ErrDuplicateOrderItem, item.OrderItemID))
		}
		seen[item.OrderItemID] = true

		if item.Quantity <= 0 {
			return fail(CodeInvalidQuantity,
				fmt.Sprintf("quantity must be positive, got %d", item.Quantity))
		}
	}

	confirmed, err := o.refunds.ListConfirmedByOrder(ctx, entry.OrderID)
	if err != nil {
		return fail(CodeCreateFailed, err.Error())
	}

	refund := &Refund{
		OrderID: entry.OrderID,
		Status:  StatusDraft,
	}
	for _, item := range entry.Items {
		orderItem := ord.ItemByID(item.OrderItemID)
		if orderItem == nil {
			return fail(CodeOrderItemNotFound,
				fmt.Sprintf("%v: %s", ErrOrderItemNotFound, item.OrderItemID))
		}

		if err := ValidateQuantity(orderItem, item.Quantity, confirmed); err != nil {
			return fail(CodeQuantityExceeded, err.Error())
		}

		// Row totals are unit price times the requested quantity, not
		// the order's original row total.
		qty := decimalFromInt(item.Quantity)
		refund.Items = append(refund.Items, RefundItem{
			OrderItemID: item.OrderItemID,
			Quantity:    item.Quantity,
			PriceNet:    orderItem.PriceNet.Mul(qty),
			PriceVat:    orderItem.PriceVat.Mul(qty),
			PriceGross:  orderItem.PriceGross.Mul(qty),
		})
	}

	if err := o.refunds.Create(ctx, refund); err != nil {
		o.logger.Error("refund draft creation failed",
			zap.String("order_id", entry.OrderID.String()), zap.Error(err))
		return fail(CodeCreateFailed, "refund creation failed")
	}

	if o.metrics != nil {
		o.metrics.RefundsCreatedTotal.Inc()
	}
	return refund, nil
}

func (o *Orchestrator) reject(code string) {
	if o.metrics != nil {
		o.metrics.RecordRefundRejected(code)
	}
}
