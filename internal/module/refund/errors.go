package refund

import "errors"

// Refund module errors.
var (
	ErrRefundNotFound     = errors.New("refund not found")
	ErrQuantityExceeded   = errors.New("refunded quantity exceeds order item quantity")
	ErrAlreadyConfirmed   = errors.New("refund already confirmed")
	ErrRefundNotDraft     = errors.New("refund is not in draft state")
	ErrOrderNotPaid       = errors.New("order must be paid first")
	ErrOrderItemNotFound  = errors.New("order item not found on order")
	ErrDuplicateOrder     = errors.New("duplicate orderId in batch")
	ErrDuplicateOrderItem = errors.New("duplicate orderItemId in entry")
)

// Batch validation error codes.
const (
	CodeDuplicateOrderID     = "DUPLICATE_ORDER_ID"
	CodeDuplicateOrderItemID = "DUPLICATE_ORDER_ITEM_ID"
	CodeOrderNotFound        = "ORDER_NOT_FOUND"
	CodeOrderNotPaid         = "ORDER_NOT_PAID"
	CodeOrderItemNotFound    = "ORDER_ITEM_NOT_FOUND"
	CodeQuantityExceeded     = "REFUND_QUANTITY_EXCEEDED"
	CodeInvalidQuantity      = "INVALID_QUANTITY"
	CodeCreateFailed         = "REFUND_CREATE_FAILED"
)

// BatchError is a per-entry validation error. Errors never abort
// sibling entries; they are collected and returned alongside the
// created refunds.
type BatchError struct {
	Index   int    `json:"index"`
	OrderID string `json:"orderId"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
