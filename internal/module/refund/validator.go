package refund

import (
	"fmt"

	"github.com/commercekit/checkout/internal/module/order"
	"github.com/google/uuid"
)

// RefundedQuantity sums the already refunded quantity for an order
// item across the given confirmed refunds. Draft refunds must not be
// passed in: only confirmed refunds reserve quantity.
func RefundedQuantity(confirmed []Refund, orderItemID uuid.UUID) int {
	total := 0
	for _, r := range confirmed {
		for _, item := range r.Items {
			if item.OrderItemID == orderItemID {
				total += item.Quantity
			}
		}
	}
	return total
}

// ValidateQuantity checks the conservation invariant for one order
// item: the requested quantity plus everything already confirmed must
// not exceed the originally ordered quantity.
func ValidateQuantity(item *order.OrderItem, requested int, confirmed []Refund) error {
	refundedSoFar := RefundedQuantity(confirmed, item.ID)
	if requested+refundedSoFar > item.Quantity {
		return fmt.Errorf(
			"%w: refunded quantity (now: %d, previously: %d) cannot exceed order item %s quantity %d",
			ErrQuantityExceeded, requested, refundedSoFar, item.ID, item.Quantity,
		)
	}
	return nil
}
