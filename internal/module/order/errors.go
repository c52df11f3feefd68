package order

import "errors"

// Order module errors.
var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrMerchantUnresolvable  = errors.New("merchant not resolvable from order")
	ErrOrderAlreadyAccounted = errors.New("order already accounted")
)
