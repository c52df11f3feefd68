package payment

import "errors"

// Payment module errors.
var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrInvalidStamp    = errors.New("invalid checkout stamp")
)
