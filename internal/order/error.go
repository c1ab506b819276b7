package order

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrForbidden         = errors.New("purchaser does not match session")
	ErrEmptyItems        = errors.New("order has no items")
	ErrInvalidTotal      = errors.New("total does not match line items")
	ErrIncompleteAddress = errors.New("shipping address is incomplete")
	ErrInvalidMethod     = errors.New("unrecognized payment method")
	ErrInvalidTransition = errors.New("illegal status transition")
	ErrNotConfirmed      = errors.New("payment not confirmed by provider")
)
