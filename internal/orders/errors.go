package orders

import "errors"

var (
	ErrEmptyOrder        = errors.New("order must contain at least one item")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOrderExists       = errors.New("order number already exists")
)
