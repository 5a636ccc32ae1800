package menu

import "errors"

var (
	ErrDishNotFound      = errors.New("dish not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)
