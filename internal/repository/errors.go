package repository

import "errors"

var (
	// ErrStockInsuficiente: a conditional stock decrement matched no row.
	ErrStockInsuficiente = errors.New("stock insuficiente")
	// ErrLimiteCupon: the coupon reached its usage limit before the increment.
	ErrLimiteCupon = errors.New("el cupón alcanzó su límite de usos")
)
