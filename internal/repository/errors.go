package repository

import "errors"

// ErrStockGuard means a conditional stock update matched no row.
var ErrStockGuard = errors.New("stock update matched no row")
