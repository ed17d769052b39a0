// Package prices caches daily quotes in SQLite and fills gaps from a quote provider.
package prices

import "errors"

var (
	// ErrEmptySymbol is returned when an operation is called without a symbol
	ErrEmptySymbol = errors.New("symbol is required")
	// ErrInvalidRange is returned when end is before start
	ErrInvalidRange = errors.New("end date is before start date")
)
