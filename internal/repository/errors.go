package repository

import "errors"

var (
	// ErrNotFound means the lookup matched no row. Infrastructure failures
	// (connection refused, timeouts) pass through unwrapped so callers can
	// tell "does not exist" apart from "could not ask".
	ErrNotFound = errors.New("registro no encontrado")

	// ErrStockInsuficiente is raised inside a finalize transaction when a
	// movement would drive stock below zero.
	ErrStockInsuficiente = errors.New("stock insuficiente")
)
