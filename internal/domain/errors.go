package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrSameLocation    = errors.New("origen y destino son la misma ubicación")
	ErrConflict        = errors.New("conflicto con el estado actual")
	ErrInvalidStockMap = errors.New("mapa de stock inválido")

	// ErrInsufficientStock sentinel para matchear con errors.Is; el error
	// concreto es InsufficientStockError, que nombra la talla afectada.
	ErrInsufficientStock = errors.New("stock insuficiente")
)

// InsufficientStockError indica que un decremento dejaría una talla por debajo
// de cero. Siempre nombra la talla para que el caller muestre un mensaje útil.
type InsufficientStockError struct {
	Size string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para la talla %q", e.Size)
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
