package inventory

import (
	"context"

	"github.com/fabritex/stock-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que la secuencia leer-validar-
// escribir-auditar de los motores sea indivisible: o aterrizan todas las
// escrituras (incluidos los dos asientos de un traslado) o ninguna.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		invRepo repository.InventoryRepository,
		movRepo repository.MovementRepository,
	) error) error
}
