package repository

import (
	"context"
	"time"

	"github.com/fabritex/stock-api/internal/domain/entity"
)

// MovementRepository puerto de persistencia del libro de movimientos.
// Solo escritura por append: no existe Update ni Delete.
type MovementRepository interface {
	Create(ctx context.Context, entry *entity.MovementEntry) error
	// ListByRecord movimientos de un registro de inventario, paginados,
	// ordenados por fecha descendente.
	ListByRecord(ctx context.Context, inventoryRecordID string, limit, offset int) ([]*entity.MovementEntry, error)
	// ListByRecordAsc todos los movimientos de un registro en orden cronológico
	// ascendente (para el replay de conciliación).
	ListByRecordAsc(ctx context.Context, inventoryRecordID string) ([]*entity.MovementEntry, error)
	// ListByLocation movimientos de una ubicación en un rango de fechas.
	ListByLocation(ctx context.Context, loc entity.Location, from, to *time.Time, limit, offset int) ([]*entity.MovementEntry, error)
	// ListByCorrelation los asientos que comparten un correlation id (un traslado).
	ListByCorrelation(ctx context.Context, correlationID string) ([]*entity.MovementEntry, error)
}
