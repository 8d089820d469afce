package repository

import (
	"context"

	"github.com/fabritex/stock-api/internal/domain/entity"
)

// LowStockItem resultado crudo de las consultas de stock bajo / agotado.
type LowStockItem struct {
	Record *entity.InventoryRecord
	Total  int
}

// InventoryRepository resuelve registros de inventario sobre los dos agregados
// de almacenamiento (almacén y sucursal). Es el único punto que ramifica por
// kind de ubicación: los motores de ajuste y traslado se escriben una sola vez.
type InventoryRepository interface {
	// Lookup devuelve el registro del par (producto, ubicación) o nil si no existe.
	Lookup(ctx context.Context, productID string, loc entity.Location) (*entity.InventoryRecord, error)
	// LookupForUpdate igual que Lookup pero bloquea la fila (SELECT FOR UPDATE).
	// Usar solo dentro de una transacción.
	LookupForUpdate(ctx context.Context, productID string, loc entity.Location) (*entity.InventoryRecord, error)
	// GetByID devuelve el registro por su id de fila, o nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.InventoryRecord, error)
	// Create inserta el registro del par (producto, ubicación). Si otra
	// transacción creó el par primero, la violación del índice único sube como
	// domain.ErrConflict y el caller reintenta; nunca se fusionan dos
	// creaciones en silencio.
	Create(ctx context.Context, record *entity.InventoryRecord) error
	// Update persiste stock y umbral de un registro existente, ya bloqueado
	// por LookupForUpdate en la misma transacción.
	Update(ctx context.Context, record *entity.InventoryRecord) error
	// ListByLocation reporte de stock de una ubicación, paginado.
	ListByLocation(ctx context.Context, loc entity.Location, limit, offset int) ([]*entity.InventoryRecord, error)

	// ListLowStock registros con 0 < total(stock) <= umbral. Si threshold es nil
	// se usa el umbral de reorden de cada registro (o el default). Si loc es nil
	// se consideran todas las ubicaciones. El predicado se evalúa en la consulta,
	// no en memoria.
	ListLowStock(ctx context.Context, loc *entity.Location, threshold *int) ([]LowStockItem, error)
	// ListOutOfStock registros con total(stock) == 0.
	ListOutOfStock(ctx context.Context, loc *entity.Location) ([]*entity.InventoryRecord, error)
}
