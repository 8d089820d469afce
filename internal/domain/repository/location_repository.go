package repository

import (
	"context"

	"github.com/fabritex/stock-api/internal/domain/entity"
)

// LocationRepository valida existencia de almacenes y sucursales. El CRUD de
// ubicaciones vive fuera del libro de inventario; aquí solo se necesita saber
// si la ubicación referenciada existe antes de crear un registro implícito.
type LocationRepository interface {
	Exists(ctx context.Context, loc entity.Location) (bool, error)
}
