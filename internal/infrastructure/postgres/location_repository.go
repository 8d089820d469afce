package postgres

import (
	"context"
	"fmt"

	"github.com/fabritex/stock-api/internal/domain/entity"
	"github.com/fabritex/stock-api/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo verifica existencia de almacenes y sucursales.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// Exists indica si la ubicación referenciada existe.
func (r *LocationRepo) Exists(ctx context.Context, loc entity.Location) (bool, error) {
	table := "stores"
	if loc.Kind == entity.LocationBranch {
		table = "branches"
	}
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table)
	if err := r.q.QueryRow(ctx, query, loc.ID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check location: %w", err)
	}
	return exists, nil
}
