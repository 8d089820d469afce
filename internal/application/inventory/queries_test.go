package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabritex/stock-api/internal/application/inventory"
	"github.com/fabritex/stock-api/internal/domain"
	"github.com/fabritex/stock-api/internal/domain/entity"
)

func TestGetInventory(t *testing.T) {
	_, ledger, queries := newFixture(t)
	seeded := seedStock(t, ledger, store1, map[string]int{"S": 4})
	ctx := context.Background()

	record, err := queries.GetInventory(ctx, productID, store1)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, record.ID)
	assert.Equal(t, entity.StockMap{"S": 4}, record.Stock)

	_, err = queries.GetInventory(ctx, "prod-otro", store1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = queries.GetInventory(ctx, "", store1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetMovements_OrdenYPaginacion(t *testing.T) {
	_, ledger, queries := newFixture(t)
	record := seedStock(t, ledger, store1, map[string]int{"S": 100})
	ctx := context.Background()

	// Cinco ajustes más sobre el mismo registro
	for i := 0; i < 5; i++ {
		_, err := ledger.AdjustStock(ctx, inventory.AdjustInput{
			Location:  store1,
			ProductID: productID,
			Delta:     map[string]int{"S": -(i + 1)},
			Reason:    "venta",
		})
		require.NoError(t, err)
	}

	all, err := queries.GetMovements(ctx, record.ID, 1, 50)
	require.NoError(t, err)
	require.Len(t, all, 6)
	// Más reciente primero: el último ajuste fue -5
	assert.Equal(t, map[string]int{"S": -5}, all[0].Delta)
	assert.Equal(t, map[string]int{"S": 100}, all[5].Delta, "la carga inicial queda al final")

	// La cadena de snapshots encadena: after de n == before de n-1
	for i := 0; i < len(all)-1; i++ {
		assert.Equal(t, all[i].StockBefore, all[i+1].StockAfter,
			"el snapshot debe encadenar entre asientos consecutivos")
	}

	page2, err := queries.GetMovements(ctx, record.ID, 2, 4)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, all[4].ID, page2[0].ID)

	// page y pageSize fuera de rango se acotan en lugar de fallar
	clamped, err := queries.GetMovements(ctx, record.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, clamped, 6)

	_, err = queries.GetMovements(ctx, "registro-inexistente", 1, 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListByLocation(t *testing.T) {
	_, ledger, queries := newFixture(t)
	ctx := context.Background()
	for _, prod := range []string{"prod-a", "prod-b"} {
		_, err := ledger.AdjustStock(ctx, inventory.AdjustInput{
			Location:  store1,
			ProductID: prod,
			Delta:     map[string]int{"S": 1},
			Reason:    "recepción",
		})
		require.NoError(t, err)
	}
	seedStock(t, ledger, branch2, map[string]int{"S": 9})

	records, err := queries.ListByLocation(ctx, store1, 0, 0)
	require.NoError(t, err)
	assert.Len(t, records, 2, "solo los registros de la ubicación pedida")

	records, err = queries.ListByLocation(ctx, branch3, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestListLowStockYOutOfStock(t *testing.T) {
	_, ledger, queries := newFixture(t)
	ctx := context.Background()

	// prod-bajo: total 3 <= umbral default 5; prod-alto: total 20; prod-agotado: 0
	mustAdjust := func(prod string, delta map[string]int) {
		_, err := ledger.AdjustStock(ctx, inventory.AdjustInput{
			Location: store1, ProductID: prod, Delta: delta, Reason: "carga",
		})
		require.NoError(t, err)
	}
	mustAdjust("prod-bajo", map[string]int{"S": 2, "M": 1})
	mustAdjust("prod-alto", map[string]int{"S": 20})
	mustAdjust("prod-agotado", map[string]int{"S": 4})
	mustAdjust("prod-agotado", map[string]int{"S": -4})

	low, err := queries.ListLowStock(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "prod-bajo", low[0].Record.ProductID)
	assert.Equal(t, 3, low[0].Total)

	// Umbral explícito más alto arrastra también a prod-alto
	threshold := 25
	low, err = queries.ListLowStock(ctx, nil, &threshold)
	require.NoError(t, err)
	assert.Len(t, low, 2, "el agotado nunca aparece en stock bajo")

	loc := store1
	out, err := queries.ListOutOfStock(ctx, &loc)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "prod-agotado", out[0].ProductID)
	assert.Equal(t, 0, out[0].Stock.Total())

	badThreshold := 0
	_, err = queries.ListLowStock(ctx, nil, &badThreshold)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Ley de replay: partir de un mapa vacío y aplicar los deltas del historial en
// orden cronológico reproduce exactamente el stock persistido.
func TestReconcile_ReplayDelHistorial(t *testing.T) {
	_, ledger, queries := newFixture(t)
	ctx := context.Background()

	origin := seedStock(t, ledger, store1, map[string]int{"S": 10, "M": 5})
	_, err := ledger.AdjustStock(ctx, inventory.AdjustInput{
		Location: store1, ProductID: productID,
		Delta: map[string]int{"S": -2, "L": 4}, Reason: "conteo",
	})
	require.NoError(t, err)
	result, err := ledger.TransferStock(ctx, inventory.TransferInput{
		Origin: store1, Destination: branch2, ProductID: productID,
		Quantity: map[string]int{"S": 3, "L": 1}, Reason: "reposición",
	})
	require.NoError(t, err)

	for _, recordID := range []string{origin.ID, result.Destination.ID} {
		report, err := queries.Reconcile(ctx, recordID)
		require.NoError(t, err)
		assert.True(t, report.Consistent, "el replay debe cerrar contra el stock actual")
		assert.Empty(t, report.Differences)
		assert.Equal(t, report.Current, report.Computed)
	}

	report, err := queries.Reconcile(ctx, origin.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, report.MovementCount)
	assert.Equal(t, entity.StockMap{"S": 5, "M": 5, "L": 3}, report.Computed)

	_, err = queries.Reconcile(ctx, "registro-inexistente")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReconcile_DetectaDivergencia(t *testing.T) {
	mem, ledger, queries := newFixture(t)
	ctx := context.Background()
	record := seedStock(t, ledger, store1, map[string]int{"S": 10})

	// Simula una mutación fuera del libro: escritura directa sin asiento
	record.Stock = entity.StockMap{"S": 7}
	require.NoError(t, mem.InventoryRepo().Update(ctx, record))

	report, err := queries.Reconcile(ctx, record.ID)
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	require.Contains(t, report.Differences, "S")
	assert.Equal(t, 10, report.Differences["S"].Computed)
	assert.Equal(t, 7, report.Differences["S"].Current)
}

func TestListMovementsByLocation(t *testing.T) {
	_, ledger, queries := newFixture(t)
	ctx := context.Background()
	seedStock(t, ledger, store1, map[string]int{"S": 10})
	_, err := ledger.TransferStock(ctx, inventory.TransferInput{
		Origin: store1, Destination: branch2, ProductID: productID,
		Quantity: map[string]int{"S": 2}, Reason: "reposición",
	})
	require.NoError(t, err)

	// El asiento TRANSFER_IN pertenece al destino, no al origen
	origin, err := queries.ListMovementsByLocation(ctx, store1, nil, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, origin, 2)
	assert.Equal(t, entity.MovementTransferOut, origin[0].Type, "más reciente primero")

	dest, err := queries.ListMovementsByLocation(ctx, branch2, nil, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, dest, 1)
	assert.Equal(t, entity.MovementTransferIn, dest[0].Type)
}
