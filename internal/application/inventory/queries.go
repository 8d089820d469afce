package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/fabritex/stock-api/internal/domain"
	"github.com/fabritex/stock-api/internal/domain/entity"
	"github.com/fabritex/stock-api/internal/domain/repository"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// QueryUseCase lado de lectura del libro de inventario: consulta de stock,
// historial de movimientos, stock bajo/agotado y conciliación por replay.
// Lee sin bloquear filas; los reportes pueden observar un registro en vuelo
// si el aislamiento del storage es más débil que el de los motores.
type QueryUseCase struct {
	invRepo repository.InventoryRepository
	movRepo repository.MovementRepository
}

// NewQueryUseCase construye el caso de uso de lectura.
func NewQueryUseCase(invRepo repository.InventoryRepository, movRepo repository.MovementRepository) *QueryUseCase {
	return &QueryUseCase{invRepo: invRepo, movRepo: movRepo}
}

// GetInventory devuelve el registro del par (producto, ubicación) o ErrNotFound.
func (uc *QueryUseCase) GetInventory(ctx context.Context, productID string, loc entity.Location) (*entity.InventoryRecord, error) {
	if !loc.Kind.Valid() || loc.ID == "" || productID == "" {
		return nil, domain.ErrInvalidInput
	}
	record, err := uc.invRepo.Lookup(ctx, productID, loc)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

// GetMovements historial paginado de un registro, ordenado por fecha
// descendente. page inicia en 1; pageSize se acota a [1, 200].
func (uc *QueryUseCase) GetMovements(ctx context.Context, inventoryRecordID string, page, pageSize int) ([]*entity.MovementEntry, error) {
	if inventoryRecordID == "" {
		return nil, domain.ErrInvalidInput
	}
	record, err := uc.invRepo.GetByID(ctx, inventoryRecordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return uc.movRepo.ListByRecord(ctx, inventoryRecordID, pageSize, (page-1)*pageSize)
}

// ListByLocation reporte de stock de una ubicación, paginado.
func (uc *QueryUseCase) ListByLocation(ctx context.Context, loc entity.Location, limit, offset int) ([]*entity.InventoryRecord, error) {
	if !loc.Kind.Valid() || loc.ID == "" {
		return nil, domain.ErrInvalidInput
	}
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return uc.invRepo.ListByLocation(ctx, loc, limit, offset)
}

// ListMovementsByLocation movimientos de una ubicación en un rango de fechas.
func (uc *QueryUseCase) ListMovementsByLocation(ctx context.Context, loc entity.Location, from, to *time.Time, limit, offset int) ([]*entity.MovementEntry, error) {
	if !loc.Kind.Valid() || loc.ID == "" {
		return nil, domain.ErrInvalidInput
	}
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return uc.movRepo.ListByLocation(ctx, loc, from, to, limit, offset)
}

// ListLowStock registros con 0 < total <= umbral. threshold nil usa el umbral
// de reorden de cada registro (default 5); loc nil considera todas las
// ubicaciones. El filtrado corre en la consulta, no en memoria.
func (uc *QueryUseCase) ListLowStock(ctx context.Context, loc *entity.Location, threshold *int) ([]repository.LowStockItem, error) {
	if loc != nil && (!loc.Kind.Valid() || loc.ID == "") {
		return nil, domain.ErrInvalidInput
	}
	if threshold != nil && *threshold < 1 {
		return nil, domain.ErrInvalidInput
	}
	return uc.invRepo.ListLowStock(ctx, loc, threshold)
}

// ListOutOfStock registros con total == 0.
func (uc *QueryUseCase) ListOutOfStock(ctx context.Context, loc *entity.Location) ([]*entity.InventoryRecord, error) {
	if loc != nil && (!loc.Kind.Valid() || loc.ID == "") {
		return nil, domain.ErrInvalidInput
	}
	return uc.invRepo.ListOutOfStock(ctx, loc)
}

// SizeDiff divergencia de una talla entre el stock recalculado y el persistido.
type SizeDiff struct {
	Computed int `json:"computed"`
	Current  int `json:"current"`
}

// ReconciliationReport resultado del replay del historial de un registro.
type ReconciliationReport struct {
	InventoryRecordID string              `json:"inventory_record_id"`
	MovementCount     int                 `json:"movement_count"`
	Consistent        bool                `json:"consistent"`
	Computed          entity.StockMap     `json:"computed"`
	Current           entity.StockMap     `json:"current"`
	Differences       map[string]SizeDiff `json:"differences,omitempty"`
}

// Reconcile reconstruye el stock de un registro aplicando en orden cronológico
// los deltas de todos sus movimientos desde un mapa vacío, y lo compara con el
// stock persistido. Ley de replay: ambos deben coincidir exactamente.
func (uc *QueryUseCase) Reconcile(ctx context.Context, inventoryRecordID string) (*ReconciliationReport, error) {
	if inventoryRecordID == "" {
		return nil, domain.ErrInvalidInput
	}
	record, err := uc.invRepo.GetByID(ctx, inventoryRecordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	entries, err := uc.movRepo.ListByRecordAsc(ctx, inventoryRecordID)
	if err != nil {
		return nil, err
	}

	// Acumulación cruda (permite negativos intermedios para poder reportar
	// un historial corrupto en vez de fallar a mitad del replay)
	acc := make(map[string]int)
	for _, entry := range entries {
		for size, qty := range entry.Delta {
			acc[size] += qty
		}
	}
	computed := make(entity.StockMap, len(acc))
	for size, qty := range acc {
		if qty != 0 {
			computed[size] = qty
		}
	}

	report := &ReconciliationReport{
		InventoryRecordID: inventoryRecordID,
		MovementCount:     len(entries),
		Computed:          computed,
		Current:           record.Stock.Clone(),
		Consistent:        true,
	}
	for _, size := range unionSizes(computed, record.Stock) {
		if computed[size] != record.Stock[size] {
			if report.Differences == nil {
				report.Differences = make(map[string]SizeDiff)
			}
			report.Differences[size] = SizeDiff{Computed: computed[size], Current: record.Stock[size]}
			report.Consistent = false
		}
	}
	return report, nil
}

func unionSizes(a, b entity.StockMap) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for size := range a {
		seen[size] = struct{}{}
	}
	for size := range b {
		seen[size] = struct{}{}
	}
	sizes := make([]string, 0, len(seen))
	for size := range seen {
		sizes = append(sizes, size)
	}
	sort.Strings(sizes)
	return sizes
}
