package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fabritex/stock-api/internal/domain"
	"github.com/fabritex/stock-api/internal/domain/entity"
	"github.com/fabritex/stock-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

// InventoryRepo resolver de registros de inventario sobre PostgreSQL.
// Los dos kinds de ubicación viven en tablas distintas (store_inventory y
// branch_inventory) con semántica idéntica de StockMap; este adaptador es el
// único punto que ramifica por kind. Usable con pool o tx (Querier).
type InventoryRepo struct {
	q Querier
}

// NewInventoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

// tableFor devuelve tabla y columna de ubicación según el kind.
func tableFor(kind entity.LocationKind) (table, locColumn string) {
	if kind == entity.LocationStore {
		return "store_inventory", "store_id"
	}
	return "branch_inventory", "branch_id"
}

// Lookup obtiene el registro del par (producto, ubicación); nil si no existe.
func (r *InventoryRepo) Lookup(ctx context.Context, productID string, loc entity.Location) (*entity.InventoryRecord, error) {
	return r.lookup(ctx, productID, loc, false)
}

// LookupForUpdate igual que Lookup pero bloquea la fila (SELECT FOR UPDATE).
// Solo tiene sentido dentro de una transacción.
func (r *InventoryRepo) LookupForUpdate(ctx context.Context, productID string, loc entity.Location) (*entity.InventoryRecord, error) {
	return r.lookup(ctx, productID, loc, true)
}

func (r *InventoryRepo) lookup(ctx context.Context, productID string, loc entity.Location, forUpdate bool) (*entity.InventoryRecord, error) {
	table, locColumn := tableFor(loc.Kind)
	query := fmt.Sprintf(`
		SELECT id, %s, product_id, stock, reorder_threshold, created_at, updated_at
		FROM %s WHERE %s = $1 AND product_id = $2`, locColumn, table, locColumn)
	if forUpdate {
		query += " FOR UPDATE"
	}
	record, err := scanRecord(r.q.QueryRow(ctx, query, loc.ID, productID), loc.Kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup inventory record: %w", err)
	}
	return record, nil
}

// GetByID busca el registro por id de fila en ambas tablas; nil si no existe.
func (r *InventoryRepo) GetByID(ctx context.Context, id string) (*entity.InventoryRecord, error) {
	for _, kind := range []entity.LocationKind{entity.LocationStore, entity.LocationBranch} {
		table, locColumn := tableFor(kind)
		query := fmt.Sprintf(`
			SELECT id, %s, product_id, stock, reorder_threshold, created_at, updated_at
			FROM %s WHERE id = $1`, locColumn, table)
		record, err := scanRecord(r.q.QueryRow(ctx, query, id), kind)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("get inventory record: %w", err)
		}
		return record, nil
	}
	return nil, nil
}

// Create inserta el registro del par (producto, ubicación). Sin cláusula de
// conflicto a propósito: si otra transacción creó el par primero, el INSERT
// falla con unique violation (23505), que el tx runner traduce a
// domain.ErrConflict para que el caller reintente. Un DO UPDATE aquí fusionaría
// en silencio dos creaciones concurrentes y perdería el primer delta.
func (r *InventoryRepo) Create(ctx context.Context, record *entity.InventoryRecord) error {
	table, locColumn := tableFor(record.Location.Kind)
	stock, err := json.Marshal(record.Stock)
	if err != nil {
		return fmt.Errorf("serialize stock: %w", err)
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, %s, product_id, stock, reorder_threshold, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, table, locColumn)
	_, err = r.q.Exec(ctx, query,
		record.ID, record.Location.ID, record.ProductID, stock,
		record.ReorderThreshold, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create inventory record: %w", err)
	}
	return nil
}

// Update persiste stock y umbral de un registro existente. La fila ya está
// bloqueada por LookupForUpdate dentro de la misma transacción.
func (r *InventoryRepo) Update(ctx context.Context, record *entity.InventoryRecord) error {
	table, _ := tableFor(record.Location.Kind)
	stock, err := json.Marshal(record.Stock)
	if err != nil {
		return fmt.Errorf("serialize stock: %w", err)
	}
	query := fmt.Sprintf(`
		UPDATE %s SET stock = $1, reorder_threshold = $2, updated_at = $3
		WHERE id = $4`, table)
	tag, err := r.q.Exec(ctx, query, stock, record.ReorderThreshold, record.UpdatedAt, record.ID)
	if err != nil {
		return fmt.Errorf("update inventory record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByLocation reporte de stock de una ubicación, paginado.
func (r *InventoryRepo) ListByLocation(ctx context.Context, loc entity.Location, limit, offset int) ([]*entity.InventoryRecord, error) {
	table, locColumn := tableFor(loc.Kind)
	query := fmt.Sprintf(`
		SELECT id, %s, product_id, stock, reorder_threshold, created_at, updated_at
		FROM %s WHERE %s = $1
		ORDER BY updated_at DESC LIMIT $2 OFFSET $3`, locColumn, table, locColumn)
	rows, err := r.q.Query(ctx, query, loc.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list inventory by location: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryRecord
	for rows.Next() {
		record, err := scanRecord(rows, loc.Kind)
		if err != nil {
			return nil, fmt.Errorf("scan inventory record: %w", err)
		}
		list = append(list, record)
	}
	return list, rows.Err()
}

// inventoryUnion subconsulta que unifica ambas tablas con su kind etiquetado.
const inventoryUnion = `
	SELECT id, 'STORE' AS kind, store_id AS location_id, product_id, stock, reorder_threshold, created_at, updated_at
	FROM store_inventory
	UNION ALL
	SELECT id, 'BRANCH' AS kind, branch_id AS location_id, product_id, stock, reorder_threshold, created_at, updated_at
	FROM branch_inventory`

// ListLowStock registros con 0 < total(stock) <= umbral. El total por fila se
// calcula en SQL sumando los valores del JSONB; el predicado no corre en memoria.
// threshold nil usa el umbral de reorden del registro (o el default 5).
func (r *InventoryRepo) ListLowStock(ctx context.Context, loc *entity.Location, threshold *int) ([]repository.LowStockItem, error) {
	query := `
		SELECT i.id, i.kind, i.location_id, i.product_id, i.stock, i.reorder_threshold, i.created_at, i.updated_at, t.total
		FROM (` + inventoryUnion + `) i,
		LATERAL (SELECT COALESCE(SUM(v.value::int), 0) AS total FROM jsonb_each_text(i.stock) v) t
		WHERE t.total > 0
		  AND t.total <= COALESCE($1, NULLIF(i.reorder_threshold, 0), $2)`
	args := []any{threshold, entity.DefaultReorderThreshold}
	if loc != nil {
		query += " AND i.kind = $3 AND i.location_id = $4"
		args = append(args, string(loc.Kind), loc.ID)
	}
	query += " ORDER BY t.total ASC, i.updated_at DESC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()
	var items []repository.LowStockItem
	for rows.Next() {
		record, total, err := scanUnionRecord(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan low stock item: %w", err)
		}
		items = append(items, repository.LowStockItem{Record: record, Total: total})
	}
	return items, rows.Err()
}

// ListOutOfStock registros con total(stock) == 0.
func (r *InventoryRepo) ListOutOfStock(ctx context.Context, loc *entity.Location) ([]*entity.InventoryRecord, error) {
	query := `
		SELECT i.id, i.kind, i.location_id, i.product_id, i.stock, i.reorder_threshold, i.created_at, i.updated_at
		FROM (` + inventoryUnion + `) i,
		LATERAL (SELECT COALESCE(SUM(v.value::int), 0) AS total FROM jsonb_each_text(i.stock) v) t
		WHERE t.total = 0`
	var args []any
	if loc != nil {
		query += " AND i.kind = $1 AND i.location_id = $2"
		args = append(args, string(loc.Kind), loc.ID)
	}
	query += " ORDER BY i.updated_at DESC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list out of stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryRecord
	for rows.Next() {
		record, _, err := scanUnionRecord(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan out of stock record: %w", err)
		}
		list = append(list, record)
	}
	return list, rows.Err()
}

// scanRecord lee una fila de una tabla de kind conocido.
func scanRecord(row pgx.Row, kind entity.LocationKind) (*entity.InventoryRecord, error) {
	var rec entity.InventoryRecord
	var stockRaw []byte
	rec.Location.Kind = kind
	if err := row.Scan(&rec.ID, &rec.Location.ID, &rec.ProductID, &stockRaw,
		&rec.ReorderThreshold, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	stock, err := entity.ParseStockMap(stockRaw)
	if err != nil {
		return nil, err
	}
	rec.Stock = stock
	return &rec, nil
}

// scanUnionRecord lee una fila de la subconsulta unificada (kind como columna).
func scanUnionRecord(row pgx.Row, withTotal bool) (*entity.InventoryRecord, int, error) {
	var rec entity.InventoryRecord
	var kind string
	var stockRaw []byte
	var total int
	dest := []any{&rec.ID, &kind, &rec.Location.ID, &rec.ProductID, &stockRaw,
		&rec.ReorderThreshold, &rec.CreatedAt, &rec.UpdatedAt}
	if withTotal {
		dest = append(dest, &total)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, 0, err
	}
	rec.Location.Kind = entity.LocationKind(kind)
	stock, err := entity.ParseStockMap(stockRaw)
	if err != nil {
		return nil, 0, err
	}
	rec.Stock = stock
	return &rec, total, nil
}
