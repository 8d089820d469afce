package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fabritex/stock-api/internal/domain/entity"
	"github.com/fabritex/stock-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx).
// Solo inserta y lee: la tabla inventory_movements no tiene camino de UPDATE
// ni DELETE en el código.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, inventory_record_id, product_id, location_kind, location_id, type,
		delta, stock_before, stock_after, reason, actor_id, correlation_id, created_at`

// Create persiste un asiento del libro (append-only).
func (r *MovementRepo) Create(ctx context.Context, entry *entity.MovementEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	delta, err := json.Marshal(entry.Delta)
	if err != nil {
		return fmt.Errorf("serialize delta: %w", err)
	}
	before, err := json.Marshal(entry.StockBefore)
	if err != nil {
		return fmt.Errorf("serialize stock_before: %w", err)
	}
	after, err := json.Marshal(entry.StockAfter)
	if err != nil {
		return fmt.Errorf("serialize stock_after: %w", err)
	}
	actorID := (*string)(nil)
	if entry.ActorID != "" {
		actorID = &entry.ActorID
	}
	query := `
		INSERT INTO inventory_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = r.q.Exec(ctx, query,
		entry.ID, entry.InventoryRecordID, entry.ProductID,
		string(entry.Location.Kind), entry.Location.ID, entry.Type,
		delta, before, after, entry.Reason, actorID, entry.CorrelationID, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// ListByRecord movimientos de un registro, paginados, más recientes primero.
func (r *MovementRepo) ListByRecord(ctx context.Context, inventoryRecordID string, limit, offset int) ([]*entity.MovementEntry, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM inventory_movements WHERE inventory_record_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, inventoryRecordID, limit, offset)
}

// ListByRecordAsc historial completo de un registro en orden cronológico
// (para el replay de conciliación).
func (r *MovementRepo) ListByRecordAsc(ctx context.Context, inventoryRecordID string) ([]*entity.MovementEntry, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM inventory_movements WHERE inventory_record_id = $1
		ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, inventoryRecordID)
}

// ListByLocation movimientos de una ubicación en un rango de fechas.
func (r *MovementRepo) ListByLocation(ctx context.Context, loc entity.Location, from, to *time.Time, limit, offset int) ([]*entity.MovementEntry, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM inventory_movements WHERE location_kind = $1 AND location_id = $2`
	args := []any{string(loc.Kind), loc.ID}
	pos := 3
	if from != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)
	return r.list(ctx, query, args...)
}

// ListByCorrelation los asientos que comparten correlation id (un traslado).
func (r *MovementRepo) ListByCorrelation(ctx context.Context, correlationID string) ([]*entity.MovementEntry, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM inventory_movements WHERE correlation_id = $1
		ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, correlationID)
}

func (r *MovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.MovementEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.MovementEntry
	for rows.Next() {
		entry, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, entry)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.MovementEntry, error) {
	var m entity.MovementEntry
	var kind string
	var deltaRaw, beforeRaw, afterRaw []byte
	var actorID *string
	if err := row.Scan(&m.ID, &m.InventoryRecordID, &m.ProductID, &kind, &m.Location.ID,
		&m.Type, &deltaRaw, &beforeRaw, &afterRaw, &m.Reason, &actorID,
		&m.CorrelationID, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Location.Kind = entity.LocationKind(kind)
	if actorID != nil {
		m.ActorID = *actorID
	}
	// El delta lleva cantidades firmadas; no pasa por la validación de StockMap
	if err := json.Unmarshal(deltaRaw, &m.Delta); err != nil {
		return nil, fmt.Errorf("deserialize delta: %w", err)
	}
	before, err := entity.ParseStockMap(beforeRaw)
	if err != nil {
		return nil, err
	}
	after, err := entity.ParseStockMap(afterRaw)
	if err != nil {
		return nil, err
	}
	m.StockBefore = before
	m.StockAfter = after
	return &m, nil
}
