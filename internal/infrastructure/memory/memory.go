// Package memory implementa los puertos del libro de inventario sobre
// estructuras en memoria, con la misma semántica transaccional todo-o-nada
// del adaptador PostgreSQL. Se usa en los tests de casos de uso y del handler.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fabritex/stock-api/internal/application/inventory"
	"github.com/fabritex/stock-api/internal/domain"
	"github.com/fabritex/stock-api/internal/domain/entity"
	"github.com/fabritex/stock-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)
var _ repository.InventoryRepository = (*invRepo)(nil)
var _ repository.MovementRepository = (*movRepo)(nil)
var _ repository.LocationRepository = (*Store)(nil)

type storedMovement struct {
	entry *entity.MovementEntry
	seq   int
}

// Store almacén en memoria. Un mutex por Store serializa las transacciones,
// que es el equivalente funcional del bloqueo de fila del adaptador Postgres.
type Store struct {
	mu        sync.Mutex
	locations map[string]bool
	records   map[string]*entity.InventoryRecord // por id de fila
	byKey     map[string]string                  // (producto, ubicación) -> id
	movements []storedMovement
	seq       int
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{
		locations: make(map[string]bool),
		records:   make(map[string]*entity.InventoryRecord),
		byKey:     make(map[string]string),
	}
}

// AddLocation registra una ubicación existente (equivale a una fila en
// stores/branches).
func (s *Store) AddLocation(loc entity.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[loc.String()] = true
}

// Exists implementa repository.LocationRepository.
func (s *Store) Exists(_ context.Context, loc entity.Location) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locations[loc.String()], nil
}

// Run ejecuta fn como una transacción: las escrituras se acumulan en un buffer
// y solo se aplican si fn termina sin error (Commit); un error descarta todo
// (Rollback). El mutex se sostiene durante toda la transacción.
func (s *Store) Run(_ context.Context, fn func(
	invRepo repository.InventoryRepository,
	movRepo repository.MovementRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txState{
		store:         s,
		stagedRecords: make(map[string]*entity.InventoryRecord),
		stagedKeys:    make(map[string]string),
	}
	if err := fn(&invRepo{store: s, tx: tx}, &movRepo{store: s, tx: tx}); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// InventoryRepo devuelve el repositorio de lecturas (fuera de transacción).
func (s *Store) InventoryRepo() repository.InventoryRepository {
	return &invRepo{store: s}
}

// MovementRepo devuelve el libro de movimientos (fuera de transacción).
func (s *Store) MovementRepo() repository.MovementRepository {
	return &movRepo{store: s}
}

// Movements copia de todos los asientos en orden de inserción (para asserts).
func (s *Store) Movements() []*entity.MovementEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.MovementEntry, 0, len(s.movements))
	for _, m := range s.movements {
		out = append(out, cloneMovement(m.entry))
	}
	return out
}

type txState struct {
	store          *Store
	stagedRecords  map[string]*entity.InventoryRecord
	stagedKeys     map[string]string
	stagedMovement []*entity.MovementEntry
}

func (tx *txState) commit() {
	for id, rec := range tx.stagedRecords {
		tx.store.records[id] = rec
	}
	for key, id := range tx.stagedKeys {
		tx.store.byKey[key] = id
	}
	for _, m := range tx.stagedMovement {
		tx.store.seq++
		tx.store.movements = append(tx.store.movements, storedMovement{entry: m, seq: tx.store.seq})
	}
}

func recordKey(productID string, loc entity.Location) string {
	return productID + "|" + loc.String()
}

type invRepo struct {
	store *Store
	tx    *txState // nil fuera de transacción
}

func (r *invRepo) lock() func() {
	// Dentro de una transacción el mutex ya lo sostiene Run
	if r.tx != nil {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *invRepo) find(productID string, loc entity.Location) *entity.InventoryRecord {
	key := recordKey(productID, loc)
	if r.tx != nil {
		if id, ok := r.tx.stagedKeys[key]; ok {
			return r.tx.stagedRecords[id]
		}
	}
	if id, ok := r.store.byKey[key]; ok {
		if r.tx != nil {
			if staged, ok := r.tx.stagedRecords[id]; ok {
				return staged
			}
		}
		return r.store.records[id]
	}
	return nil
}

func (r *invRepo) Lookup(_ context.Context, productID string, loc entity.Location) (*entity.InventoryRecord, error) {
	defer r.lock()()
	if rec := r.find(productID, loc); rec != nil {
		return cloneRecord(rec), nil
	}
	return nil, nil
}

func (r *invRepo) LookupForUpdate(ctx context.Context, productID string, loc entity.Location) (*entity.InventoryRecord, error) {
	return r.Lookup(ctx, productID, loc)
}

func (r *invRepo) findByID(id string) *entity.InventoryRecord {
	if r.tx != nil {
		if rec, ok := r.tx.stagedRecords[id]; ok {
			return rec
		}
	}
	return r.store.records[id]
}

func (r *invRepo) GetByID(_ context.Context, id string) (*entity.InventoryRecord, error) {
	defer r.lock()()
	if rec := r.findByID(id); rec != nil {
		return cloneRecord(rec), nil
	}
	return nil, nil
}

func (r *invRepo) Create(_ context.Context, record *entity.InventoryRecord) error {
	defer r.lock()()
	// Paridad con la unique violation del adaptador Postgres: un par ya
	// existente nunca se sobreescribe
	if r.find(record.ProductID, record.Location) != nil {
		return domain.ErrConflict
	}
	key := recordKey(record.ProductID, record.Location)
	clone := cloneRecord(record)
	if r.tx != nil {
		r.tx.stagedRecords[record.ID] = clone
		r.tx.stagedKeys[key] = record.ID
		return nil
	}
	r.store.records[record.ID] = clone
	r.store.byKey[key] = record.ID
	return nil
}

func (r *invRepo) Update(_ context.Context, record *entity.InventoryRecord) error {
	defer r.lock()()
	if r.findByID(record.ID) == nil {
		return domain.ErrNotFound
	}
	clone := cloneRecord(record)
	if r.tx != nil {
		r.tx.stagedRecords[record.ID] = clone
		return nil
	}
	r.store.records[record.ID] = clone
	return nil
}

func (r *invRepo) all() []*entity.InventoryRecord {
	out := make([]*entity.InventoryRecord, 0, len(r.store.records))
	seen := make(map[string]bool)
	if r.tx != nil {
		for id, rec := range r.tx.stagedRecords {
			out = append(out, rec)
			seen[id] = true
		}
	}
	for id, rec := range r.store.records {
		if !seen[id] {
			out = append(out, rec)
		}
	}
	return out
}

func (r *invRepo) ListByLocation(_ context.Context, loc entity.Location, limit, offset int) ([]*entity.InventoryRecord, error) {
	defer r.lock()()
	var list []*entity.InventoryRecord
	for _, rec := range r.all() {
		if rec.Location.Equal(loc) {
			list = append(list, cloneRecord(rec))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return paginate(list, limit, offset), nil
}

func (r *invRepo) ListLowStock(_ context.Context, loc *entity.Location, threshold *int) ([]repository.LowStockItem, error) {
	defer r.lock()()
	var items []repository.LowStockItem
	for _, rec := range r.all() {
		if loc != nil && !rec.Location.Equal(*loc) {
			continue
		}
		total := rec.Stock.Total()
		limit := rec.EffectiveThreshold()
		if threshold != nil {
			limit = *threshold
		}
		if total > 0 && total <= limit {
			items = append(items, repository.LowStockItem{Record: cloneRecord(rec), Total: total})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Total < items[j].Total })
	return items, nil
}

func (r *invRepo) ListOutOfStock(_ context.Context, loc *entity.Location) ([]*entity.InventoryRecord, error) {
	defer r.lock()()
	var list []*entity.InventoryRecord
	for _, rec := range r.all() {
		if loc != nil && !rec.Location.Equal(*loc) {
			continue
		}
		if rec.Stock.Total() == 0 {
			list = append(list, cloneRecord(rec))
		}
	}
	return list, nil
}

type movRepo struct {
	store *Store
	tx    *txState
}

func (r *movRepo) lock() func() {
	if r.tx != nil {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *movRepo) Create(_ context.Context, entry *entity.MovementEntry) error {
	defer r.lock()()
	clone := cloneMovement(entry)
	if r.tx != nil {
		r.tx.stagedMovement = append(r.tx.stagedMovement, clone)
		return nil
	}
	r.store.seq++
	r.store.movements = append(r.store.movements, storedMovement{entry: clone, seq: r.store.seq})
	return nil
}

func (r *movRepo) collect(match func(*entity.MovementEntry) bool) []storedMovement {
	var list []storedMovement
	for _, m := range r.store.movements {
		if match(m.entry) {
			list = append(list, m)
		}
	}
	return list
}

func (r *movRepo) ListByRecord(_ context.Context, inventoryRecordID string, limit, offset int) ([]*entity.MovementEntry, error) {
	defer r.lock()()
	list := r.collect(func(m *entity.MovementEntry) bool { return m.InventoryRecordID == inventoryRecordID })
	sort.Slice(list, func(i, j int) bool {
		if !list[i].entry.CreatedAt.Equal(list[j].entry.CreatedAt) {
			return list[i].entry.CreatedAt.After(list[j].entry.CreatedAt)
		}
		return list[i].seq > list[j].seq
	})
	return paginate(cloneMovements(list), limit, offset), nil
}

func (r *movRepo) ListByRecordAsc(_ context.Context, inventoryRecordID string) ([]*entity.MovementEntry, error) {
	defer r.lock()()
	list := r.collect(func(m *entity.MovementEntry) bool { return m.InventoryRecordID == inventoryRecordID })
	sort.Slice(list, func(i, j int) bool {
		if !list[i].entry.CreatedAt.Equal(list[j].entry.CreatedAt) {
			return list[i].entry.CreatedAt.Before(list[j].entry.CreatedAt)
		}
		return list[i].seq < list[j].seq
	})
	return cloneMovements(list), nil
}

func (r *movRepo) ListByLocation(_ context.Context, loc entity.Location, from, to *time.Time, limit, offset int) ([]*entity.MovementEntry, error) {
	defer r.lock()()
	list := r.collect(func(m *entity.MovementEntry) bool {
		if !m.Location.Equal(loc) {
			return false
		}
		if from != nil && m.CreatedAt.Before(*from) {
			return false
		}
		if to != nil && m.CreatedAt.After(*to) {
			return false
		}
		return true
	})
	sort.Slice(list, func(i, j int) bool { return list[i].seq > list[j].seq })
	return paginate(cloneMovements(list), limit, offset), nil
}

func (r *movRepo) ListByCorrelation(_ context.Context, correlationID string) ([]*entity.MovementEntry, error) {
	defer r.lock()()
	list := r.collect(func(m *entity.MovementEntry) bool { return m.CorrelationID == correlationID })
	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })
	return cloneMovements(list), nil
}

func cloneRecord(r *entity.InventoryRecord) *entity.InventoryRecord {
	out := *r
	out.Stock = r.Stock.Clone()
	return &out
}

func cloneMovement(m *entity.MovementEntry) *entity.MovementEntry {
	out := *m
	out.Delta = make(map[string]int, len(m.Delta))
	for k, v := range m.Delta {
		out.Delta[k] = v
	}
	out.StockBefore = m.StockBefore.Clone()
	out.StockAfter = m.StockAfter.Clone()
	return &out
}

func cloneMovements(list []storedMovement) []*entity.MovementEntry {
	out := make([]*entity.MovementEntry, 0, len(list))
	for _, m := range list {
		out = append(out, cloneMovement(m.entry))
	}
	return out
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
