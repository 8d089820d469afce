package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fabritex/stock-api/internal/domain"
	"github.com/fabritex/stock-api/internal/domain/entity"
	"github.com/fabritex/stock-api/internal/domain/repository"
)

// LedgerUseCase motores de ajuste y traslado del libro de inventario.
// Toda mutación corre dentro de una transacción con bloqueo de fila
// (SELECT FOR UPDATE) y deja exactamente un asiento de movimiento por
// registro tocado; Commit o Rollback completo, nunca estado intermedio.
type LedgerUseCase struct {
	txRunner     TxRunner
	locationRepo repository.LocationRepository
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(txRunner TxRunner, locationRepo repository.LocationRepository) *LedgerUseCase {
	return &LedgerUseCase{txRunner: txRunner, locationRepo: locationRepo}
}

// AdjustInput entrada para ajustar stock en una ubicación.
// Type vacío se clasifica como ADJUST_IN/ADJUST_OUT según el signo neto del
// delta; los colaboradores externos pasan SALE_OUT, PURCHASE_IN o PRODUCTION_IN.
type AdjustInput struct {
	Location  entity.Location
	ProductID string
	Delta     map[string]int
	Type      string
	Reason    string
	ActorID   string
}

// TransferInput entrada para trasladar stock entre dos ubicaciones.
// Todas las cantidades deben ser > 0.
type TransferInput struct {
	Origin      entity.Location
	Destination entity.Location
	ProductID   string
	Quantity    map[string]int
	Reason      string
	ActorID     string
}

// TransferResult los dos registros actualizados por un traslado.
type TransferResult struct {
	Origin      *entity.InventoryRecord
	Destination *entity.InventoryRecord
}

// SetupInput creación explícita de un registro de inventario.
type SetupInput struct {
	Location         entity.Location
	ProductID        string
	InitialStock     map[string]int
	ReorderThreshold int
	ActorID          string
}

// AdjustStock aplica un delta firmado por talla a un registro de inventario,
// dentro de una transacción:
//  1. bloquea la fila; si no existe y el delta solo decrementa → ErrNotFound;
//     si no existe y hay incrementos, crea implícito con stock vacío;
//  2. aplica el delta; si alguna talla quedaría negativa aborta con
//     InsufficientStockError (ninguna escritura ocurre);
//  3. persiste el stock nuevo;
//  4. agrega exactamente un asiento con snapshot antes/después.
func (uc *LedgerUseCase) AdjustStock(ctx context.Context, input AdjustInput) (*entity.InventoryRecord, error) {
	if err := validateAdjust(&input); err != nil {
		return nil, err
	}

	// La ubicación referenciada debe existir (almacén o sucursal)
	if err := uc.requireLocation(ctx, input.Location); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var updated *entity.InventoryRecord

	err := uc.txRunner.Run(ctx, func(
		invRepo repository.InventoryRepository,
		movRepo repository.MovementRepository,
	) error {
		record, err := invRepo.LookupForUpdate(ctx, input.ProductID, input.Location)
		if err != nil {
			return err
		}
		created := false
		if record == nil {
			if allDecrements(input.Delta) {
				return domain.ErrNotFound
			}
			// Creación implícita: primer ajuste sobre el par (producto, ubicación)
			record = newRecord(input.ProductID, input.Location, now)
			created = true
		}

		before := record.Stock.Clone()
		after, err := record.Stock.ApplyDelta(input.Delta)
		if err != nil {
			return err
		}

		record.Stock = after
		record.UpdatedAt = now
		if err := saveRecord(ctx, invRepo, record, created); err != nil {
			return err
		}

		entry := &entity.MovementEntry{
			ID:                uuid.New().String(),
			InventoryRecordID: record.ID,
			ProductID:         input.ProductID,
			Location:          input.Location,
			Type:              input.Type,
			Delta:             input.Delta,
			StockBefore:       before,
			StockAfter:        after.Clone(),
			Reason:            input.Reason,
			ActorID:           input.ActorID,
			CorrelationID:     uuid.New().String(),
			CreatedAt:         now,
		}
		if err := movRepo.Create(ctx, entry); err != nil {
			return err
		}

		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// TransferStock mueve un mapa de cantidades por talla de una ubicación a otra,
// todo-o-nada. Orden de validación estandarizado: forma del request → lookup y
// bloqueo del origen → suficiencia → existencia y lookup/creación del destino.
// Los dos asientos (TRANSFER_OUT y TRANSFER_IN) comparten un correlation id.
func (uc *LedgerUseCase) TransferStock(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if err := validateTransfer(&input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	correlationID := uuid.New().String()
	var result TransferResult

	err := uc.txRunner.Run(ctx, func(
		invRepo repository.InventoryRepository,
		movRepo repository.MovementRepository,
	) error {
		// Una ubicación no puede despachar stock que nunca recibió
		origin, err := invRepo.LookupForUpdate(ctx, input.ProductID, input.Origin)
		if err != nil {
			return err
		}
		if origin == nil {
			return domain.ErrNotFound
		}

		originBefore := origin.Stock.Clone()
		quantity := entity.StockMap(input.Quantity)
		originAfter, err := origin.Stock.ApplyDelta(quantity.Negate())
		if err != nil {
			// Stock insuficiente: el destino no se toca y no se escribe asiento
			return err
		}

		// La existencia del destino se evalúa después de la suficiencia del origen
		if err := uc.requireLocation(ctx, input.Destination); err != nil {
			return err
		}

		dest, err := invRepo.LookupForUpdate(ctx, input.ProductID, input.Destination)
		if err != nil {
			return err
		}
		destCreated := dest == nil
		if destCreated {
			dest = newRecord(input.ProductID, input.Destination, now)
		}
		destBefore := dest.Stock.Clone()
		// Siempre aplica: las cantidades son positivas
		destAfter, err := dest.Stock.ApplyDelta(input.Quantity)
		if err != nil {
			return err
		}

		origin.Stock = originAfter
		origin.UpdatedAt = now
		dest.Stock = destAfter
		dest.UpdatedAt = now
		if err := invRepo.Update(ctx, origin); err != nil {
			return err
		}
		if err := saveRecord(ctx, invRepo, dest, destCreated); err != nil {
			return err
		}

		outEntry := &entity.MovementEntry{
			ID:                uuid.New().String(),
			InventoryRecordID: origin.ID,
			ProductID:         input.ProductID,
			Location:          input.Origin,
			Type:              entity.MovementTransferOut,
			Delta:             quantity.Negate(),
			StockBefore:       originBefore,
			StockAfter:        originAfter.Clone(),
			Reason:            input.Reason,
			ActorID:           input.ActorID,
			CorrelationID:     correlationID,
			CreatedAt:         now,
		}
		if err := movRepo.Create(ctx, outEntry); err != nil {
			return err
		}
		inEntry := &entity.MovementEntry{
			ID:                uuid.New().String(),
			InventoryRecordID: dest.ID,
			ProductID:         input.ProductID,
			Location:          input.Destination,
			Type:              entity.MovementTransferIn,
			Delta:             input.Quantity,
			StockBefore:       destBefore,
			StockAfter:        destAfter.Clone(),
			Reason:            input.Reason,
			ActorID:           input.ActorID,
			CorrelationID:     correlationID,
			CreatedAt:         now,
		}
		if err := movRepo.Create(ctx, inEntry); err != nil {
			return err
		}

		result.Origin = origin
		result.Destination = dest
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SetupRecord crea explícitamente un registro de inventario con stock inicial
// y umbral de reorden. Si el stock inicial no es vacío se asienta un ADJUST_IN
// para que el replay del historial reproduzca el stock actual.
func (uc *LedgerUseCase) SetupRecord(ctx context.Context, input SetupInput) (*entity.InventoryRecord, error) {
	if !input.Location.Kind.Valid() || input.Location.ID == "" || input.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	if input.ReorderThreshold < 0 {
		return nil, domain.ErrInvalidInput
	}
	initial, err := entity.NewStockMap(input.InitialStock)
	if err != nil {
		return nil, err
	}
	if err := uc.requireLocation(ctx, input.Location); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var created *entity.InventoryRecord

	err = uc.txRunner.Run(ctx, func(
		invRepo repository.InventoryRepository,
		movRepo repository.MovementRepository,
	) error {
		existing, err := invRepo.LookupForUpdate(ctx, input.ProductID, input.Location)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrConflict
		}

		record := newRecord(input.ProductID, input.Location, now)
		if input.ReorderThreshold > 0 {
			record.ReorderThreshold = input.ReorderThreshold
		}
		record.Stock = initial
		// Un setup concurrente del mismo par choca contra el índice único y
		// sube como ErrConflict, igual que el camino de creación implícita
		if err := invRepo.Create(ctx, record); err != nil {
			return err
		}

		if len(initial) > 0 {
			entry := &entity.MovementEntry{
				ID:                uuid.New().String(),
				InventoryRecordID: record.ID,
				ProductID:         input.ProductID,
				Location:          input.Location,
				Type:              entity.MovementAdjustIn,
				Delta:             map[string]int(initial),
				StockBefore:       entity.StockMap{},
				StockAfter:        initial.Clone(),
				Reason:            "stock inicial",
				ActorID:           input.ActorID,
				CorrelationID:     uuid.New().String(),
				CreatedAt:         now,
			}
			if err := movRepo.Create(ctx, entry); err != nil {
				return err
			}
		}

		created = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (uc *LedgerUseCase) requireLocation(ctx context.Context, loc entity.Location) error {
	ok, err := uc.locationRepo.Exists(ctx, loc)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// saveRecord inserta o actualiza según si el registro nació en esta transacción.
func saveRecord(ctx context.Context, invRepo repository.InventoryRepository, record *entity.InventoryRecord, created bool) error {
	if created {
		return invRepo.Create(ctx, record)
	}
	return invRepo.Update(ctx, record)
}

// validateAdjust valida forma del request antes de cualquier escritura y
// resuelve el tipo de movimiento. Muta input.Type cuando viene vacío.
func validateAdjust(input *AdjustInput) error {
	if !input.Location.Kind.Valid() || input.Location.ID == "" || input.ProductID == "" {
		return domain.ErrInvalidInput
	}
	if len(input.Delta) == 0 {
		return domain.ErrInvalidInput
	}
	net := 0
	for _, qty := range input.Delta {
		if qty == 0 {
			return domain.ErrInvalidInput
		}
		net += qty
	}
	if input.Type != "" && !entity.ValidMovementType(input.Type) {
		return domain.ErrInvalidInput
	}

	switch input.Type {
	case "":
		if net < 0 {
			input.Type = entity.MovementAdjustOut
		} else {
			input.Type = entity.MovementAdjustIn
		}
	case entity.MovementAdjustIn, entity.MovementAdjustOut:
		// ajustes manuales: deltas firmados libres
	case entity.MovementSaleOut:
		if !allDecrements(input.Delta) {
			return domain.ErrInvalidInput
		}
	case entity.MovementPurchaseIn, entity.MovementProductionIn:
		if !allIncrements(input.Delta) {
			return domain.ErrInvalidInput
		}
	default:
		// TRANSFER_OUT/TRANSFER_IN solo los escribe el motor de traslados
		return domain.ErrInvalidInput
	}
	return nil
}

func validateTransfer(input *TransferInput) error {
	if !input.Origin.Kind.Valid() || input.Origin.ID == "" ||
		!input.Destination.Kind.Valid() || input.Destination.ID == "" ||
		input.ProductID == "" {
		return domain.ErrInvalidInput
	}
	if input.Origin.Equal(input.Destination) {
		return domain.ErrSameLocation
	}
	if len(input.Quantity) == 0 {
		return domain.ErrInvalidInput
	}
	for _, qty := range input.Quantity {
		if qty <= 0 {
			return domain.ErrInvalidInput
		}
	}
	return nil
}

func newRecord(productID string, loc entity.Location, now time.Time) *entity.InventoryRecord {
	return &entity.InventoryRecord{
		ID:               uuid.New().String(),
		ProductID:        productID,
		Location:         loc,
		Stock:            entity.StockMap{},
		ReorderThreshold: entity.DefaultReorderThreshold,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func allDecrements(delta map[string]int) bool {
	for _, qty := range delta {
		if qty >= 0 {
			return false
		}
	}
	return true
}

func allIncrements(delta map[string]int) bool {
	for _, qty := range delta {
		if qty <= 0 {
			return false
		}
	}
	return true
}
