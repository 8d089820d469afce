package entity

import "time"

// Tipos de movimiento de inventario. SALE_OUT, PURCHASE_IN y PRODUCTION_IN los
// escriben colaboradores externos (checkout, recepción de compra, cierre de
// producción) a través del mismo motor de ajuste.
const (
	MovementAdjustIn     = "ADJUST_IN"
	MovementAdjustOut    = "ADJUST_OUT"
	MovementTransferOut  = "TRANSFER_OUT"
	MovementTransferIn   = "TRANSFER_IN"
	MovementSaleOut      = "SALE_OUT"
	MovementPurchaseIn   = "PURCHASE_IN"
	MovementProductionIn = "PRODUCTION_IN"
)

// ValidMovementType indica si el tipo es uno de los conocidos.
func ValidMovementType(t string) bool {
	switch t {
	case MovementAdjustIn, MovementAdjustOut, MovementTransferOut,
		MovementTransferIn, MovementSaleOut, MovementPurchaseIn, MovementProductionIn:
		return true
	}
	return false
}

// MovementEntry registro inmutable de una mutación de stock (append-only, nunca
// se actualiza ni se borra). Guarda snapshot completo antes/después para que el
// historial sea auditable y reproducible por replay.
type MovementEntry struct {
	ID                string
	InventoryRecordID string
	ProductID         string
	Location          Location
	Type              string
	Delta             map[string]int // cantidades firmadas por talla
	StockBefore       StockMap
	StockAfter        StockMap
	Reason            string
	ActorID           string
	CorrelationID     string // enlaza los dos asientos de un traslado
	CreatedAt         time.Time
}
