package dto

import (
	"time"

	"github.com/fabritex/stock-api/internal/domain/entity"
)

// LocationRef referencia a una ubicación en requests/responses.
type LocationRef struct {
	Kind string `json:"kind"` // STORE | BRANCH
	ID   string `json:"id"`
}

// ToLocation convierte la referencia al tipo de dominio.
func (l LocationRef) ToLocation() entity.Location {
	return entity.Location{Kind: entity.LocationKind(l.Kind), ID: l.ID}
}

// NewLocationRef construye la referencia desde el tipo de dominio.
func NewLocationRef(loc entity.Location) LocationRef {
	return LocationRef{Kind: string(loc.Kind), ID: loc.ID}
}

// SetupRecordRequest body para POST /api/inventory/records.
type SetupRecordRequest struct {
	ProductID        string         `json:"product_id"`
	Location         LocationRef    `json:"location"`
	InitialStock     map[string]int `json:"initial_stock,omitempty"`
	ReorderThreshold int            `json:"reorder_threshold,omitempty"`
}

// AdjustStockRequest body para POST /api/inventory/adjustments.
// Delta lleva cantidades firmadas por talla; Type vacío se clasifica como
// ADJUST_IN/ADJUST_OUT según el signo neto.
type AdjustStockRequest struct {
	ProductID string         `json:"product_id"`
	Location  LocationRef    `json:"location"`
	Delta     map[string]int `json:"delta"`
	Type      string         `json:"type,omitempty"`
	Reason    string         `json:"reason"`
}

// TransferStockRequest body para POST /api/inventory/transfers.
// Todas las cantidades deben ser > 0.
type TransferStockRequest struct {
	ProductID   string         `json:"product_id"`
	Origin      LocationRef    `json:"origin"`
	Destination LocationRef    `json:"destination"`
	Quantity    map[string]int `json:"quantity"`
	Reason      string         `json:"reason"`
}

// InventoryRecordResponse registro de inventario en respuestas.
type InventoryRecordResponse struct {
	ID               string         `json:"id"`
	ProductID        string         `json:"product_id"`
	Location         LocationRef    `json:"location"`
	Stock            map[string]int `json:"stock"`
	Total            int            `json:"total"`
	ReorderThreshold int            `json:"reorder_threshold"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// NewInventoryRecordResponse mapea el registro de dominio.
func NewInventoryRecordResponse(r *entity.InventoryRecord) InventoryRecordResponse {
	return InventoryRecordResponse{
		ID:               r.ID,
		ProductID:        r.ProductID,
		Location:         NewLocationRef(r.Location),
		Stock:            r.Stock,
		Total:            r.Stock.Total(),
		ReorderThreshold: r.ReorderThreshold,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// TransferResponse los dos registros actualizados por un traslado.
type TransferResponse struct {
	Origin      InventoryRecordResponse `json:"origin"`
	Destination InventoryRecordResponse `json:"destination"`
}

// MovementEntryResponse asiento del libro de movimientos en respuestas.
type MovementEntryResponse struct {
	ID                string         `json:"id"`
	InventoryRecordID string         `json:"inventory_record_id"`
	ProductID         string         `json:"product_id"`
	Location          LocationRef    `json:"location"`
	Type              string         `json:"type"`
	Delta             map[string]int `json:"delta"`
	StockBefore       map[string]int `json:"stock_before"`
	StockAfter        map[string]int `json:"stock_after"`
	Reason            string         `json:"reason"`
	ActorID           string         `json:"actor_id,omitempty"`
	CorrelationID     string         `json:"correlation_id"`
	CreatedAt         time.Time      `json:"created_at"`
}

// NewMovementEntryResponse mapea el asiento de dominio.
func NewMovementEntryResponse(m *entity.MovementEntry) MovementEntryResponse {
	return MovementEntryResponse{
		ID:                m.ID,
		InventoryRecordID: m.InventoryRecordID,
		ProductID:         m.ProductID,
		Location:          NewLocationRef(m.Location),
		Type:              m.Type,
		Delta:             m.Delta,
		StockBefore:       m.StockBefore,
		StockAfter:        m.StockAfter,
		Reason:            m.Reason,
		ActorID:           m.ActorID,
		CorrelationID:     m.CorrelationID,
		CreatedAt:         m.CreatedAt,
	}
}

// LowStockItemResponse registro bajo umbral con su total precalculado.
type LowStockItemResponse struct {
	InventoryRecordResponse
	Threshold int `json:"threshold"`
}
