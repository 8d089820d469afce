package entity

import "time"

// DefaultReorderThreshold umbral de reorden cuando el registro no define uno.
const DefaultReorderThreshold = 5

// InventoryRecord stock actual de un producto en una ubicación, desglosado por talla.
// Identidad única: (ProductID, Location). Se crea al primer ajuste/traslado que toque
// el par o de forma explícita vía el setup. No se borra mientras
// existan movimientos que lo referencien.
type InventoryRecord struct {
	ID               string
	ProductID        string
	Location         Location
	Stock            StockMap
	ReorderThreshold int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EffectiveThreshold umbral a usar en la clasificación de stock bajo.
func (r *InventoryRecord) EffectiveThreshold() int {
	if r.ReorderThreshold > 0 {
		return r.ReorderThreshold
	}
	return DefaultReorderThreshold
}
