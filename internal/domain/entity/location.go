package entity

import "fmt"

// LocationKind distingue los dos tipos de ubicación de inventario.
type LocationKind string

const (
	// LocationStore almacén principal (fábrica/bodega central) de la empresa.
	LocationStore LocationKind = "STORE"
	// LocationBranch sucursal de venta que pertenece a un almacén.
	LocationBranch LocationKind = "BRANCH"
)

// Valid indica si el kind es uno de los soportados.
func (k LocationKind) Valid() bool {
	return k == LocationStore || k == LocationBranch
}

// Location identifica una ubicación de inventario como variante etiquetada (kind + id).
// Una sucursal referencia a su almacén padre en el esquema, pero eso es informativo:
// el libro de inventario solo distingue por (kind, id).
type Location struct {
	Kind LocationKind
	ID   string
}

// Equal compara dos ubicaciones por (kind, id).
func (l Location) Equal(other Location) bool {
	return l.Kind == other.Kind && l.ID == other.ID
}

// String representación legible para logs y errores.
func (l Location) String() string {
	return fmt.Sprintf("%s/%s", l.Kind, l.ID)
}
