package entity

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fabritex/stock-api/internal/domain"
)

// StockMap mapa disperso talla → cantidad. Invariantes:
//   - ninguna entrada es negativa;
//   - una entrada en cero no se guarda (ausencia de clave == cero);
//   - el stock total del registro es la suma de los valores.
type StockMap map[string]int

// NewStockMap construye un StockMap validado a partir de un mapa crudo.
// Rechaza valores negativos y poda los ceros.
func NewStockMap(values map[string]int) (StockMap, error) {
	m := make(StockMap, len(values))
	for size, qty := range values {
		if qty < 0 {
			return nil, fmt.Errorf("%w: cantidad negativa para talla %q", domain.ErrInvalidStockMap, size)
		}
		if qty == 0 {
			continue
		}
		m[size] = qty
	}
	return m, nil
}

// ParseStockMap deserializa un StockMap desde JSON (columna JSONB) validando
// que no haya valores negativos ni no enteros.
func ParseStockMap(data []byte) (StockMap, error) {
	if len(data) == 0 {
		return StockMap{}, nil
	}
	var raw map[string]json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidStockMap, err)
	}
	m := make(StockMap, len(raw))
	for size, num := range raw {
		qty, err := num.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: cantidad no entera para talla %q", domain.ErrInvalidStockMap, size)
		}
		if qty < 0 {
			return nil, fmt.Errorf("%w: cantidad negativa para talla %q", domain.ErrInvalidStockMap, size)
		}
		if qty == 0 {
			continue
		}
		m[size] = int(qty)
	}
	return m, nil
}

// Get devuelve la cantidad de una talla (0 si no existe).
func (m StockMap) Get(size string) int {
	return m[size]
}

// Total suma las cantidades de todas las tallas.
func (m StockMap) Total() int {
	total := 0
	for _, qty := range m {
		total += qty
	}
	return total
}

// ApplyDelta aplica un delta firmado por talla y devuelve un mapa nuevo.
// Si alguna talla quedaría negativa, falla con InsufficientStockError y el
// receptor no se modifica (sin aplicación parcial). Los resultados en cero
// se podan del mapa de salida.
func (m StockMap) ApplyDelta(delta map[string]int) (StockMap, error) {
	// Validar todo antes de construir el resultado
	for _, size := range sortedSizes(delta) {
		if m[size]+delta[size] < 0 {
			return nil, &domain.InsufficientStockError{Size: size}
		}
	}
	out := make(StockMap, len(m)+len(delta))
	for size, qty := range m {
		out[size] = qty
	}
	for size, d := range delta {
		next := out[size] + d
		if next == 0 {
			delete(out, size)
			continue
		}
		out[size] = next
	}
	return out, nil
}

// Negate devuelve el mapa con todos los signos invertidos (débito de un traslado).
func (m StockMap) Negate() map[string]int {
	out := make(map[string]int, len(m))
	for size, qty := range m {
		out[size] = -qty
	}
	return out
}

// Clone copia el mapa (para snapshots inmutables en los movimientos).
func (m StockMap) Clone() StockMap {
	out := make(StockMap, len(m))
	for size, qty := range m {
		out[size] = qty
	}
	return out
}

// MarshalJSON serializa como objeto plano talla → cantidad; nil y vacío como {}.
func (m StockMap) MarshalJSON() ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]int(m))
}

// sortedSizes ordena las claves para que los errores sean deterministas
// cuando más de una talla quedaría negativa.
func sortedSizes(delta map[string]int) []string {
	sizes := make([]string, 0, len(delta))
	for size := range delta {
		sizes = append(sizes, size)
	}
	sort.Strings(sizes)
	return sizes
}
