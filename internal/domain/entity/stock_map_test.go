package entity_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabritex/stock-api/internal/domain"
	"github.com/fabritex/stock-api/internal/domain/entity"
)

func TestNewStockMap(t *testing.T) {
	m, err := entity.NewStockMap(map[string]int{"S": 10, "M": 0, "L": 3})
	require.NoError(t, err)
	assert.Equal(t, entity.StockMap{"S": 10, "L": 3}, m, "los ceros se podan")

	_, err = entity.NewStockMap(map[string]int{"S": -1})
	assert.ErrorIs(t, err, domain.ErrInvalidStockMap)

	m, err = entity.NewStockMap(nil)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestStockMap_ApplyDelta(t *testing.T) {
	base := entity.StockMap{"S": 10, "M": 5}

	t.Run("delta mixto", func(t *testing.T) {
		out, err := base.ApplyDelta(map[string]int{"S": -3, "M": 2})
		require.NoError(t, err)
		assert.Equal(t, entity.StockMap{"S": 7, "M": 7}, out)
		assert.Equal(t, entity.StockMap{"S": 10, "M": 5}, base, "el receptor no se modifica")
	})

	t.Run("talla nueva", func(t *testing.T) {
		out, err := base.ApplyDelta(map[string]int{"L": 3})
		require.NoError(t, err)
		assert.Equal(t, 3, out.Get("L"))
	})

	t.Run("resultado en cero se poda", func(t *testing.T) {
		out, err := base.ApplyDelta(map[string]int{"M": -5})
		require.NoError(t, err)
		_, exists := out["M"]
		assert.False(t, exists)
		assert.Equal(t, 10, out.Total())
	})

	t.Run("insuficiente nombra la talla", func(t *testing.T) {
		_, err := base.ApplyDelta(map[string]int{"S": 1, "M": -6})
		require.Error(t, err)
		var insufficient *domain.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, "M", insufficient.Size)
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		assert.Equal(t, entity.StockMap{"S": 10, "M": 5}, base, "sin aplicación parcial")
	})

	t.Run("talla ausente cuenta como cero", func(t *testing.T) {
		_, err := base.ApplyDelta(map[string]int{"XL": -1})
		var insufficient *domain.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, "XL", insufficient.Size)
	})

	t.Run("varias tallas negativas reporta la menor", func(t *testing.T) {
		_, err := base.ApplyDelta(map[string]int{"S": -11, "M": -6})
		var insufficient *domain.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, "M", insufficient.Size, "las claves se recorren en orden")
	})
}

func TestStockMap_TotalYGet(t *testing.T) {
	m := entity.StockMap{"S": 7, "M": 5}
	assert.Equal(t, 12, m.Total())
	assert.Equal(t, 7, m.Get("S"))
	assert.Equal(t, 0, m.Get("XL"), "ausencia de clave equivale a cero")
	assert.Equal(t, 0, entity.StockMap{}.Total())
}

func TestStockMap_Negate(t *testing.T) {
	m := entity.StockMap{"S": 3, "L": 1}
	assert.Equal(t, map[string]int{"S": -3, "L": -1}, m.Negate())
}

func TestStockMap_Clone(t *testing.T) {
	m := entity.StockMap{"S": 3}
	c := m.Clone()
	c["S"] = 99
	assert.Equal(t, 3, m.Get("S"))
}

func TestParseStockMap(t *testing.T) {
	m, err := entity.ParseStockMap([]byte(`{"S": 10, "M": 0}`))
	require.NoError(t, err)
	assert.Equal(t, entity.StockMap{"S": 10}, m)

	m, err = entity.ParseStockMap([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, m)

	m, err = entity.ParseStockMap(nil)
	require.NoError(t, err)
	assert.Empty(t, m)

	_, err = entity.ParseStockMap([]byte(`{"S": -1}`))
	assert.ErrorIs(t, err, domain.ErrInvalidStockMap)

	_, err = entity.ParseStockMap([]byte(`{"S": 1.5}`))
	assert.ErrorIs(t, err, domain.ErrInvalidStockMap)

	_, err = entity.ParseStockMap([]byte(`[1,2]`))
	assert.ErrorIs(t, err, domain.ErrInvalidStockMap)
}

func TestStockMap_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(entity.StockMap{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))

	data, err = json.Marshal(entity.StockMap(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data), "nil serializa como objeto vacío")

	data, err = json.Marshal(entity.StockMap{"S": 7})
	require.NoError(t, err)
	assert.JSONEq(t, `{"S":7}`, string(data))
}
