package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabritex/stock-api/internal/application/inventory"
	"github.com/fabritex/stock-api/internal/domain/entity"
	"github.com/fabritex/stock-api/internal/infrastructure/memory"
	httpiface "github.com/fabritex/stock-api/internal/interfaces/http"
	"github.com/fabritex/stock-api/pkg/logger"
)

const (
	storeID  = "11111111-1111-1111-1111-111111111111"
	branchID = "22222222-2222-2222-2222-222222222222"
	prodID   = "33333333-3333-3333-3333-333333333333"
)

func newTestApp(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()
	mem := memory.NewStore()
	mem.AddLocation(entity.Location{Kind: entity.LocationStore, ID: storeID})
	mem.AddLocation(entity.Location{Kind: entity.LocationBranch, ID: branchID})

	app := fiber.New()
	httpiface.Router(app, httpiface.RouterDeps{
		Ledger:  inventory.NewLedgerUseCase(mem, mem),
		Queries: inventory.NewQueryUseCase(mem.InventoryRepo(), mem.MovementRepo()),
		Log:     logger.New(logger.Config{Level: "error"}),
	})
	return app, mem
}

// doJSON ejecuta un request JSON contra la app y decodifica la respuesta.
func doJSON(t *testing.T, app *fiber.App, method, path string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Actor-Id", "tester")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func adjustBody(delta map[string]int) fiber.Map {
	return fiber.Map{
		"product_id": prodID,
		"location":   fiber.Map{"kind": "STORE", "id": storeID},
		"delta":      delta,
		"reason":     "test",
	}
}

func TestHealthcheck(t *testing.T) {
	app, _ := newTestApp(t)
	status := doJSON(t, app, "GET", "/health", nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestSetupRecordEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	var record struct {
		ID    string         `json:"id"`
		Stock map[string]int `json:"stock"`
		Total int            `json:"total"`
	}
	status := doJSON(t, app, "POST", "/api/inventory/records", fiber.Map{
		"product_id":        prodID,
		"location":          fiber.Map{"kind": "BRANCH", "id": branchID},
		"initial_stock":     map[string]int{"S": 6},
		"reorder_threshold": 8,
	}, &record)
	require.Equal(t, fiber.StatusCreated, status)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, 6, record.Total)

	// Duplicado → 409 CONFLICT
	var errResp struct {
		Code string `json:"code"`
	}
	status = doJSON(t, app, "POST", "/api/inventory/records", fiber.Map{
		"product_id": prodID,
		"location":   fiber.Map{"kind": "BRANCH", "id": branchID},
	}, &errResp)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errResp.Code)

	// Ubicación no dada de alta → 404
	status = doJSON(t, app, "POST", "/api/inventory/records", fiber.Map{
		"product_id": prodID,
		"location":   fiber.Map{"kind": "STORE", "id": "99999999-9999-9999-9999-999999999999"},
	}, &errResp)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errResp.Code)
}

func TestAdjustStockEndpoint(t *testing.T) {
	app, mem := newTestApp(t)

	var record struct {
		Stock map[string]int `json:"stock"`
		Total int            `json:"total"`
	}
	status := doJSON(t, app, "POST", "/api/inventory/adjustments", adjustBody(map[string]int{"S": 10, "M": 5}), &record)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, map[string]int{"S": 10, "M": 5}, record.Stock)
	assert.Equal(t, 15, record.Total)

	// El actor del header queda asentado en el movimiento
	movements := mem.Movements()
	require.Len(t, movements, 1)
	assert.Equal(t, "tester", movements[0].ActorID)

	// Stock insuficiente → 409 con la talla afectada
	var errResp struct {
		Code string `json:"code"`
		Size string `json:"size"`
	}
	status = doJSON(t, app, "POST", "/api/inventory/adjustments", adjustBody(map[string]int{"M": -10}), &errResp)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", errResp.Code)
	assert.Equal(t, "M", errResp.Size)

	// Delta vacío → 400
	status = doJSON(t, app, "POST", "/api/inventory/adjustments", adjustBody(map[string]int{}), &errResp)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errResp.Code)

	// Body no-JSON → 400
	req := httptest.NewRequest("POST", "/api/inventory/adjustments", bytes.NewReader([]byte("no es json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTransferStockEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	status := doJSON(t, app, "POST", "/api/inventory/adjustments", adjustBody(map[string]int{"S": 10}), nil)
	require.Equal(t, fiber.StatusOK, status)

	transferBody := func(dest fiber.Map, qty map[string]int) fiber.Map {
		return fiber.Map{
			"product_id":  prodID,
			"origin":      fiber.Map{"kind": "STORE", "id": storeID},
			"destination": dest,
			"quantity":    qty,
			"reason":      "reposición",
		}
	}

	var result struct {
		Origin      struct{ Total int }
		Destination struct{ Total int }
	}
	status = doJSON(t, app, "POST", "/api/inventory/transfers",
		transferBody(fiber.Map{"kind": "BRANCH", "id": branchID}, map[string]int{"S": 3}), &result)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 7, result.Origin.Total)
	assert.Equal(t, 3, result.Destination.Total)

	var errResp struct {
		Code string `json:"code"`
	}
	// Mismo origen y destino → 400 SAME_LOCATION
	status = doJSON(t, app, "POST", "/api/inventory/transfers",
		transferBody(fiber.Map{"kind": "STORE", "id": storeID}, map[string]int{"S": 1}), &errResp)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "SAME_LOCATION", errResp.Code)

	// Cantidad negativa → 400
	status = doJSON(t, app, "POST", "/api/inventory/transfers",
		transferBody(fiber.Map{"kind": "BRANCH", "id": branchID}, map[string]int{"S": -1}), &errResp)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errResp.Code)

	// Más de lo disponible → 409 INSUFFICIENT_STOCK
	status = doJSON(t, app, "POST", "/api/inventory/transfers",
		transferBody(fiber.Map{"kind": "BRANCH", "id": branchID}, map[string]int{"S": 100}), &errResp)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", errResp.Code)
}

func TestGetStockYMovimientosEndpoints(t *testing.T) {
	app, _ := newTestApp(t)
	status := doJSON(t, app, "POST", "/api/inventory/adjustments", adjustBody(map[string]int{"S": 10}), nil)
	require.Equal(t, fiber.StatusOK, status)

	var record struct {
		ID    string `json:"id"`
		Total int    `json:"total"`
	}
	status = doJSON(t, app, "GET",
		fmt.Sprintf("/api/inventory/stock?product_id=%s&kind=STORE&location_id=%s", prodID, storeID), nil, &record)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 10, record.Total)
	require.NotEmpty(t, record.ID)

	var history struct {
		Total     int `json:"total"`
		Movements []struct {
			Type          string `json:"type"`
			CorrelationID string `json:"correlation_id"`
		} `json:"movements"`
	}
	status = doJSON(t, app, "GET", "/api/inventory/records/"+record.ID+"/movements", nil, &history)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, 1, history.Total)
	assert.Equal(t, entity.MovementAdjustIn, history.Movements[0].Type)
	assert.NotEmpty(t, history.Movements[0].CorrelationID)

	// Registro inexistente → 404
	status = doJSON(t, app, "GET", "/api/inventory/records/no-existe/movements", nil, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	// Producto sin registro → 404
	status = doJSON(t, app, "GET",
		fmt.Sprintf("/api/inventory/stock?product_id=otro&kind=STORE&location_id=%s", storeID), nil, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	// Conciliación del registro recién creado: consistente
	var report struct {
		Consistent    bool `json:"consistent"`
		MovementCount int  `json:"movement_count"`
	}
	status = doJSON(t, app, "GET", "/api/inventory/records/"+record.ID+"/reconciliation", nil, &report)
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, report.Consistent)
	assert.Equal(t, 1, report.MovementCount)
}

func TestListadosEndpoints(t *testing.T) {
	app, _ := newTestApp(t)
	status := doJSON(t, app, "POST", "/api/inventory/adjustments", adjustBody(map[string]int{"S": 3}), nil)
	require.Equal(t, fiber.StatusOK, status)

	var listing struct {
		Total   int `json:"total"`
		Records []struct {
			ProductID string `json:"product_id"`
		} `json:"records"`
	}
	status = doJSON(t, app, "GET",
		fmt.Sprintf("/api/inventory/records?kind=STORE&location_id=%s", storeID), nil, &listing)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, 1, listing.Total)
	assert.Equal(t, prodID, listing.Records[0].ProductID)

	// total 3 <= umbral default 5 → aparece en stock bajo
	var low struct {
		Total   int `json:"total"`
		Records []struct {
			Total     int `json:"total"`
			Threshold int `json:"threshold"`
		} `json:"records"`
	}
	status = doJSON(t, app, "GET", "/api/inventory/low-stock", nil, &low)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, 1, low.Total)
	assert.Equal(t, 3, low.Records[0].Total)
	assert.Equal(t, 5, low.Records[0].Threshold)

	// Filtro de ubicación a medias (kind sin location_id) → 400
	status = doJSON(t, app, "GET", "/api/inventory/low-stock?kind=STORE", nil, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	var out struct {
		Total int `json:"total"`
	}
	status = doJSON(t, app, "GET", "/api/inventory/out-of-stock", nil, &out)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 0, out.Total)

	// Movimientos por ubicación con fecha inválida → 400
	status = doJSON(t, app, "GET",
		fmt.Sprintf("/api/inventory/movements?kind=STORE&location_id=%s&from=ayer", storeID), nil, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	var movements struct {
		Total int `json:"total"`
	}
	status = doJSON(t, app, "GET",
		fmt.Sprintf("/api/inventory/movements?kind=STORE&location_id=%s", storeID), nil, &movements)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, movements.Total)
}
