package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fabritex/stock-api/internal/application/dto"
	"github.com/fabritex/stock-api/internal/application/inventory"
	"github.com/fabritex/stock-api/internal/domain"
	"github.com/fabritex/stock-api/internal/domain/entity"
)

// InventoryHandler maneja las peticiones HTTP del libro de inventario.
type InventoryHandler struct {
	ledger  *inventory.LedgerUseCase
	queries *inventory.QueryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.LedgerUseCase, queries *inventory.QueryUseCase) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, queries: queries}
}

// SetupRecord godoc
// @Summary      Crear registro de inventario
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SetupRecordRequest  true  "product_id, location, stock inicial y umbral de reorden opcionales"
// @Success      201   {object}  dto.InventoryRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/records [post]
func (h *InventoryHandler) SetupRecord(c *fiber.Ctx) error {
	var in dto.SetupRecordRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	record, err := h.ledger.SetupRecord(c.Context(), inventory.SetupInput{
		Location:         in.Location.ToLocation(),
		ProductID:        in.ProductID,
		InitialStock:     in.InitialStock,
		ReorderThreshold: in.ReorderThreshold,
		ActorID:          GetActorID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewInventoryRecordResponse(record))
}

// AdjustStock godoc
// @Summary      Ajustar stock por talla en una ubicación
// @Description  Aplica un delta firmado por talla dentro de una transacción y
//               asienta exactamente un movimiento con snapshot antes/después.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "product_id, location, delta por talla, type opcional (SALE_OUT, PURCHASE_IN, PRODUCTION_IN...), reason"
// @Success      200   {object}  dto.InventoryRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	record, err := h.ledger.AdjustStock(c.Context(), inventory.AdjustInput{
		Location:  in.Location.ToLocation(),
		ProductID: in.ProductID,
		Delta:     in.Delta,
		Type:      in.Type,
		Reason:    in.Reason,
		ActorID:   GetActorID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewInventoryRecordResponse(record))
}

// TransferStock godoc
// @Summary      Trasladar stock entre dos ubicaciones
// @Description  Débito en origen y crédito en destino en una sola transacción,
//               todo-o-nada; los dos asientos comparten un correlation id.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferStockRequest  true  "product_id, origin, destination, cantidades positivas por talla, reason"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) TransferStock(c *fiber.Ctx) error {
	var in dto.TransferStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	result, err := h.ledger.TransferStock(c.Context(), inventory.TransferInput{
		Origin:      in.Origin.ToLocation(),
		Destination: in.Destination.ToLocation(),
		ProductID:   in.ProductID,
		Quantity:    in.Quantity,
		Reason:      in.Reason,
		ActorID:     GetActorID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.TransferResponse{
		Origin:      dto.NewInventoryRecordResponse(result.Origin),
		Destination: dto.NewInventoryRecordResponse(result.Destination),
	})
}

// GetStock godoc
// @Summary      Stock de un producto en una ubicación
// @Tags         inventory
// @Produce      json
// @Param        product_id   query  string  true  "ID del producto"
// @Param        kind         query  string  true  "STORE o BRANCH"
// @Param        location_id  query  string  true  "ID de la ubicación"
// @Success      200  {object}  dto.InventoryRecordResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	loc := entity.Location{Kind: entity.LocationKind(c.Query("kind")), ID: c.Query("location_id")}
	record, err := h.queries.GetInventory(c.Context(), c.Query("product_id"), loc)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewInventoryRecordResponse(record))
}

// ListRecords godoc
// @Summary      Reporte de stock de una ubicación
// @Tags         inventory
// @Produce      json
// @Param        kind         query  string  true   "STORE o BRANCH"
// @Param        location_id  query  string  true   "ID de la ubicación"
// @Param        limit        query  int     false  "Tamaño de página (default 50)"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {array}  dto.InventoryRecordResponse
// @Router       /api/inventory/records [get]
func (h *InventoryHandler) ListRecords(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()
	loc := entity.Location{Kind: entity.LocationKind(c.Query("kind")), ID: c.Query("location_id")}
	records, err := h.queries.ListByLocation(c.Context(), loc, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.InventoryRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, dto.NewInventoryRecordResponse(r))
	}
	return c.JSON(fiber.Map{"total": len(out), "records": out})
}

// GetMovements godoc
// @Summary      Historial de movimientos de un registro
// @Tags         inventory
// @Produce      json
// @Param        id         path   string  true   "ID del registro de inventario"
// @Param        page       query  int     false  "Página (desde 1)"
// @Param        page_size  query  int     false  "Tamaño de página (default 50, máx 200)"
// @Success      200  {array}  dto.MovementEntryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/records/{id}/movements [get]
func (h *InventoryHandler) GetMovements(c *fiber.Ctx) error {
	entries, err := h.queries.GetMovements(c.Context(), c.Params("id"),
		c.QueryInt("page", 1), c.QueryInt("page_size", 0))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementEntryResponse, 0, len(entries))
	for _, m := range entries {
		out = append(out, dto.NewMovementEntryResponse(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// ListMovements godoc
// @Summary      Movimientos de una ubicación en un rango de fechas
// @Tags         inventory
// @Produce      json
// @Param        kind         query  string  true   "STORE o BRANCH"
// @Param        location_id  query  string  true   "ID de la ubicación"
// @Param        from         query  string  false  "Fecha inicial (RFC3339)"
// @Param        to           query  string  false  "Fecha final (RFC3339)"
// @Success      200  {array}  dto.MovementEntryResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()
	loc := entity.Location{Kind: entity.LocationKind(c.Query("kind")), ID: c.Query("location_id")}
	from, err := parseTimeQuery(c.Query("from"))
	if err != nil {
		return respondError(c, domain.ErrInvalidInput)
	}
	to, err := parseTimeQuery(c.Query("to"))
	if err != nil {
		return respondError(c, domain.ErrInvalidInput)
	}
	entries, err := h.queries.ListMovementsByLocation(c.Context(), loc, from, to, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementEntryResponse, 0, len(entries))
	for _, m := range entries {
		out = append(out, dto.NewMovementEntryResponse(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// ListLowStock godoc
// @Summary      Registros con stock bajo
// @Description  total(stock) > 0 y <= umbral (query threshold, si no el umbral
//               de reorden del registro, si no 5).
// @Tags         inventory
// @Produce      json
// @Param        kind         query  string  false  "STORE o BRANCH (vacío = todas)"
// @Param        location_id  query  string  false  "ID de la ubicación"
// @Param        threshold    query  int     false  "Umbral explícito"
// @Success      200  {array}  dto.LowStockItemResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) ListLowStock(c *fiber.Ctx) error {
	loc, err := optionalLocation(c)
	if err != nil {
		return respondError(c, err)
	}
	var threshold *int
	if t := c.QueryInt("threshold", 0); t > 0 {
		threshold = &t
	}
	items, err := h.queries.ListLowStock(c.Context(), loc, threshold)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.LowStockItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.LowStockItemResponse{
			InventoryRecordResponse: dto.NewInventoryRecordResponse(item.Record),
			Threshold:               item.Record.EffectiveThreshold(),
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "records": out})
}

// ListOutOfStock godoc
// @Summary      Registros agotados (total de stock en cero)
// @Tags         inventory
// @Produce      json
// @Param        kind         query  string  false  "STORE o BRANCH (vacío = todas)"
// @Param        location_id  query  string  false  "ID de la ubicación"
// @Success      200  {array}  dto.InventoryRecordResponse
// @Router       /api/inventory/out-of-stock [get]
func (h *InventoryHandler) ListOutOfStock(c *fiber.Ctx) error {
	loc, err := optionalLocation(c)
	if err != nil {
		return respondError(c, err)
	}
	records, err := h.queries.ListOutOfStock(c.Context(), loc)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.InventoryRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, dto.NewInventoryRecordResponse(r))
	}
	return c.JSON(fiber.Map{"total": len(out), "records": out})
}

// Reconcile godoc
// @Summary      Conciliación por replay del historial de un registro
// @Description  Reconstruye el stock aplicando todos los deltas en orden
//               cronológico desde cero y lo compara con el stock persistido.
// @Tags         inventory
// @Produce      json
// @Param        id  path  string  true  "ID del registro de inventario"
// @Success      200  {object}  inventory.ReconciliationReport
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/records/{id}/reconciliation [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	report, err := h.queries.Reconcile(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// optionalLocation lee kind/location_id como filtro opcional: ambos o ninguno.
func optionalLocation(c *fiber.Ctx) (*entity.Location, error) {
	kind := c.Query("kind")
	id := c.Query("location_id")
	if kind == "" && id == "" {
		return nil, nil
	}
	if kind == "" || id == "" {
		return nil, domain.ErrInvalidInput
	}
	return &entity.Location{Kind: entity.LocationKind(kind), ID: id}, nil
}

func parseTimeQuery(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// respondError mapea errores de dominio a status HTTP. El caller recibe el
// código tipado y la talla/ubicación afectada sin ver el camino de escritura.
func respondError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "INSUFFICIENT_STOCK", Message: insufficient.Error(), Size: insufficient.Size,
		})
	case errors.Is(err, domain.ErrSameLocation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "SAME_LOCATION", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidStockMap):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto de concurrencia, reintente la operación"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
