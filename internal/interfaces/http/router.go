package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fabritex/stock-api/internal/application/inventory"
	"github.com/fabritex/stock-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger  *inventory.LedgerUseCase
	Queries *inventory.QueryUseCase
	Log     *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(RequestLogger(deps.Log))
	app.Use(ActorMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	handler := NewInventoryHandler(deps.Ledger, deps.Queries)
	inv := app.Group("/api/inventory")

	inv.Post("/records", handler.SetupRecord)
	inv.Get("/records", handler.ListRecords)
	inv.Get("/records/:id/movements", handler.GetMovements)
	inv.Get("/records/:id/reconciliation", handler.Reconcile)

	inv.Get("/stock", handler.GetStock)
	inv.Post("/adjustments", handler.AdjustStock)
	inv.Post("/transfers", handler.TransferStock)

	inv.Get("/movements", handler.ListMovements)
	inv.Get("/low-stock", handler.ListLowStock)
	inv.Get("/out-of-stock", handler.ListOutOfStock)
}
