package restapi

import (
	"github.com/agriflow/procurement/config"
	v1 "github.com/agriflow/procurement/internal/controller/restapi/v1"
	"github.com/agriflow/procurement/internal/usecase"
	"github.com/agriflow/procurement/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// @title Procurement orders
// @version 1.0.0
// @host localhost:8080
// @BasePath /v1
func NewRouter(app *fiber.App, cfg *config.Config, order usecase.OrderUseCase, inventory usecase.InventoryUseCase, l logger.Interface) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewOrderRoutes(apiV1Group, order, inventory, l)
	}
}
