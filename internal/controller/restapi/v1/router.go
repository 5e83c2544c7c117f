package v1

import (
	"github.com/agriflow/procurement/internal/usecase"
	"github.com/agriflow/procurement/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func NewOrderRoutes(apiV1Group fiber.Router, order usecase.OrderUseCase, inventory usecase.InventoryUseCase, l logger.Interface) {
	r := &V1{order: order, inventory: inventory, logger: l}

	{
		apiV1Group.Post("/orders", r.createOrder)
		apiV1Group.Get("/orders/:id", r.getOrder)
		apiV1Group.Get("/inventory/:productId", r.getStock)
	}
}
