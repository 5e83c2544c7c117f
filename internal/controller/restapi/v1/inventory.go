package v1

import (
	"errors"
	"net/http"

	"github.com/agriflow/procurement/internal/controller/restapi/v1/response"
	"github.com/agriflow/procurement/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
)

// @Summary 	Get stock
// @Description Current available and reserved quantities for a product
// @Tags 		inventory
// @Produce 	json
// @Param 		productId path string true "Product ID"
// @Success 	200 {object} response.Inventory
// @Failure 	404 {object} response.Error "Unknown product"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/inventory/{productId} [get]
func (r *V1) getStock(ctx *fiber.Ctx) error {
	productID := ctx.Params("productId")

	item, err := r.inventory.GetStock(ctx.UserContext(), productID)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "product not found")
		}
		r.logger.Error(err, "restapi - v1 - getStock")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusOK).JSON(response.Inventory{
		ProductID:         item.ProductID,
		ProductName:       item.ProductName,
		AvailableQuantity: item.AvailableQuantity,
		ReservedQuantity:  item.ReservedQuantity,
	})
}
