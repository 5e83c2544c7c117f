package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/agriflow/procurement/internal/controller/restapi/v1/response"
	"github.com/agriflow/procurement/internal/controller/restapi/v1/validate"
	"github.com/agriflow/procurement/internal/dto"
	"github.com/agriflow/procurement/internal/entity"
	"github.com/agriflow/procurement/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// @Summary  	Place a procurement order
// @Description Creates the order and its OrderCreated outbox event in one transaction; the saga runs asynchronously
// @Tags 		orders
// @Accept 		json
// @Produce 	json
// @Param 		Idempotency-Key header string            true "Client-chosen key; retries with the same key replay the original response"
// @Param 		order 			body   dto.CreateOrder   true "Order to place"
// @Success 	201 {object} response.Order
// @Failure 	400 {object} response.Error "Missing key or invalid order"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/orders [post]
func (r *V1) createOrder(ctx *fiber.Ctx) error {
	// 1. idempotency key is mandatory for the mutation
	key := ctx.Get("Idempotency-Key")
	if key == "" {
		return errorResponse(ctx, http.StatusBadRequest, "Idempotency-Key header is required")
	}
	if len(key) > validate.MaxIdempotencyKeyLen {
		return errorResponse(ctx, http.StatusBadRequest,
			fmt.Sprintf("Idempotency-Key cant be longer than %d characters", validate.MaxIdempotencyKeyLen))
	}

	// 2. body
	var req dto.CreateOrder
	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if req.BuyerID == "" || req.SupplierID == "" {
		return errorResponse(ctx, http.StatusBadRequest, "buyer_id and supplier_id are required")
	}

	if len(req.Items) == 0 {
		return errorResponse(ctx, http.StatusBadRequest, "order must contain at least one item")
	}
	if len(req.Items) > validate.MaxOrderItems {
		return errorResponse(ctx, http.StatusBadRequest,
			fmt.Sprintf("order cant contain more than %d items", validate.MaxOrderItems))
	}

	for _, item := range req.Items {
		if item.ProductID == "" {
			return errorResponse(ctx, http.StatusBadRequest, "every item needs a product_id")
		}
		if item.Quantity < validate.MinQuantity || item.Quantity > validate.MaxQuantity {
			return errorResponse(ctx, http.StatusBadRequest,
				fmt.Sprintf("quantity must be between %d and %d", validate.MinQuantity, validate.MaxQuantity))
		}
		if item.Price < 0 {
			return errorResponse(ctx, http.StatusBadRequest, "price cant be negative")
		}
	}

	// 3. create under the key
	order, err := r.order.CreateOrder(ctx.UserContext(), key, req)
	if err != nil {
		if errors.Is(err, errs.ErrValidation) {
			return errorResponse(ctx, http.StatusBadRequest, "invalid order")
		}
		r.logger.Error(err, "restapi - v1 - createOrder")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusCreated).JSON(orderResponse(order))
}

// @Summary 	Get order
// @Description Fetches an order by id
// @Tags 		orders
// @Produce 	json
// @Param 		id path string true "Order ID(uuid)"
// @Success 	200 {object} response.Order
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Order not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/orders/{id} [get]
func (r *V1) getOrder(ctx *fiber.Ctx) error {
	idStr := ctx.Params("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	order, err := r.order.GetOrder(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "order not found")
		}
		r.logger.Error(err, "restapi - v1 - getOrder")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusOK).JSON(orderResponse(order))
}

func orderResponse(order *entity.Order) response.Order {
	items := make([]response.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, response.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Unit:        item.Unit,
			Subtotal:    item.Subtotal(),
		})
	}

	return response.Order{
		OrderID:     order.ID.String(),
		BuyerID:     order.BuyerID,
		SupplierID:  order.SupplierID,
		Items:       items,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   order.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
