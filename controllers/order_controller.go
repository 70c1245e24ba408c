package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy-storefront/models"
	"pharmacy-storefront/services"
)

// OrderController handles checkout, order history and tracking updates.
type OrderController struct {
	orderService services.OrderService
}

func NewOrderController(orderService services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// Checkout handles POST /api/checkout.
func (oc *OrderController) Checkout(ctx *gin.Context) {
	id, ok := userID(ctx)
	if !ok {
		return
	}
	var draft models.OrderDraft
	if err := ctx.ShouldBindJSON(&draft); err != nil {
		badInput(ctx, err)
		return
	}
	order, svcErr := oc.orderService.Checkout(ctx.Request.Context(), id, &draft)
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, order)
}

// ListOrders handles GET /api/orders.
func (oc *OrderController) ListOrders(ctx *gin.Context) {
	id, ok := userID(ctx)
	if !ok {
		return
	}
	orders, svcErr := oc.orderService.ListOrders(ctx.Request.Context(), id)
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, orders)
}

// GetOrder handles GET /api/orders/:id.
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	id, ok := userID(ctx)
	if !ok {
		return
	}
	order, svcErr := oc.orderService.GetOrder(ctx.Request.Context(), id, ctx.Param("id"))
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, order)
}

// AdvanceStatus handles POST /api/orders/:id/status.
func (oc *OrderController) AdvanceStatus(ctx *gin.Context) {
	oc.transition(ctx, oc.orderService.AdvanceStatus)
}

// CancelOrder handles POST /api/orders/:id/cancel.
func (oc *OrderController) CancelOrder(ctx *gin.Context) {
	oc.transition(ctx, oc.orderService.CancelOrder)
}

type transitionFunc func(ctx context.Context, userID int64, id, message string) (*models.Order, *services.ServiceError)

// transition binds an optional {"message": ...} body; an empty body is allowed.
func (oc *OrderController) transition(ctx *gin.Context, apply transitionFunc) {
	id, ok := userID(ctx)
	if !ok {
		return
	}
	var req models.StatusUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badInput(ctx, err)
		return
	}
	order, svcErr := apply(ctx.Request.Context(), id, ctx.Param("id"), req.Message)
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, order)
}
