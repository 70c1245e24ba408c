package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy-storefront/models"
	"pharmacy-storefront/services"
)

// CartController serves the caller's server-side cart. Every response is the
// full item list with the cart's last write time in X-Cart-Updated-At.
type CartController struct {
	cartService services.CartService
}

func NewCartController(cartService services.CartService) *CartController {
	return &CartController{cartService: cartService}
}

// GetCart handles GET /api/cart.
func (cc *CartController) GetCart(ctx *gin.Context) {
	id, ok := userID(ctx)
	if !ok {
		return
	}
	cart, svcErr := cc.cartService.GetCart(ctx.Request.Context(), id)
	cc.respond(ctx, cart, svcErr)
}

// AddToCart handles POST /api/cart.
func (cc *CartController) AddToCart(ctx *gin.Context) {
	id, ok := userID(ctx)
	if !ok {
		return
	}
	var req models.AddToCartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badInput(ctx, err)
		return
	}
	cart, svcErr := cc.cartService.AddItem(ctx.Request.Context(), id, &req)
	cc.respond(ctx, cart, svcErr)
}

// UpdateCartItem handles PUT /api/cart/:id.
func (cc *CartController) UpdateCartItem(ctx *gin.Context) {
	id, ok := userID(ctx)
	if !ok {
		return
	}
	itemID, ok := intParam(ctx, "id")
	if !ok {
		return
	}
	var req models.UpdateCartItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badInput(ctx, err)
		return
	}
	cart, svcErr := cc.cartService.UpdateItem(ctx.Request.Context(), id, itemID, *req.Quantity)
	cc.respond(ctx, cart, svcErr)
}

// RemoveCartItem handles DELETE /api/cart/:id.
func (cc *CartController) RemoveCartItem(ctx *gin.Context) {
	id, ok := userID(ctx)
	if !ok {
		return
	}
	itemID, ok := intParam(ctx, "id")
	if !ok {
		return
	}
	cart, svcErr := cc.cartService.RemoveItem(ctx.Request.Context(), id, itemID)
	cc.respond(ctx, cart, svcErr)
}

func (cc *CartController) respond(ctx *gin.Context, cart *models.Cart, svcErr *services.ServiceError) {
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	if !cart.UpdatedAt.IsZero() {
		ctx.Header(CartUpdatedAtHeader, formatUpdatedAt(cart.UpdatedAt))
	}
	ctx.JSON(http.StatusOK, cart.Items)
}
