package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy-storefront/models"
	"pharmacy-storefront/services"
)

type AddressController struct {
	addressService services.AddressService
}

func NewAddressController(addressService services.AddressService) *AddressController {
	return &AddressController{addressService: addressService}
}

// ListAddresses handles GET /api/addresses.
func (ac *AddressController) ListAddresses(ctx *gin.Context) {
	id, ok := userID(ctx)
	if !ok {
		return
	}
	addrs, svcErr := ac.addressService.ListAddresses(ctx.Request.Context(), id)
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, addrs)
}

// AddAddress handles POST /api/addresses. A new default address demotes the
// previous one.
func (ac *AddressController) AddAddress(ctx *gin.Context) {
	id, ok := userID(ctx)
	if !ok {
		return
	}
	var addr models.Address
	if err := ctx.ShouldBindJSON(&addr); err != nil {
		badInput(ctx, err)
		return
	}
	created, svcErr := ac.addressService.AddAddress(ctx.Request.Context(), id, &addr)
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusCreated, created)
}
