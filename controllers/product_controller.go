package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy-storefront/services"
)

// ProductController handles catalog browsing.
type ProductController struct {
	catalog services.CatalogService
}

func NewProductController(catalog services.CatalogService) *ProductController {
	return &ProductController{catalog: catalog}
}

// ListProducts handles GET /api/products?category=.
func (pc *ProductController) ListProducts(ctx *gin.Context) {
	products, svcErr := pc.catalog.ListProducts(ctx.Request.Context(), ctx.Query("category"))
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, products)
}

// GetProduct handles GET /api/products/:id.
func (pc *ProductController) GetProduct(ctx *gin.Context) {
	id, ok := intParam(ctx, "id")
	if !ok {
		return
	}
	product, svcErr := pc.catalog.GetProduct(ctx.Request.Context(), int(id))
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, product)
}

// Search handles GET /api/search?q=.
func (pc *ProductController) Search(ctx *gin.Context) {
	products, svcErr := pc.catalog.Search(ctx.Request.Context(), ctx.Query("q"))
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, products)
}

func (pc *ProductController) Featured(ctx *gin.Context) {
	products, svcErr := pc.catalog.Featured(ctx.Request.Context())
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, products)
}

func (pc *ProductController) Popular(ctx *gin.Context) {
	products, svcErr := pc.catalog.Popular(ctx.Request.Context())
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, products)
}

func (pc *ProductController) Categories(ctx *gin.Context) {
	cats, svcErr := pc.catalog.Categories(ctx.Request.Context())
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, cats)
}
