package routes

import (
	"github.com/gin-gonic/gin"

	"pharmacy-storefront/common/middleware"
	"pharmacy-storefront/controllers"
)

// RegisterAuthRoutes sets up login, signup and the current-user lookup.
func RegisterAuthRoutes(r *gin.Engine, ac *controllers.AuthController, auth gin.HandlerFunc) {
	authRoutes := r.Group("/api/auth")
	authRoutes.POST("/login", ac.Login)
	authRoutes.POST("/signup", ac.Signup)
	authRoutes.GET("/me", auth, ac.Me)
}

// RegisterCatalogRoutes sets up the public catalog.
func RegisterCatalogRoutes(r *gin.Engine, pc *controllers.ProductController) {
	api := r.Group("/api")
	api.GET("/products", pc.ListProducts)
	api.GET("/products/:id", pc.GetProduct)
	api.GET("/search", pc.Search)
	api.GET("/categories", pc.Categories)
	api.GET("/featured", pc.Featured)
	api.GET("/popular", pc.Popular)
}

func RegisterCartRoutes(r *gin.Engine, cc *controllers.CartController, auth gin.HandlerFunc) {
	cartRoutes := r.Group("/api/cart")
	cartRoutes.Use(auth)
	cartRoutes.GET("", cc.GetCart)
	cartRoutes.POST("", cc.AddToCart)
	cartRoutes.PUT("/:id", cc.UpdateCartItem)
	cartRoutes.DELETE("/:id", cc.RemoveCartItem)
}

func RegisterOrderRoutes(r *gin.Engine, oc *controllers.OrderController, auth gin.HandlerFunc) {
	api := r.Group("/api")
	api.Use(auth)
	api.POST("/checkout", oc.Checkout)
	api.GET("/orders", oc.ListOrders)
	api.GET("/orders/:id", oc.GetOrder)

	// Mock fulfilment: there is no warehouse, so tracking is advanced by hand.
	api.POST("/orders/:id/status", oc.AdvanceStatus)
	api.POST("/orders/:id/cancel", oc.CancelOrder)
}

func RegisterAddressRoutes(r *gin.Engine, ac *controllers.AddressController, auth gin.HandlerFunc) {
	addressRoutes := r.Group("/api/addresses")
	addressRoutes.Use(auth)
	addressRoutes.GET("", ac.ListAddresses)
	addressRoutes.POST("", ac.AddAddress)
}

// RegisterContentRoutes sets up public articles and per-user reminders.
func RegisterContentRoutes(r *gin.Engine, cc *controllers.ContentController, auth gin.HandlerFunc) {
	api := r.Group("/api")
	api.GET("/articles", cc.ListArticles)
	api.GET("/articles/:id", cc.GetArticle)

	reminderRoutes := api.Group("/reminders")
	reminderRoutes.Use(auth)
	reminderRoutes.GET("", cc.ListReminders)
	reminderRoutes.POST("", cc.AddReminder)
}

// RegisterAdminRoutes exposes the error injection controls.
func RegisterAdminRoutes(r *gin.Engine, injector *middleware.ErrorInjector) {
	admin := r.Group("/admin")
	admin.POST("/inject-error", injector.InjectErrorHandler)
	admin.GET("/status", injector.StatusHandler)
	admin.POST("/reset", injector.ResetHandler)
}
