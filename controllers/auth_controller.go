package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy-storefront/models"
	"pharmacy-storefront/services"
)

// AuthController handles login, signup and the current-user lookup.
type AuthController struct {
	authService services.AuthService
}

func NewAuthController(authService services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Login handles POST /api/auth/login.
func (ac *AuthController) Login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badInput(ctx, err)
		return
	}

	resp, svcErr := ac.authService.Login(ctx.Request.Context(), &req)
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Signup handles POST /api/auth/signup.
func (ac *AuthController) Signup(ctx *gin.Context) {
	var req models.SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badInput(ctx, err)
		return
	}

	resp, svcErr := ac.authService.Signup(ctx.Request.Context(), &req)
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Me handles GET /api/auth/me.
func (ac *AuthController) Me(ctx *gin.Context) {
	id, ok := userID(ctx)
	if !ok {
		return
	}
	user, svcErr := ac.authService.CurrentUser(ctx.Request.Context(), id)
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, user)
}
