package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "pharmacy-storefront/common/errors"
	"pharmacy-storefront/common/middleware"
	"pharmacy-storefront/services"
)

// CartUpdatedAtHeader carries the server cart's last write time.
const CartUpdatedAtHeader = "X-Cart-Updated-At"

func fail(ctx *gin.Context, svcErr *services.ServiceError) {
	apperrors.Abort(ctx, svcErr)
}

func badInput(ctx *gin.Context, err error) {
	apperrors.Abort(ctx, apperrors.Wrap(apperrors.ErrInvalidInput, err))
}

// userID reads the authenticated caller; handlers behind AuthMiddleware
// always have one.
func userID(ctx *gin.Context) (int64, bool) {
	id, err := middleware.GetUserID(ctx)
	if err != nil {
		apperrors.Abort(ctx, apperrors.Wrap(apperrors.ErrUnauthorized, err))
		return 0, false
	}
	return id, true
}

func intParam(ctx *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil {
		apperrors.Abort(ctx, apperrors.New(http.StatusBadRequest, "Invalid "+name, err))
		return 0, false
	}
	return v, true
}

func formatUpdatedAt(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
