package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/treebbs/services"
	"github.com/cppla/treebbs/utils"
)

// respondError maps a service error to status, business code and a caller-safe message.
// Unexpected failures are logged and reported without internals.
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.Error(ctx, http.StatusBadRequest, 40001, err.Error())
	case errors.Is(err, services.ErrStaleIdentity):
		utils.Error(ctx, http.StatusUnauthorized, 40108, "user does not exist")
	case errors.Is(err, services.ErrUnauthorized):
		utils.Error(ctx, http.StatusUnauthorized, 40105, "access denied")
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
	case errors.Is(err, services.ErrForbidden):
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only change your own posts and comments")
	case errors.Is(err, services.ErrParentNotFound):
		utils.Error(ctx, http.StatusNotFound, 40402, "parent post or comment not found")
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, "post or comment not found")
	case errors.Is(err, services.ErrDuplicateUsername):
		utils.Error(ctx, http.StatusConflict, 40901, "username already exists")
	default:
		utils.Sugar.Errorw("request failed", "path", ctx.Request.URL.Path, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
	}
}
