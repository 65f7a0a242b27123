package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/treebbs/services"
	"github.com/cppla/treebbs/utils"
)

const (
	// SessionCookieName is the cookie carrying the session token.
	SessionCookieName = "AuthToken"
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
)

// SessionToken returns the token presented with the request. An explicit
// "Authorization: Bearer" header wins over the AuthToken cookie, which browsers send on
// their own. It returns "" when neither is present.
func SessionToken(ctx *gin.Context) string {
	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		if tok := strings.TrimSpace(parts[1]); tok != "" {
			return tok
		}
	}
	if c, err := ctx.Cookie(SessionCookieName); err == nil && c != "" {
		return c
	}
	return ""
}

// AuthRequired rejects requests whose session the gate does not confirm.
func AuthRequired(gate *services.Gate) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		who, err := gate.Authenticate(ctx.Request.Context(), SessionToken(ctx))
		if err != nil {
			switch {
			case errors.Is(err, services.ErrStaleIdentity):
				utils.Error(ctx, http.StatusUnauthorized, 40108, "user does not exist")
			case errors.Is(err, services.ErrUnauthorized):
				utils.Error(ctx, http.StatusUnauthorized, 40105, "access denied")
			default:
				utils.Sugar.Errorw("authentication failed", "error", err)
				utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
			}
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, who.UserID)
		ctx.Next()
	}
}
