package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/treebbs/middleware"
	"github.com/cppla/treebbs/models"
	"github.com/cppla/treebbs/services"
	"github.com/cppla/treebbs/utils"
)

// AuthController handles registration, login and logout.
type AuthController struct {
	auth         *services.AuthService
	cookieSecure bool
}

// NewAuthController creates an AuthController.
func NewAuthController(auth *services.AuthService, cookieSecure bool) *AuthController {
	return &AuthController{auth: auth, cookieSecure: cookieSecure}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a local account and starts a session for it.
func (a *AuthController) Register(ctx *gin.Context) {
	var req credentialsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username and password are required")
		return
	}

	user, err := a.auth.Register(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(ctx, err)
		return
	}

	session, err := a.auth.IssueSession(user)
	if err != nil {
		utils.Sugar.Errorw("failed to generate token", "user_id", user.ID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}
	a.setSessionCookie(ctx, session)
	utils.Created(ctx, gin.H{
		"token": session.Token,
		"user":  publicUser(user),
	})
}

// Login verifies user credentials and issues a session token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req credentialsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "username and password are required")
		return
	}

	session, err := a.auth.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		// unknown user and wrong password look the same to the caller
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrInvalidCredentials) {
			utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
			return
		}
		respondError(ctx, err)
		return
	}

	a.setSessionCookie(ctx, session)
	utils.Success(ctx, gin.H{
		"id":    session.User.ID,
		"token": session.Token,
		"user":  publicUser(session.User),
	})
}

// Logout clears the session cookie and revokes the presented token.
func (a *AuthController) Logout(ctx *gin.Context) {
	a.auth.Logout(middleware.SessionToken(ctx))
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.SessionCookieName, "", -1, "/", "", a.cookieSecure, true)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the account behind the current session.
func (a *AuthController) Me(ctx *gin.Context) {
	user, err := a.auth.FindByID(ctx.Request.Context(), ctx.GetString(middleware.ContextUserIDKey))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"user": publicUser(user)})
}

func (a *AuthController) setSessionCookie(ctx *gin.Context, s *services.Session) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.SessionCookieName, s.Token, maxAge, "/", "", a.cookieSecure, true)
}

func publicUser(u *models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"created_at": u.CreatedAt,
	}
}
