package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/safetytracker/safetytracker/internal/auth"
	"github.com/safetytracker/safetytracker/internal/models"
	apperrors "github.com/safetytracker/safetytracker/internal/pkg/errors"
	"github.com/safetytracker/safetytracker/internal/pkg/logger"
	"github.com/safetytracker/safetytracker/internal/services"
	"github.com/safetytracker/safetytracker/internal/utils"
)

type LoginUserRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Next     string `json:"next" form:"next"`
}

type CookieConfig struct {
	Name     string
	Domain   string
	Secure   bool
	LoginURL string
}

type AuthHandler struct {
	users  *services.UserService
	tokens *auth.TokenIssuer
	cookie CookieConfig
}

func NewAuthHandler(users *services.UserService, tokens *auth.TokenIssuer, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, cookie: cookie}
}

func (h *AuthHandler) setSession(ctx *gin.Context, user *models.User) error {
	token, err := h.tokens.Generate(user.ID, user.Username)

	if err != nil {
		return err
	}

	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   int(h.tokens.TTL().Seconds()),
		Secure:   h.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

func (h *AuthHandler) clearSession(ctx *gin.Context) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   -1,
		Secure:   h.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Register creates an employee account, signs it in and redirects by role.
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req services.RegisterInput

	if err := ctx.ShouldBind(&req); err != nil {
		_ = ctx.Error(apperrors.FromValidator(err))
		return
	}

	user, err := h.users.Register(ctx.Request.Context(), req)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	if err := h.setSession(ctx, user); err != nil {
		logger.Error("Failed to generate session token", zap.Uint("user_id", user.ID), zap.Error(err))
		_ = ctx.Error(apperrors.Internal(apperrors.CodeInternal, "failed to sign in", err))
		return
	}

	ctx.Redirect(http.StatusSeeOther, services.HomePath(user))
}

func (h *AuthHandler) LoginForm(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"fields": []gin.H{
			{"name": "username", "label": "Username", "required": true},
			{"name": "password", "label": "Password", "required": true},
		},
		"next": utils.SafeNext(ctx.Query("next"), ""),
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginUserRequest

	if err := ctx.ShouldBind(&req); err != nil {
		_ = ctx.Error(apperrors.FromValidator(err))
		return
	}

	if req.Next == "" {
		req.Next = ctx.Query("next")
	}

	user, err := h.users.Authenticate(ctx.Request.Context(), req.Username, req.Password)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	if err := h.setSession(ctx, user); err != nil {
		logger.Error("Failed to generate session token", zap.Uint("user_id", user.ID), zap.Error(err))
		_ = ctx.Error(apperrors.Internal(apperrors.CodeInternal, "failed to sign in", err))
		return
	}

	ctx.Redirect(http.StatusSeeOther, utils.SafeNext(req.Next, services.HomePath(user)))
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.clearSession(ctx)
	ctx.Redirect(http.StatusSeeOther, h.cookie.LoginURL)
}

// Home sends visitors to the page for their role.
func (h *AuthHandler) Home(ctx *gin.Context) {
	user := utils.OptionalUser(ctx)

	if user == nil {
		ctx.Redirect(http.StatusFound, h.cookie.LoginURL)
		return
	}

	ctx.Redirect(http.StatusFound, services.HomePath(user))
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": userResponse(currentUser)})
}
