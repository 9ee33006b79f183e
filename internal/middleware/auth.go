package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/safetytracker/safetytracker/internal/accesscontrol"
	"github.com/safetytracker/safetytracker/internal/auth"
	"github.com/safetytracker/safetytracker/internal/models"
	"github.com/safetytracker/safetytracker/internal/monitoring"
	"github.com/safetytracker/safetytracker/internal/pkg/logger"
	"github.com/safetytracker/safetytracker/internal/types"
	"github.com/safetytracker/safetytracker/internal/utils"
)

// UserLoader resolves the user named by a session token.
type UserLoader interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}

type AuthConfig struct {
	CookieName        string
	LoginURL          string
	ForbiddenRedirect string
}

type Auth struct {
	tokens *auth.TokenIssuer
	users  UserLoader
	gate   *accesscontrol.Gate
	cfg    AuthConfig
}

func NewAuth(tokens *auth.TokenIssuer, users UserLoader, gate *accesscontrol.Gate, cfg AuthConfig) *Auth {
	return &Auth{tokens: tokens, users: users, gate: gate, cfg: cfg}
}

func (a *Auth) tokenFromRequest(ctx *gin.Context) string {
	if cookie, err := ctx.Cookie(a.cfg.CookieName); err == nil && cookie != "" {
		return cookie
	}

	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}

	return ""
}

// LoadUser attaches the signed-in user to the context when the request carries
// a valid session. Requests without one continue anonymously.
func (a *Auth) LoadUser() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := a.tokenFromRequest(ctx)

		if tokenString == "" {
			ctx.Next()
			return
		}

		claims, err := a.tokens.Verify(tokenString)

		if err != nil {
			logger.Debug("Ignoring invalid session token", zap.Error(err))
			ctx.Next()
			return
		}

		user, err := a.users.Get(ctx.Request.Context(), claims.UserID)

		if err != nil {
			logger.Debug("Session user not found", zap.Uint("user_id", claims.UserID), zap.Error(err))
			ctx.Next()
			return
		}

		ctx.Set(types.ContextUserKey, user)
		ctx.Next()
	}
}

// RequireLogin redirects anonymous requests to the login page.
func (a *Auth) RequireLogin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if utils.OptionalUser(ctx) == nil {
			ctx.Redirect(http.StatusFound, utils.LoginRedirect(a.cfg.LoginURL, ctx.Request.URL.RequestURI()))
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// RequirePermission redirects callers lacking perm to the configured fallback
// location instead of failing the request.
func (a *Auth) RequirePermission(perm accesscontrol.Permission) gin.HandlerFunc {
	name := string(perm.Object) + ":" + string(perm.Action)

	return func(ctx *gin.Context) {
		user := utils.OptionalUser(ctx)

		if user == nil {
			ctx.Redirect(http.StatusFound, utils.LoginRedirect(a.cfg.LoginURL, ctx.Request.URL.RequestURI()))
			ctx.Abort()
			return
		}

		if !a.gate.Allowed(user, perm) {
			monitoring.AccessDeniedAmount.WithLabelValues(name).Inc()
			logger.Info("Access denied",
				zap.Uint("user_id", user.ID),
				zap.String("permission", name),
				zap.String("path", ctx.Request.URL.Path),
			)
			ctx.Redirect(http.StatusFound, a.cfg.ForbiddenRedirect)
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}
