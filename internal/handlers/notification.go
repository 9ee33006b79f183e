package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/safetytracker/safetytracker/internal/pkg/errors"
	"github.com/safetytracker/safetytracker/internal/services"
	"github.com/safetytracker/safetytracker/internal/utils"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	items, unread, err := h.notifications.List(ctx.Request.Context(), user)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"notifications": notificationResponses(items),
		"unread_count":  unread,
	})
}

// MarkRead marks one notification read and sends the caller to its incident.
func (h *NotificationHandler) MarkRead(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)

	if err != nil {
		_ = ctx.Error(apperrors.NotFound(apperrors.CodeNotificationNotFound, "notification not found"))
		return
	}

	n, err := h.notifications.MarkRead(ctx.Request.Context(), user, uint(id))

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.Redirect(http.StatusSeeOther, incidentPath(&n.Incident))
}

func (h *NotificationHandler) MarkAllRead(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if _, err := h.notifications.MarkAllRead(ctx.Request.Context(), user); err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.Redirect(http.StatusSeeOther, "/notifications/")
}

// UnreadCount is served to anonymous callers too; they always see zero.
func (h *NotificationHandler) UnreadCount(ctx *gin.Context) {
	count, err := h.notifications.UnreadCount(ctx.Request.Context(), utils.OptionalUser(ctx))

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"count": count})
}
