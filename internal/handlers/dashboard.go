package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safetytracker/safetytracker/internal/services"
	"github.com/safetytracker/safetytracker/internal/types"
	"github.com/safetytracker/safetytracker/internal/utils"
)

type DashboardHandler struct {
	incidents *services.IncidentService
}

func NewDashboardHandler(incidents *services.IncidentService) *DashboardHandler {
	return &DashboardHandler{incidents: incidents}
}

func (h *DashboardHandler) Show(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	stats, err := h.incidents.Dashboard(ctx.Request.Context(), user)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	byStatus := make([]gin.H, 0, len(types.Statuses))
	for _, s := range types.Statuses {
		byStatus = append(byStatus, gin.H{
			"status": s,
			"label":  s.Label(),
			"count":  stats.ByStatus[s],
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"total_incidents":  stats.Total,
		"by_status":        byStatus,
		"unassigned":       stats.Unassigned,
		"assigned_to_me":   stats.AssignedToMe,
		"recent_incidents": incidentResponses(stats.RecentIncidents),
		"recent_activity":  activityResponses(stats.RecentActivity),
	})
}
