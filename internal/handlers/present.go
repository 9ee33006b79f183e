package handlers

import (
	"encoding/json"

	"github.com/safetytracker/safetytracker/internal/models"
	"github.com/safetytracker/safetytracker/internal/types"
)

func userRef(u *models.User) *types.UserRef {
	if u == nil {
		return nil
	}
	return &types.UserRef{ID: u.ID, Username: u.Username}
}

func userResponse(u *models.User) types.UserResponse {
	role := types.RoleEmployee
	if u.Profile != nil {
		role = u.Profile.Role
	}
	return types.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      role,
		RoleLabel: role.Label(),
	}
}

func incidentResponse(inc *models.Incident) types.IncidentResponse {
	return types.IncidentResponse{
		ID:          inc.ID,
		Title:       inc.Title,
		Body:        inc.Body,
		Slug:        inc.Slug,
		Banner:      inc.Banner,
		Status:      inc.Status,
		StatusLabel: inc.Status.Label(),
		Reporter:    userRef(inc.Reporter),
		AssignedTo:  userRef(inc.AssignedTo),
		CreatedAt:   inc.CreatedAt,
	}
}

func incidentResponses(incidents []models.Incident) []types.IncidentResponse {
	out := make([]types.IncidentResponse, 0, len(incidents))
	for i := range incidents {
		out = append(out, incidentResponse(&incidents[i]))
	}
	return out
}

func notificationResponses(notifications []models.Notification) []types.NotificationResponse {
	out := make([]types.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, types.NotificationResponse{
			ID:           n.ID,
			IncidentID:   n.IncidentID,
			IncidentSlug: n.Incident.Slug,
			Message:      n.Message,
			Type:         n.Type,
			TypeLabel:    n.Type.Label(),
			IsRead:       n.IsRead,
			CreatedAt:    n.CreatedAt,
		})
	}
	return out
}

func activityResponses(entries []models.IncidentActivity) []types.ActivityResponse {
	out := make([]types.ActivityResponse, 0, len(entries))
	for _, a := range entries {
		details := map[string]any{}
		if len(a.Details) > 0 {
			_ = json.Unmarshal(a.Details, &details)
		}
		out = append(out, types.ActivityResponse{
			ID:           a.ID,
			IncidentID:   a.IncidentID,
			IncidentSlug: a.Incident.Slug,
			Actor:        userRef(a.Actor),
			Kind:         a.Kind,
			Details:      details,
			CreatedAt:    a.CreatedAt,
		})
	}
	return out
}

func userRefs(users []models.User) []types.UserRef {
	out := make([]types.UserRef, 0, len(users))
	for i := range users {
		out = append(out, *userRef(&users[i]))
	}
	return out
}
