package types

import "time"

type UserResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	RoleLabel string `json:"role_label"`
}

type UserRef struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type IncidentResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Slug        string    `json:"slug"`
	Banner      string    `json:"banner"`
	Status      Status    `json:"status"`
	StatusLabel string    `json:"status_label"`
	Reporter    *UserRef  `json:"reporter"`
	AssignedTo  *UserRef  `json:"assigned_to"`
	CreatedAt   time.Time `json:"created_at"`
}

type NotificationResponse struct {
	ID           uint             `json:"id"`
	IncidentID   uint             `json:"incident_id"`
	IncidentSlug string           `json:"incident_slug"`
	Message      string           `json:"message"`
	Type         NotificationType `json:"type"`
	TypeLabel    string           `json:"type_label"`
	IsRead       bool             `json:"is_read"`
	CreatedAt    time.Time        `json:"created_at"`
}

type ActivityResponse struct {
	ID           uint           `json:"id"`
	IncidentID   uint           `json:"incident_id"`
	IncidentSlug string         `json:"incident_slug"`
	Actor        *UserRef       `json:"actor"`
	Kind         ActivityKind   `json:"kind"`
	Details      map[string]any `json:"details"`
	CreatedAt    time.Time      `json:"created_at"`
}
