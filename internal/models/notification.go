package models

import (
	"github.com/safetytracker/safetytracker/internal/types"
	"gorm.io/gorm"
)

type Notification struct {
	gorm.Model

	UserID     uint                   `gorm:"not null;index:idx_notifications_user_read,priority:1"`
	IncidentID uint                   `gorm:"not null;index"`
	Message    string                 `gorm:"size:255;not null"`
	Type       types.NotificationType `gorm:"size:20;not null"`
	IsRead     bool                   `gorm:"not null;default:false;index:idx_notifications_user_read,priority:2"`

	// Relationships
	Incident Incident `gorm:"foreignKey:IncidentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	User     User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
