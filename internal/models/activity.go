package models

import (
	"github.com/safetytracker/safetytracker/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// IncidentActivity is an append-only audit entry for an incident.
type IncidentActivity struct {
	gorm.Model

	IncidentID uint               `gorm:"not null;index"`
	ActorID    *uint              `gorm:"index"`
	Kind       types.ActivityKind `gorm:"size:20;not null"`
	Details    datatypes.JSON

	// Relationships
	Incident Incident `gorm:"foreignKey:IncidentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Actor    *User    `gorm:"foreignKey:ActorID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}
