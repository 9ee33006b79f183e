package models

import (
	"time"

	"github.com/safetytracker/safetytracker/internal/types"
)

type Incident struct {
	// No DeletedAt: rows are hard-deleted so the SET NULL and CASCADE
	// foreign keys fire.
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Title        string       `gorm:"size:75;not null"`
	Body         string       `gorm:"type:text;not null"`
	Slug         string       `gorm:"size:255;not null;uniqueIndex"`
	Banner       string       `gorm:"size:255;not null;default:fallback.jpg"`
	Status       types.Status `gorm:"size:20;not null;default:new;index"`
	ReporterID   *uint        `gorm:"index"`
	AssignedToID *uint        `gorm:"index"`

	// Relationships
	Reporter      *User          `gorm:"foreignKey:ReporterID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	AssignedTo    *User          `gorm:"foreignKey:AssignedToID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Notifications []Notification `gorm:"foreignKey:IncidentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
