package models

import (
	"github.com/safetytracker/safetytracker/internal/types"
	"gorm.io/gorm"
)

type Profile struct {
	gorm.Model

	UserID uint       `gorm:"not null;uniqueIndex"`
	Role   types.Role `gorm:"size:10;not null;default:employee;index"`
}

func (p *Profile) IsManager() bool {
	return p.Role == types.RoleManager
}

func (p *Profile) IsEmployee() bool {
	return p.Role == types.RoleEmployee
}

func (p *Profile) RoleLabel() string {
	return p.Role.Label()
}
