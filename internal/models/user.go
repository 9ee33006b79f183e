package models

import "time"

type User struct {
	// No DeletedAt: rows are hard-deleted so the SET NULL and CASCADE
	// foreign keys fire.
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Username     string `gorm:"size:150;uniqueIndex;not null"`
	Email        string
	PasswordHash string `gorm:"not null"`

	// Relationships
	Profile       *Profile       `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Notifications []Notification `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// IsManager reports whether the user has a manager profile. Users without a
// profile are treated as employees.
func (u *User) IsManager() bool {
	return u != nil && u.Profile != nil && u.Profile.IsManager()
}
