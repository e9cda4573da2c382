package models

import (
	"time"
)

// UserPreferences is a per-user singleton row.
type UserPreferences struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UserID        uint      `json:"userID" gorm:"uniqueIndex;not null"`
	DefaultPlanID *uint     `json:"defaultPlanID"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID"`
}
