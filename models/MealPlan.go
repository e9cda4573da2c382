package models

import (
	"time"
)

type MealPlan struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"userID" gorm:"index;not null"`
	Name       string    `json:"name" gorm:"not null"`
	Subtitle   string    `json:"subtitle"`
	IsPublic   bool      `json:"isPublic" gorm:"default:false"`
	ShareToken *string   `json:"shareToken" gorm:"uniqueIndex"` // set on first publish, never regenerated
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	User User          `json:"-" gorm:"foreignKey:UserID;references:ID"`
	Days []MealPlanDay `json:"days,omitempty" gorm:"foreignKey:PlanID;references:ID"`
}
