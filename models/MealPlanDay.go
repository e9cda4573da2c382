package models

import (
	"time"
)

type MealPlanDay struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	PlanID     uint      `json:"planID" gorm:"index;not null"`
	UserID     uint      `json:"userID" gorm:"index;not null"` // denormalized owner id
	DayName    string    `json:"dayName" gorm:"not null"`
	OrderIndex int       `json:"orderIndex" gorm:"not null"` // sparse, never renumbered on delete
	IsActive   bool      `json:"isActive" gorm:"default:true"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Plan  MealPlan  `json:"-" gorm:"foreignKey:PlanID;references:ID"`
	Meals []DayMeal `json:"meals,omitempty" gorm:"foreignKey:DayID;references:ID"`
}

// DayMeal assigns one Meal to one MealPlanDay. A meal appears at most once per
// day; the unique index is the authoritative check, handlers pre-check only as
// a fast path.
type DayMeal struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	DayID      uint      `json:"dayID" gorm:"not null;uniqueIndex:idx_day_meal"`
	MealID     uint      `json:"mealID" gorm:"not null;uniqueIndex:idx_day_meal"`
	OrderIndex int       `json:"orderIndex" gorm:"not null"`
	CreatedAt  time.Time `json:"createdAt"`

	Day  MealPlanDay `json:"-" gorm:"foreignKey:DayID;references:ID"`
	Meal Meal        `json:"-" gorm:"foreignKey:MealID;references:ID"`
}
