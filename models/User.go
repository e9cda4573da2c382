package models

import (
	"time"
)

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-"`
	Role      string    `json:"role" gorm:"type:varchar(20);default:user;index"` // user, admin
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Meals []Meal     `json:"meals,omitempty" gorm:"foreignKey:UserID;references:ID"`
	Plans []MealPlan `json:"plans,omitempty" gorm:"foreignKey:UserID;references:ID"`
}
