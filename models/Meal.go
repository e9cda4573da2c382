package models

import (
	"time"
)

type Meal struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"userID" gorm:"index;not null"`
	Name         string    `json:"name" gorm:"not null"`
	Ingredients  string    `json:"ingredients" gorm:"type:text"`  // newline-delimited lines
	Instructions string    `json:"instructions" gorm:"type:text"`
	VideoURL     string    `json:"videoURL"`
	CuisineType  string    `json:"cuisineType" gorm:"size:50"`
	IsPrivate    bool      `json:"isPrivate" gorm:"default:false"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID"`
}
