package models

import (
	"time"
)

// PlanIngredientStatus is the per-plan "have it" checklist. Ingredient holds
// the normalized key (trimmed, lowercased), so textually different lines that
// normalize the same share one row.
type PlanIngredientStatus struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	PlanID     uint      `json:"planID" gorm:"not null;uniqueIndex:idx_plan_ingredient"`
	Ingredient string    `json:"ingredient" gorm:"not null;uniqueIndex:idx_plan_ingredient"`
	HasItem    bool      `json:"hasItem" gorm:"default:false"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Plan MealPlan `json:"-" gorm:"foreignKey:PlanID;references:ID"`
}
