package models

import (
	"time"
)

const (
	SharePermissionView = "view"
	SharePermissionEdit = "edit"
)

type PlanShare struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	PlanID          uint      `json:"planID" gorm:"not null;uniqueIndex:idx_plan_share_email"`
	SharedWithEmail string    `json:"sharedWithEmail" gorm:"not null;uniqueIndex:idx_plan_share_email"`
	Permission      string    `json:"permission" gorm:"type:varchar(10);default:view"` // view, edit
	CreatedAt       time.Time `json:"createdAt"`

	Plan MealPlan `json:"-" gorm:"foreignKey:PlanID;references:ID"`
}
