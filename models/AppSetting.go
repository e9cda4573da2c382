package models

import (
	"time"
)

// SettingFeaturedPlanID points anonymous visitors at an admin-chosen public plan.
const SettingFeaturedPlanID = "featured_plan_id"

type AppSetting struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Key       string    `json:"key" gorm:"uniqueIndex;size:64;not null"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}
