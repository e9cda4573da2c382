package services

import (
	"errors"
	"strconv"

	"mealplan-server/models"
	"mealplan-server/storage"

	"gorm.io/gorm"
)

// ErrPlanNotFound covers both a missing plan and a plan the requester may not
// see. Callers must not distinguish the two cases in responses.
var ErrPlanNotFound = errors.New("plan not found")

// Requester identifies the caller for authorization purposes. A nil Requester
// is an anonymous visitor.
type Requester struct {
	ID    uint
	Email string
}

type DayMealView struct {
	models.Meal
	DayMealID  uint `json:"dayMealID"`
	OrderIndex int  `json:"orderIndex"`
}

type DayView struct {
	ID         uint          `json:"id"`
	PlanID     uint          `json:"planID"`
	DayName    string        `json:"dayName"`
	OrderIndex int           `json:"orderIndex"`
	IsActive   bool          `json:"isActive"`
	Meals      []DayMealView `json:"meals"`
}

type PlanView struct {
	PlanID       uint      `json:"planID"`
	PlanName     string    `json:"planName"`
	PlanSubtitle string    `json:"planSubtitle"`
	OwnerID      uint      `json:"ownerID"`
	IsPublic     bool      `json:"isPublic"`
	CanEdit      bool      `json:"canEdit"`
	Days         []DayView `json:"days"`
}

// ResolvePlanID picks which plan to load when none was requested explicitly:
// the requester's default preference, else their earliest-created plan, else
// (for anonymous visitors) the admin-configured featured public plan.
func ResolvePlanID(requestedID uint, req *Requester) (uint, error) {
	if requestedID != 0 {
		return requestedID, nil
	}

	if req != nil {
		var prefs models.UserPreferences
		err := storage.DB.Where("user_id = ?", req.ID).First(&prefs).Error
		if err == nil && prefs.DefaultPlanID != nil {
			return *prefs.DefaultPlanID, nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}

		var plan models.MealPlan
		err = storage.DB.Where("user_id = ?", req.ID).
			Order("created_at ASC").
			First(&plan).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrPlanNotFound
		}
		if err != nil {
			return 0, err
		}
		return plan.ID, nil
	}

	featuredID, err := FeaturedPlanID()
	if err != nil {
		return 0, err
	}
	if featuredID == 0 {
		return 0, ErrPlanNotFound
	}
	return featuredID, nil
}

// FeaturedPlanID reads the featured-plan setting. Returns 0 when unset or
// unparseable; a broken setting renders as "no plan found", never as a
// fallback to some other plan.
func FeaturedPlanID() (uint, error) {
	var setting models.AppSetting
	err := storage.DB.Where("key = ?", models.SettingFeaturedPlanID).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	id, parseErr := strconv.ParseUint(setting.Value, 10, 32)
	if parseErr != nil {
		return 0, nil
	}
	return uint(id), nil
}

// CanEditPlan reports whether the requester owns the plan or holds an
// edit-permission share for it.
func CanEditPlan(plan *models.MealPlan, req *Requester) bool {
	if req == nil {
		return false
	}
	if plan.UserID == req.ID {
		return true
	}
	if req.Email == "" {
		return false
	}
	var share models.PlanShare
	err := storage.DB.Where("plan_id = ? AND shared_with_email = ?", plan.ID, req.Email).
		First(&share).Error
	if err != nil {
		return false
	}
	return share.Permission == models.SharePermissionEdit
}

// canViewPlan: owner, any share grant, or public.
func canViewPlan(plan *models.MealPlan, req *Requester) bool {
	if plan.IsPublic {
		return true
	}
	if req == nil {
		return false
	}
	if plan.UserID == req.ID {
		return true
	}
	if req.Email == "" {
		return false
	}
	var share models.PlanShare
	err := storage.DB.Where("plan_id = ? AND shared_with_email = ?", plan.ID, req.Email).
		First(&share).Error
	return err == nil
}

// GetPlan loads the plan row and enforces visibility. Missing and forbidden
// both come back as ErrPlanNotFound.
func GetPlan(planID uint, req *Requester) (*models.MealPlan, error) {
	var plan models.MealPlan
	err := storage.DB.First(&plan, planID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	if !canViewPlan(&plan, req) {
		return nil, ErrPlanNotFound
	}
	return &plan, nil
}

// LoadPlanView assembles the full plan state: metadata, edit permission, days
// in order, and each day's ordered meals. Days, junction rows and meals are
// each fetched in a single query; junction rows and meals are stitched
// together in memory rather than joined per day.
func LoadPlanView(planID uint, req *Requester) (*PlanView, error) {
	plan, err := GetPlan(planID, req)
	if err != nil {
		return nil, err
	}

	view := PlanView{
		PlanID:       plan.ID,
		PlanName:     plan.Name,
		PlanSubtitle: plan.Subtitle,
		OwnerID:      plan.UserID,
		IsPublic:     plan.IsPublic,
		CanEdit:      CanEditPlan(plan, req),
		Days:         []DayView{},
	}

	var days []models.MealPlanDay
	if err := storage.DB.Where("plan_id = ?", plan.ID).
		Order("order_index ASC").
		Find(&days).Error; err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return &view, nil
	}

	dayIDs := make([]uint, 0, len(days))
	for _, day := range days {
		dayIDs = append(dayIDs, day.ID)
	}

	var dayMeals []models.DayMeal
	if err := storage.DB.Where("day_id IN ?", dayIDs).
		Order("order_index ASC").
		Find(&dayMeals).Error; err != nil {
		return nil, err
	}

	mealIDSet := make(map[uint]struct{}, len(dayMeals))
	mealIDs := make([]uint, 0, len(dayMeals))
	for _, dm := range dayMeals {
		if _, seen := mealIDSet[dm.MealID]; !seen {
			mealIDSet[dm.MealID] = struct{}{}
			mealIDs = append(mealIDs, dm.MealID)
		}
	}

	mealsByID := make(map[uint]models.Meal, len(mealIDs))
	if len(mealIDs) > 0 {
		var meals []models.Meal
		if err := storage.DB.Where("id IN ?", mealIDs).Find(&meals).Error; err != nil {
			return nil, err
		}
		for _, meal := range meals {
			mealsByID[meal.ID] = meal
		}
	}

	mealsByDay := make(map[uint][]DayMealView, len(days))
	for _, dm := range dayMeals {
		meal, ok := mealsByID[dm.MealID]
		if !ok {
			// junction row pointing at a meal deleted out from under it
			continue
		}
		mealsByDay[dm.DayID] = append(mealsByDay[dm.DayID], DayMealView{
			Meal:       meal,
			DayMealID:  dm.ID,
			OrderIndex: dm.OrderIndex,
		})
	}

	for _, day := range days {
		meals := mealsByDay[day.ID]
		if meals == nil {
			meals = []DayMealView{}
		}
		view.Days = append(view.Days, DayView{
			ID:         day.ID,
			PlanID:     day.PlanID,
			DayName:    day.DayName,
			OrderIndex: day.OrderIndex,
			IsActive:   day.IsActive,
			Meals:      meals,
		})
	}

	return &view, nil
}

// LoadPlanViewByToken resolves a plan through its share token. Only public
// plans resolve; the assembled view is always read-only.
func LoadPlanViewByToken(token string) (*PlanView, error) {
	var plan models.MealPlan
	err := storage.DB.Where("share_token = ? AND is_public = ?", token, true).
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}

	view, loadErr := LoadPlanView(plan.ID, nil)
	if loadErr != nil {
		return nil, loadErr
	}
	view.CanEdit = false
	return view, nil
}
