package routes

import (
	"errors"

	"mealplan-server/models"
	"mealplan-server/services"
	"mealplan-server/storage"
	"mealplan-server/utils"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
)

// AddMealToDay assigns a meal at the end of the day (order_index max+1).
// The duplicate pre-check is a fast path; the (day_id, meal_id) unique index
// is the authoritative one and concurrent inserts fall through to it.
func AddMealToDay(ctx iris.Context) {
	day, ok := loadDayForEdit(ctx)
	if !ok {
		return
	}

	var input AddMealToDayInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	var meal models.Meal
	if err := storage.DB.First(&meal, input.MealID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if meal.IsPrivate && meal.UserID != claims.ID {
		utils.CreateNotFound(ctx)
		return
	}

	var existing int64
	if err := storage.DB.Model(&models.DayMeal{}).
		Where("day_id = ? AND meal_id = ?", day.ID, meal.ID).
		Count(&existing).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if existing > 0 {
		utils.CreateError(iris.StatusConflict, "Duplicate Meal", "This meal is already in this day.", ctx)
		return
	}

	var maxOrder int
	row := storage.DB.Model(&models.DayMeal{}).
		Where("day_id = ?", day.ID).
		Select("COALESCE(MAX(order_index), -1)").
		Row()
	if err := row.Scan(&maxOrder); err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	dayMeal := models.DayMeal{
		DayID:      day.ID,
		MealID:     meal.ID,
		OrderIndex: maxOrder + 1,
	}

	if err := storage.DB.Create(&dayMeal).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.CreateError(iris.StatusConflict, "Duplicate Meal", "This meal is already in this day.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"dayMeal": dayMeal})
}

// ReorderDayMeals persists a drag reorder. The payload is the complete
// permutation of the day's junction ids; every row is rewritten to 0..n-1 in
// one transaction so a half-applied reorder can never land in storage.
func ReorderDayMeals(ctx iris.Context) {
	day, ok := loadDayForEdit(ctx)
	if !ok {
		return
	}

	var input ReorderDayMealsInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var current []models.DayMeal
	if err := storage.DB.Where("day_id = ?", day.ID).Find(&current).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if len(input.DayMealIDs) != len(current) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Reorder must include every meal in the day exactly once.", ctx)
		return
	}
	currentIDs := make(map[uint]struct{}, len(current))
	for _, dm := range current {
		currentIDs[dm.ID] = struct{}{}
	}
	for _, id := range input.DayMealIDs {
		if _, ok := currentIDs[id]; !ok {
			utils.CreateError(iris.StatusBadRequest, "Validation Error", "Unknown meal assignment in reorder.", ctx)
			return
		}
		delete(currentIDs, id)
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		for idx, id := range input.DayMealIDs {
			if err := tx.Model(&models.DayMeal{}).
				Where("id = ?", id).
				Update("order_index", idx).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

// RemoveMealFromDay deletes one junction row. Surviving rows keep their
// order_index values (sparse, no renumbering).
func RemoveMealFromDay(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	req := requester(claims)

	dayMealID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var dayMeal models.DayMeal
	if err := storage.DB.First(&dayMeal, dayMealID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var day models.MealPlanDay
	if err := storage.DB.First(&day, dayMeal.DayID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	plan, planErr := services.GetPlan(day.PlanID, req)
	if planErr != nil {
		handlePlanError(planErr, ctx)
		return
	}
	if !services.CanEditPlan(plan, req) {
		utils.CreateForbidden(ctx)
		return
	}

	if err := storage.DB.Delete(&models.DayMeal{}, dayMeal.ID).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

type AddMealToDayInput struct {
	MealID uint `json:"mealID" validate:"required"`
}

type ReorderDayMealsInput struct {
	DayMealIDs []uint `json:"dayMealIDs" validate:"required"`
}
