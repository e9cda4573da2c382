package routes

import (
	"strings"

	"mealplan-server/models"
	"mealplan-server/services"
	"mealplan-server/storage"
	"mealplan-server/utils"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
)

// CreateDay appends a day to the plan at order_index max+1.
func CreateDay(ctx iris.Context) {
	plan, _, ok := loadPlanForEdit(ctx)
	if !ok {
		return
	}

	var input CreateDayInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	name := strings.TrimSpace(input.DayName)
	if name == "" {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Day name cannot be empty.", ctx)
		return
	}

	var maxOrder int
	row := storage.DB.Model(&models.MealPlanDay{}).
		Where("plan_id = ?", plan.ID).
		Select("COALESCE(MAX(order_index), -1)").
		Row()
	if err := row.Scan(&maxOrder); err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	day := models.MealPlanDay{
		PlanID:     plan.ID,
		UserID:     plan.UserID,
		DayName:    name,
		OrderIndex: maxOrder + 1,
		IsActive:   true,
	}

	if err := storage.DB.Create(&day).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"day": day})
}

// UpdateDay renames a day and/or flips its active flag. Inactive days keep
// their meals and order and reappear unchanged when reactivated.
func UpdateDay(ctx iris.Context) {
	day, ok := loadDayForEdit(ctx)
	if !ok {
		return
	}

	var input UpdateDayInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.DayName != nil {
		name := strings.TrimSpace(*input.DayName)
		if name == "" {
			utils.CreateError(iris.StatusBadRequest, "Validation Error", "Day name cannot be empty.", ctx)
			return
		}
		day.DayName = name
	}
	if input.IsActive != nil {
		day.IsActive = *input.IsActive
	}

	if err := storage.DB.Save(day).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"day": day})
}

// DeleteDay removes the day and its junction rows. Other days are not
// renumbered; order_index stays sparse.
func DeleteDay(ctx iris.Context) {
	day, ok := loadDayForEdit(ctx)
	if !ok {
		return
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("day_id = ?", day.ID).Delete(&models.DayMeal{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.MealPlanDay{}, day.ID).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

// loadDayForEdit resolves the {id} day and enforces edit permission on its
// plan. Missing and invisible both answer 404.
func loadDayForEdit(ctx iris.Context) (*models.MealPlanDay, bool) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	req := requester(claims)

	dayID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return nil, false
	}

	var day models.MealPlanDay
	if err := storage.DB.First(&day, dayID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return nil, false
	}

	plan, planErr := services.GetPlan(day.PlanID, req)
	if planErr != nil {
		handlePlanError(planErr, ctx)
		return nil, false
	}
	if !services.CanEditPlan(plan, req) {
		utils.CreateForbidden(ctx)
		return nil, false
	}

	return &day, true
}

type CreateDayInput struct {
	DayName string `json:"dayName" validate:"required,max=100"`
}

type UpdateDayInput struct {
	DayName  *string `json:"dayName" validate:"omitempty,max=100"`
	IsActive *bool   `json:"isActive"`
}
