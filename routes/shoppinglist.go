package routes

import (
	"time"

	"mealplan-server/models"
	"mealplan-server/services"
	"mealplan-server/storage"
	"mealplan-server/utils"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm/clause"
)

// GetShoppingList aggregates the plan's active days into a deduplicated,
// sorted ingredient list merged with the "have it" checklist. Open to
// anonymous callers for public plans.
func GetShoppingList(ctx iris.Context) {
	req := requester(utils.GetOptionalUser(ctx))

	planID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	view, loadErr := services.LoadPlanView(planID, req)
	if loadErr != nil {
		handlePlanError(loadErr, ctx)
		return
	}

	status, statusErr := services.LoadIngredientStatus(view.PlanID)
	if statusErr != nil {
		// Fail softly: the list still renders, just with nothing checked.
		status = map[string]bool{}
	}

	ctx.JSON(iris.Map{
		"planID":      view.PlanID,
		"ingredients": services.BuildShoppingList(view.Days, status),
	})
}

// SetIngredientStatus upserts one checklist entry keyed by the normalized
// ingredient, so edits that normalize to the same key keep their checked
// state. Conflict on (plan, ingredient) resolves to an update.
func SetIngredientStatus(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	req := requester(claims)

	planID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if _, planErr := services.GetPlan(planID, req); planErr != nil {
		handlePlanError(planErr, ctx)
		return
	}

	var input SetIngredientStatusInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	key := services.NormalizeIngredient(input.Ingredient)
	if key == "" {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Ingredient cannot be empty.", ctx)
		return
	}

	row := models.PlanIngredientStatus{
		PlanID:     planID,
		Ingredient: key,
		HasItem:    input.HasItem,
		UpdatedAt:  time.Now(),
	}

	upsertErr := storage.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "plan_id"}, {Name: "ingredient"}},
		DoUpdates: clause.AssignmentColumns([]string{"has_item", "updated_at"}),
	}).Create(&row).Error
	if upsertErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"ingredient": key, "hasItem": input.HasItem})
}

// ResetIngredientStatus clears the plan's whole checklist. The confirmation
// prompt lives in the UI; this executes unconditionally.
func ResetIngredientStatus(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	req := requester(claims)

	planID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if _, planErr := services.GetPlan(planID, req); planErr != nil {
		handlePlanError(planErr, ctx)
		return
	}

	if err := storage.DB.Where("plan_id = ?", planID).
		Delete(&models.PlanIngredientStatus{}).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

type SetIngredientStatusInput struct {
	Ingredient string `json:"ingredient" validate:"required"`
	HasItem    bool   `json:"hasItem"`
}
