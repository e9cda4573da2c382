package routes

import (
	"mealplan-server/models"
	"mealplan-server/storage"
	"mealplan-server/utils"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
)

// SetDefaultPlan records which plan loads when none is requested. The target
// must be owned by or shared with the caller.
func SetDefaultPlan(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input SetDefaultPlanInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var plan models.MealPlan
	if err := storage.DB.First(&plan, input.PlanID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if plan.UserID != claims.ID {
		var share models.PlanShare
		if err := storage.DB.Where("plan_id = ? AND shared_with_email = ?", plan.ID, claims.Email).
			First(&share).Error; err != nil {
			utils.CreateNotFound(ctx)
			return
		}
	}

	if err := setDefaultPlanPreference(claims.ID, &plan.ID); err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"defaultPlanID": plan.ID})
}

type SetDefaultPlanInput struct {
	PlanID uint `json:"planID" validate:"required"`
}
