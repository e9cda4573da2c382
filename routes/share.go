package routes

import (
	"errors"
	"regexp"
	"strings"

	"mealplan-server/models"
	"mealplan-server/storage"
	"mealplan-server/utils"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// GetShares lists a plan's share grants, newest first. Owner only.
func GetShares(ctx iris.Context) {
	plan, ok := loadOwnedPlan(ctx)
	if !ok {
		return
	}

	var shares []models.PlanShare
	if err := storage.DB.Where("plan_id = ?", plan.ID).
		Order("created_at DESC").
		Find(&shares).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"shares": shares})
}

// CreateShare grants view or edit access to an email. A duplicate
// (plan, email) pair is rejected by the unique index and surfaced as
// "already shared".
func CreateShare(ctx iris.Context) {
	plan, ok := loadOwnedPlan(ctx)
	if !ok {
		return
	}

	var input CreateShareInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !emailPattern.MatchString(email) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Please enter a valid email address.", ctx)
		return
	}
	if input.Permission != models.SharePermissionView && input.Permission != models.SharePermissionEdit {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Permission must be view or edit.", ctx)
		return
	}

	share := models.PlanShare{
		PlanID:          plan.ID,
		SharedWithEmail: email,
		Permission:      input.Permission,
	}

	if err := storage.DB.Create(&share).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.CreateError(iris.StatusConflict, "Already Shared", "This plan is already shared with this email.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"share": share})
}

// DeleteShare revokes a grant. Only the plan owner may revoke.
func DeleteShare(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	shareID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var share models.PlanShare
	if err := storage.DB.First(&share, shareID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var plan models.MealPlan
	if err := storage.DB.Where("id = ? AND user_id = ?", share.PlanID, claims.ID).
		First(&plan).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if err := storage.DB.Delete(&models.PlanShare{}, share.ID).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

// loadOwnedPlan resolves the {id} plan and requires ownership; shares are
// managed only by the owner.
func loadOwnedPlan(ctx iris.Context) (*models.MealPlan, bool) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	planID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return nil, false
	}

	var plan models.MealPlan
	if err := storage.DB.Where("id = ? AND user_id = ?", planID, claims.ID).
		First(&plan).Error; err != nil {
		utils.CreateNotFound(ctx)
		return nil, false
	}

	return &plan, true
}

type CreateShareInput struct {
	Email      string `json:"email" validate:"required"`
	Permission string `json:"permission" validate:"required"`
}
