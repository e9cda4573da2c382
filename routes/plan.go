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

const maxPlansPerUser = 3

var defaultDayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// GetPlanView is the main plan endpoint, open to anonymous callers. Without
// an explicit id it falls back to the caller's default plan, their earliest
// plan, or (anonymous) the featured public plan.
func GetPlanView(ctx iris.Context) {
	req := requester(utils.GetOptionalUser(ctx))

	requestedID := uint(ctx.URLParamIntDefault("id", 0))

	planID, err := services.ResolvePlanID(requestedID, req)
	if err != nil {
		handlePlanError(err, ctx)
		return
	}

	view, err := services.LoadPlanView(planID, req)
	if err != nil {
		handlePlanError(err, ctx)
		return
	}

	ctx.JSON(view)
}

// GetPlanByShareToken serves the public share link. Resolves only when the
// plan is public; an unknown token and a withdrawn plan look identical.
func GetPlanByShareToken(ctx iris.Context) {
	token := ctx.Params().Get("token")
	view, err := services.LoadPlanViewByToken(token)
	if err != nil {
		handlePlanError(err, ctx)
		return
	}
	ctx.JSON(view)
}

// GetPlans lists the caller's owned plans plus plans shared to their email.
func GetPlans(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var owned []models.MealPlan
	if err := storage.DB.Where("user_id = ?", claims.ID).
		Order("created_at ASC").
		Find(&owned).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var shares []models.PlanShare
	if err := storage.DB.Where("shared_with_email = ?", claims.Email).
		Find(&shares).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	shared := []iris.Map{}
	if len(shares) > 0 {
		planIDs := make([]uint, 0, len(shares))
		for _, share := range shares {
			planIDs = append(planIDs, share.PlanID)
		}
		var sharedPlans []models.MealPlan
		if err := storage.DB.Where("id IN ?", planIDs).Find(&sharedPlans).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		plansByID := make(map[uint]models.MealPlan, len(sharedPlans))
		for _, plan := range sharedPlans {
			plansByID[plan.ID] = plan
		}
		for _, share := range shares {
			plan, ok := plansByID[share.PlanID]
			if !ok {
				continue
			}
			shared = append(shared, iris.Map{
				"shareID":    share.ID,
				"permission": share.Permission,
				"plan":       plan,
			})
		}
	}

	var prefs models.UserPreferences
	var defaultPlanID *uint
	if err := storage.DB.Where("user_id = ?", claims.ID).First(&prefs).Error; err == nil {
		defaultPlanID = prefs.DefaultPlanID
	}

	ctx.JSON(iris.Map{
		"plans":         owned,
		"sharedPlans":   shared,
		"defaultPlanID": defaultPlanID,
	})
}

// CreatePlan enforces the 3-plan cap, seeds the weekday days, and makes the
// first plan the default.
func CreatePlan(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input CreatePlanInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var planCount int64
	if err := storage.DB.Model(&models.MealPlan{}).
		Where("user_id = ?", claims.ID).
		Count(&planCount).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if planCount >= maxPlansPerUser {
		utils.CreateError(iris.StatusConflict, "Plan Limit", "You can only create up to 3 meal plans.", ctx)
		return
	}

	plan := models.MealPlan{
		UserID:   claims.ID,
		Name:     input.Name,
		Subtitle: input.Subtitle,
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&plan).Error; err != nil {
			return err
		}
		days := make([]models.MealPlanDay, 0, len(defaultDayNames))
		for idx, name := range defaultDayNames {
			days = append(days, models.MealPlanDay{
				PlanID:     plan.ID,
				UserID:     claims.ID,
				DayName:    name,
				OrderIndex: idx,
				IsActive:   true,
			})
		}
		return tx.Create(&days).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// First plan becomes the default.
	if planCount == 0 {
		setDefaultPlanPreference(claims.ID, &plan.ID)
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"plan": plan})
}

// UpdatePlan renames the plan title/subtitle. Edit-permission holders may
// rename too, matching the plan page's inline title editor.
func UpdatePlan(ctx iris.Context) {
	plan, _, ok := loadPlanForEdit(ctx)
	if !ok {
		return
	}

	var input UpdatePlanInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Name != nil {
		plan.Name = *input.Name
	}
	if input.Subtitle != nil {
		plan.Subtitle = *input.Subtitle
	}

	if err := storage.DB.Save(plan).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"plan": plan})
}

// DeletePlan removes an owned plan and everything hanging off it. The last
// remaining plan cannot be deleted; if the default pointed here it moves to
// the earliest surviving plan.
func DeletePlan(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	planID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var plan models.MealPlan
	if err := storage.DB.Where("id = ? AND user_id = ?", planID, claims.ID).
		First(&plan).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var planCount int64
	if err := storage.DB.Model(&models.MealPlan{}).
		Where("user_id = ?", claims.ID).
		Count(&planCount).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if planCount <= 1 {
		utils.CreateError(iris.StatusConflict, "Last Plan", "You must keep at least one meal plan.", ctx)
		return
	}

	if err := deletePlanCascade(storage.DB, plan.ID); err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// Re-point the default preference if it referenced the deleted plan.
	var prefs models.UserPreferences
	if err := storage.DB.Where("user_id = ?", claims.ID).First(&prefs).Error; err == nil {
		if prefs.DefaultPlanID != nil && *prefs.DefaultPlanID == plan.ID {
			var next models.MealPlan
			if err := storage.DB.Where("user_id = ?", claims.ID).
				Order("created_at ASC").
				First(&next).Error; err == nil {
				setDefaultPlanPreference(claims.ID, &next.ID)
			} else {
				setDefaultPlanPreference(claims.ID, nil)
			}
		}
	}

	ctx.JSON(iris.Map{"success": true})
}

// TogglePlanVisibility flips is_public, minting the share token on the first
// publish. The token survives later private/public flips so the share link
// stays stable.
func TogglePlanVisibility(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	planID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var plan models.MealPlan
	if err := storage.DB.Where("id = ? AND user_id = ?", planID, claims.ID).
		First(&plan).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	plan.IsPublic = !plan.IsPublic
	if plan.IsPublic && plan.ShareToken == nil {
		token := utils.GenerateShareToken(12)
		plan.ShareToken = &token
	}

	saveErr := storage.DB.Save(&plan).Error
	if errors.Is(saveErr, gorm.ErrDuplicatedKey) && plan.ShareToken != nil {
		// Token collision against the unique index; retry once with a fresh one.
		token := utils.GenerateShareToken(12)
		plan.ShareToken = &token
		saveErr = storage.DB.Save(&plan).Error
	}
	if saveErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"plan": plan})
}

// deletePlanCascade removes the plan with its days, junction rows, shares and
// checklist rows in one transaction. Also used by admin user deletion.
func deletePlanCascade(db *gorm.DB, planID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var dayIDs []uint
		if err := tx.Model(&models.MealPlanDay{}).
			Where("plan_id = ?", planID).
			Pluck("id", &dayIDs).Error; err != nil {
			return err
		}
		if len(dayIDs) > 0 {
			if err := tx.Where("day_id IN ?", dayIDs).Delete(&models.DayMeal{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("plan_id = ?", planID).Delete(&models.MealPlanDay{}).Error; err != nil {
			return err
		}
		if err := tx.Where("plan_id = ?", planID).Delete(&models.PlanShare{}).Error; err != nil {
			return err
		}
		if err := tx.Where("plan_id = ?", planID).Delete(&models.PlanIngredientStatus{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.MealPlan{}, planID).Error
	})
}

// loadPlanForEdit resolves the {id} plan and enforces edit permission,
// answering 404 for missing/invisible plans and 403 for view-only access.
func loadPlanForEdit(ctx iris.Context) (*models.MealPlan, *services.Requester, bool) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	req := requester(claims)

	planID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return nil, nil, false
	}

	plan, planErr := services.GetPlan(planID, req)
	if planErr != nil {
		handlePlanError(planErr, ctx)
		return nil, nil, false
	}

	if !services.CanEditPlan(plan, req) {
		utils.CreateForbidden(ctx)
		return nil, nil, false
	}

	return plan, req, true
}

func handlePlanError(err error, ctx iris.Context) {
	if errors.Is(err, services.ErrPlanNotFound) {
		utils.CreateNotFound(ctx)
		return
	}
	utils.CreateInternalServerError(ctx)
}

func setDefaultPlanPreference(userID uint, planID *uint) error {
	var prefs models.UserPreferences
	err := storage.DB.Where("user_id = ?", userID).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prefs = models.UserPreferences{UserID: userID, DefaultPlanID: planID}
		return storage.DB.Create(&prefs).Error
	}
	if err != nil {
		return err
	}
	prefs.DefaultPlanID = planID
	return storage.DB.Save(&prefs).Error
}

type CreatePlanInput struct {
	Name     string `json:"name" validate:"required,max=50"`
	Subtitle string `json:"subtitle" validate:"max=100"`
}

type UpdatePlanInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=50"`
	Subtitle *string `json:"subtitle" validate:"omitempty,max=100"`
}
