package routes

import (
	"strconv"
	"strings"

	"mealplan-server/models"
	"mealplan-server/storage"
	"mealplan-server/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AdminListUsers - GET /admin/users?q=&page=&per_page=
func AdminListUsers(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	query := storage.DB.Model(&models.User{})
	if q := strings.TrimSpace(ctx.URLParamDefault("q", "")); q != "" {
		query = query.Where("lower(email) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var total int64
	query.Count(&total)

	var users []models.User
	if err := query.Offset((page - 1) * perPage).Limit(perPage).Find(&users).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// Meal counts per listed user, one grouped query.
	counts := map[uint]int64{}
	if len(users) > 0 {
		userIDs := make([]uint, 0, len(users))
		for _, u := range users {
			userIDs = append(userIDs, u.ID)
		}
		type mealCount struct {
			UserID uint
			Count  int64
		}
		var rows []mealCount
		storage.DB.Model(&models.Meal{}).
			Select("user_id, COUNT(*) as count").
			Where("user_id IN ?", userIDs).
			Group("user_id").
			Scan(&rows)
		for _, row := range rows {
			counts[row.UserID] = row.Count
		}
	}

	data := make([]iris.Map, 0, len(users))
	for _, u := range users {
		data = append(data, iris.Map{
			"id":        u.ID,
			"email":     u.Email,
			"role":      u.Role,
			"createdAt": u.CreatedAt,
			"mealCount": counts[u.ID],
		})
	}

	utils.JSONPage(ctx, data, page, perPage, total)
}

// AdminListMeals - GET /admin/meals?q=&page=&per_page=
func AdminListMeals(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	query := storage.DB.Model(&models.Meal{})
	if q := strings.TrimSpace(ctx.URLParamDefault("q", "")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("lower(name) LIKE ? OR lower(cuisine_type) LIKE ?", like, like)
	}

	var total int64
	query.Count(&total)

	var meals []models.Meal
	if err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&meals).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, meals, page, perPage, total)
}

// AdminDeleteMeal removes any meal along with its junction rows.
func AdminDeleteMeal(ctx iris.Context) {
	mealID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"error": "invalid_id"})
		return
	}

	var meal models.Meal
	if err := storage.DB.First(&meal, mealID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meal_id = ?", meal.ID).Delete(&models.DayMeal{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Meal{}, meal.ID).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "meal.delete", "meal", meal.ID, meal, nil)

	ctx.JSON(iris.Map{"success": true})
}

// AdminForceMealPrivate flips a public meal to private without touching the
// plans that already reference it.
func AdminForceMealPrivate(ctx iris.Context) {
	mealID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"error": "invalid_id"})
		return
	}

	var meal models.Meal
	if err := storage.DB.First(&meal, mealID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	before := meal
	meal.IsPrivate = true
	if err := storage.DB.Save(&meal).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "meal.force_private", "meal", meal.ID, before, meal)

	ctx.JSON(iris.Map{"meal": meal})
}

// AdminDeleteUser removes an account and cascades through everything it
// owns: meals (and their junction rows anywhere), plans with days/day-meals/
// shares/checklists, and preferences. Admin accounts cannot be deleted.
func AdminDeleteUser(ctx iris.Context) {
	userID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"error": "invalid_id"})
		return
	}

	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if user.Role == "admin" {
		utils.CreateForbidden(ctx)
		return
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		var planIDs []uint
		if err := tx.Model(&models.MealPlan{}).
			Where("user_id = ?", user.ID).
			Pluck("id", &planIDs).Error; err != nil {
			return err
		}
		for _, planID := range planIDs {
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
			if err := tx.Delete(&models.MealPlan{}, planID).Error; err != nil {
				return err
			}
		}

		// The user's meals may sit in other users' days too.
		var mealIDs []uint
		if err := tx.Model(&models.Meal{}).
			Where("user_id = ?", user.ID).
			Pluck("id", &mealIDs).Error; err != nil {
			return err
		}
		if len(mealIDs) > 0 {
			if err := tx.Where("meal_id IN ?", mealIDs).Delete(&models.DayMeal{}).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", user.ID).Delete(&models.Meal{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserPreferences{}).Error; err != nil {
			return err
		}
		if err := tx.Where("shared_with_email = ?", user.Email).Delete(&models.PlanShare{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, user.ID).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "user.delete", "user", user.ID, user, nil)

	ctx.JSON(iris.Map{"success": true})
}

// AdminSetFeaturedPlan points anonymous visitors at a public plan. Clearing
// it (planID 0) removes the setting.
func AdminSetFeaturedPlan(ctx iris.Context) {
	var input FeaturedPlanInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.PlanID == 0 {
		if err := storage.DB.Where("key = ?", models.SettingFeaturedPlanID).
			Delete(&models.AppSetting{}).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		utils.Audit(ctx, "settings.featured_plan_clear", "app_setting", 0, nil, nil)
		ctx.JSON(iris.Map{"featuredPlanID": nil})
		return
	}

	var plan models.MealPlan
	if err := storage.DB.First(&plan, input.PlanID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if !plan.IsPublic {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Featured plan must be public.", ctx)
		return
	}

	setting := models.AppSetting{
		Key:   models.SettingFeaturedPlanID,
		Value: strconv.FormatUint(uint64(plan.ID), 10),
	}
	upsertErr := storage.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if upsertErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "settings.featured_plan_set", "meal_plan", plan.ID, nil, setting)

	ctx.JSON(iris.Map{"featuredPlanID": plan.ID})
}

type FeaturedPlanInput struct {
	PlanID uint `json:"planID"`
}
