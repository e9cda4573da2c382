package routes

import (
	"strings"

	"mealplan-server/models"
	"mealplan-server/storage"
	"mealplan-server/utils"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
)

// GetMeals returns the caller's own meals plus everyone's public meals,
// ordered by name for the picker sidebar. Optional q filters by name or
// cuisine.
func GetMeals(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	query := storage.DB.Where("user_id = ? OR is_private = ?", claims.ID, false).
		Order("name ASC")

	if q := strings.TrimSpace(ctx.URLParamDefault("q", "")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("lower(name) LIKE ? OR lower(cuisine_type) LIKE ?", like, like)
	}

	var meals []models.Meal
	if err := query.Find(&meals).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"meals": meals})
}

func CreateMeal(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input MealInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	meal := models.Meal{
		UserID:       claims.ID,
		Name:         strings.TrimSpace(input.Name),
		Ingredients:  input.Ingredients,
		Instructions: input.Instructions,
		VideoURL:     input.VideoURL,
		CuisineType:  input.CuisineType,
		IsPrivate:    input.IsPrivate,
	}

	if err := storage.DB.Create(&meal).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"meal": meal})
}

// UpdateMeal edits an owned meal. Junction rows keep pointing at it, so an
// ingredient edit flows into every plan that uses the meal.
func UpdateMeal(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	mealID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var meal models.Meal
	if err := storage.DB.Where("id = ? AND user_id = ?", mealID, claims.ID).
		First(&meal).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var input MealInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	meal.Name = strings.TrimSpace(input.Name)
	meal.Ingredients = input.Ingredients
	meal.Instructions = input.Instructions
	meal.VideoURL = input.VideoURL
	meal.CuisineType = input.CuisineType
	meal.IsPrivate = input.IsPrivate

	if err := storage.DB.Save(&meal).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"meal": meal})
}

// DeleteMeal removes an owned meal and its junction rows. Remaining rows in
// each affected day keep their order_index values.
func DeleteMeal(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	mealID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var meal models.Meal
	if err := storage.DB.Where("id = ? AND user_id = ?", mealID, claims.ID).
		First(&meal).Error; err != nil {
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

	ctx.JSON(iris.Map{"success": true})
}

type MealInput struct {
	Name         string `json:"name" validate:"required,max=100"`
	Ingredients  string `json:"ingredients"`
	Instructions string `json:"instructions"`
	VideoURL     string `json:"videoURL" validate:"omitempty,url"`
	CuisineType  string `json:"cuisineType" validate:"max=50"`
	IsPrivate    bool   `json:"isPrivate"`
}
